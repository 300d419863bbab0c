package gateway

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/soyeahso/backoffice/internal/admin"
	"github.com/soyeahso/backoffice/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAllowedConfigPath(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"gateway.port", true},
		{"gateway.bind", true},
		{"gateway.controlUi.allowedOrigins", true},
		{"logging.level", true},
		{"i18n.locale", true},
		{"cache.dir", true},
		{"gateway.auth", false},
		{"gateway.auth.token", false},
		{"gateway.tls.keyPath", false},
		{"database.path", false},
		{"modules", false},
		{"gateway.portable", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, isAllowedConfigPath(tt.key))
		})
	}
}

func TestServerMethods(t *testing.T) {
	srv, _ := testServer(t)
	methods := srv.Methods()

	assert.IsNonDecreasing(t, methods)
	for _, m := range []string{
		"health", "config.get", "config.set",
		"module.list", "module.create", "module.toggle_activation", "module.delete",
		"hook.list", "hook.create", "hook.update", "hook.toggle_activation", "hook.listeners",
		"module_hook.list", "module_hook.get", "module_hook.create", "module_hook.update",
		"module_hook.delete", "module_hook.toggle_activation", "module_hook.update_position",
		"coupon.list", "coupon.get", "coupon.save", "coupon.types",
	} {
		assert.Contains(t, methods, m)
	}
}

// apiClient issues authenticated REST calls against a test server.
type apiClient struct {
	t     *testing.T
	base  string
	token string
}

func (c apiClient) do(method, path, body string) (int, []byte) {
	c.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, c.base+path, r)
	require.NoError(c.t, err)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp.StatusCode, data
}

func (c apiClient) decode(method, path, body string, wantStatus int, v any) {
	c.t.Helper()
	status, data := c.do(method, path, body)
	require.Equal(c.t, wantStatus, status, string(data))
	if v != nil {
		require.NoError(c.t, json.Unmarshal(data, v))
	}
}

func newAPI(t *testing.T, ts *httptest.Server) apiClient {
	return apiClient{t: t, base: ts.URL, token: testToken}
}

func TestAPIRequiresBearer(t *testing.T) {
	_, ts := testServer(t)
	api := newAPI(t, ts)

	api.token = ""
	status, body := api.do("GET", "/api/modules", "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Contains(t, string(body), "bearer credentials required")

	api.token = "wrong"
	status, _ = api.do("GET", "/api/modules", "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAPIWithoutAdmin(t *testing.T) {
	_, ts := newTestServer(t)
	status, body := newAPI(t, ts).do("GET", "/api/hooks", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Contains(t, string(body), "unavailable")
}

func TestAPIModuleHookLifecycle(t *testing.T) {
	_, ts := testServer(t)
	api := newAPI(t, ts)

	var m domain.Module
	api.decode("POST", "/api/modules", `{"code":"Colissimo","active":true}`, http.StatusCreated, &m)
	assert.Equal(t, "Colissimo", m.Title)

	var h domain.Hook
	api.decode("POST", "/api/hooks", `{"code":"product.tab","type":"front","active":true}`, http.StatusCreated, &h)

	var mh domain.ModuleHook
	api.decode("POST", "/api/module-hooks",
		`{"moduleId":1,"hookId":1,"classname":"ColissimoHook","method":"onTab"}`, http.StatusCreated, &mh)
	assert.False(t, mh.Active)
	assert.True(t, mh.ModuleActive)
	assert.True(t, mh.HookActive)
	assert.Equal(t, 1, mh.Position)

	api.decode("POST", "/api/module-hooks/1/toggle", "", http.StatusOK, &mh)
	assert.True(t, mh.Active)

	var listeners []domain.Listener
	api.decode("GET", "/api/hooks/product.tab/listeners", "", http.StatusOK, &listeners)
	require.Len(t, listeners, 1)
	assert.Equal(t, "onTab", listeners[0].Method)

	// Deactivating the hook hides its bindings.
	api.decode("POST", "/api/hooks/1/toggle", "", http.StatusOK, &h)
	assert.False(t, h.Active)
	api.decode("GET", "/api/hooks/product.tab/listeners", "", http.StatusOK, &listeners)
	assert.Empty(t, listeners)

	api.decode("PUT", "/api/hooks/1", `{"active":true,"title":"Product tab"}`, http.StatusOK, &h)
	assert.Equal(t, "Product tab", h.Title)

	api.decode("PUT", "/api/module-hooks/1", `{"method":"renderTab"}`, http.StatusOK, &mh)
	assert.Equal(t, "renderTab", mh.Method)
	assert.True(t, mh.HookActive)

	var list []domain.ModuleHook
	api.decode("GET", "/api/module-hooks?hookId=1", "", http.StatusOK, &list)
	assert.Len(t, list, 1)
	api.decode("GET", "/api/module-hooks?moduleId=2", "", http.StatusOK, &list)
	assert.Empty(t, list)

	api.decode("DELETE", "/api/module-hooks/1", "", http.StatusOK, &mh)
	status, _ := api.do("GET", "/api/module-hooks/1", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = api.do("DELETE", "/api/modules/1", "")
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = api.do("DELETE", "/api/modules/1", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPIToggleInactiveModule(t *testing.T) {
	_, ts := testServer(t)
	api := newAPI(t, ts)

	api.decode("POST", "/api/modules", `{"code":"Paypal"}`, http.StatusCreated, nil)
	api.decode("POST", "/api/hooks", `{"code":"main.footer-body"}`, http.StatusCreated, nil)
	api.decode("POST", "/api/module-hooks", `{"moduleId":1,"hookId":1,"classname":"PaypalHook","method":"footer"}`, http.StatusCreated, nil)

	var shape ErrorShape
	api.decode("POST", "/api/module-hooks/1/toggle", "", http.StatusConflict, &shape)
	assert.Equal(t, "module_inactive", shape.Code)
	assert.Equal(t, "The module has to be activated.", shape.Message)

	var m domain.Module
	api.decode("POST", "/api/modules/1/toggle", "", http.StatusOK, &m)
	assert.True(t, m.Active)

	var mh domain.ModuleHook
	api.decode("POST", "/api/module-hooks/1/toggle", "", http.StatusOK, &mh)
	assert.True(t, mh.Active)
	assert.True(t, mh.ModuleActive)
}

func TestAPIModuleHookPosition(t *testing.T) {
	_, ts := testServer(t)
	api := newAPI(t, ts)

	api.decode("POST", "/api/modules", `{"code":"A"}`, http.StatusCreated, nil)
	api.decode("POST", "/api/hooks", `{"code":"home.body"}`, http.StatusCreated, nil)
	for _, method := range []string{"one", "two", "three"} {
		api.decode("POST", "/api/module-hooks",
			`{"moduleId":1,"hookId":1,"classname":"Home","method":"`+method+`"}`, http.StatusCreated, nil)
	}

	var mh domain.ModuleHook
	api.decode("POST", "/api/module-hooks/3/position", `{"mode":"up"}`, http.StatusOK, &mh)
	assert.Equal(t, 2, mh.Position)

	api.decode("POST", "/api/module-hooks/3/position", `{"mode":"absolute","position":1}`, http.StatusOK, &mh)
	assert.Equal(t, 1, mh.Position)

	var list []domain.ModuleHook
	api.decode("GET", "/api/module-hooks?hookId=1", "", http.StatusOK, &list)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"three", "one", "two"}, []string{list[0].Method, list[1].Method, list[2].Method})

	var shape ErrorShape
	api.decode("POST", "/api/module-hooks/3/position", `{"mode":"sideways"}`, http.StatusBadRequest, &shape)
	assert.Equal(t, "invalid_position_mode", shape.Code)
}

func TestAPIBadInput(t *testing.T) {
	_, ts := testServer(t)
	api := newAPI(t, ts)

	status, _ := api.do("POST", "/api/module-hooks/abc/toggle", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = api.do("POST", "/api/modules", `{"code":`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = api.do("POST", "/api/modules", `{"code":"X","unknown":1}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = api.do("POST", "/api/module-hooks", `{"moduleId":1,"hookId":1,"method":"m"}`)
	assert.Equal(t, http.StatusBadRequest, status, "classname is required")

	status, _ = api.do("GET", "/api/module-hooks?hookId=x", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = api.do("GET", "/api/hooks/missing/listeners", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPICoupons(t *testing.T) {
	_, ts := testServer(t)
	api := newAPI(t, ts)

	var v admin.CouponView
	api.decode("PUT", "/api/coupons/XMAS",
		`{"serviceId":"remove_x_amount","title":"Christmas","amount":30,"enabled":true}`, http.StatusOK, &v)
	assert.Equal(t, "XMAS", v.Code)
	assert.Equal(t, -30.0, v.Effect)
	assert.Equal(t, "Remove X amount to total cart", v.Label)

	var list []admin.CouponView
	api.decode("GET", "/api/coupons", "", http.StatusOK, &list)
	assert.Len(t, list, 1)

	api.decode("GET", "/api/coupons/XMAS", "", http.StatusOK, &v)
	assert.Equal(t, "Christmas", v.Title)

	var shape ErrorShape
	api.decode("PUT", "/api/coupons/BAD", `{"serviceId":"free_shipping","amount":1}`, http.StatusBadRequest, &shape)
	assert.Equal(t, "unknown_coupon_type", shape.Code)

	status, _ := api.do("GET", "/api/coupons/NOPE", "")
	assert.Equal(t, http.StatusNotFound, status)
}
