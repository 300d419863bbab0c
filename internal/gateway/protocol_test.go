package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/soyeahso/backoffice/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequest(t *testing.T) {
	frame, err := NewRequest("req-1", "module_hook.toggle_activation", map[string]int64{"id": 7})
	require.NoError(t, err)

	assert.Equal(t, FrameTypeRequest, frame.Type)
	assert.Equal(t, "req-1", frame.ID)
	assert.Equal(t, "module_hook.toggle_activation", frame.Method)
	assert.JSONEq(t, `{"id":7}`, string(frame.Params))
}

func TestNewResponse(t *testing.T) {
	frame, err := NewResponse("req-1", map[string]string{"status": "ok"})
	require.NoError(t, err)

	assert.Equal(t, FrameTypeResponse, frame.Type)
	require.NotNil(t, frame.OK)
	assert.True(t, *frame.OK)
	assert.Nil(t, frame.Error)
	assert.JSONEq(t, `{"status":"ok"}`, string(frame.Payload))
}

func TestNewErrorResponse(t *testing.T) {
	frame := NewErrorResponse("req-1", ErrorShape{Code: "module_inactive", Message: "The module has to be activated."})

	require.NotNil(t, frame.OK)
	assert.False(t, *frame.OK)
	require.NotNil(t, frame.Error)
	assert.Equal(t, "module_inactive", frame.Error.Code)

	data, err := json.Marshal(frame)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "payload")
	assert.NotContains(t, string(data), "details")
}

func TestNewEvent(t *testing.T) {
	frame, err := NewEvent("cache.clear", map[string]string{"dir": "/var/cache/backoffice"}, 42)
	require.NoError(t, err)

	assert.Equal(t, FrameTypeEvent, frame.Type)
	assert.Equal(t, "cache.clear", frame.Event)
	assert.Equal(t, int64(42), frame.Seq)

	zero, err := NewEvent("connect.challenge", nil, 0)
	require.NoError(t, err)
	data, err := json.Marshal(zero)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"seq"`)
}

func TestConnectParams_Unmarshal(t *testing.T) {
	raw := `{
		"minProtocol": 1,
		"maxProtocol": 1,
		"client": {"id": "admin-ui", "version": "2.0.0"},
		"auth": {"token": "secret"},
		"events": ["module_hook.*", "cache.clear"]
	}`
	var p ConnectParams
	require.NoError(t, json.Unmarshal([]byte(raw), &p))

	assert.Equal(t, "admin-ui", p.Client.ID)
	require.NotNil(t, p.Auth)
	assert.Equal(t, "secret", p.Auth.Token)
	assert.Equal(t, []string{"module_hook.*", "cache.clear"}, p.Events)
}

func TestHelloOK_Marshal(t *testing.T) {
	hello := HelloOK{
		Protocol: ProtocolVersion,
		Server:   ServerInfo{Version: "1.0.0", ConnID: "conn-1"},
		Features: Features{Methods: []string{"health"}, Events: []string{"cache.clear"}},
		Policy:   ServerPolicy{MaxPayload: maxPayload, TickIntervalMs: 30000},
	}
	data, err := json.Marshal(hello)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, float64(1), m["protocol"])
	assert.Equal(t, "conn-1", m["server"].(map[string]any)["connId"])
	assert.Equal(t, float64(maxPayload), m["policy"].(map[string]any)["maxPayload"])
}

func TestErrorShapeFromError(t *testing.T) {
	shape := errorShape(domain.NewError(domain.CodeModuleInactive, "Le module doit être activé."))
	assert.Equal(t, "module_inactive", shape.Code)
	assert.Equal(t, "Le module doit être activé.", shape.Message)

	wrapped := fmt.Errorf("toggle: %w", domain.NotFound("module hook", 9))
	assert.Equal(t, "not_found", errorShape(wrapped).Code)

	shape = errorShape(errors.New("disk I/O error at /var/lib/x"))
	assert.Equal(t, "internal", shape.Code)
	assert.Equal(t, "internal error", shape.Message)
}

func TestHTTPStatus(t *testing.T) {
	tests := map[domain.Code]int{
		domain.CodeNotFound:            http.StatusNotFound,
		domain.CodeAlreadyExists:       http.StatusConflict,
		domain.CodeModuleInactive:      http.StatusConflict,
		domain.CodeInvalidArgument:     http.StatusBadRequest,
		domain.CodeInvalidPosition:     http.StatusBadRequest,
		domain.CodeInvalidPositionMode: http.StatusBadRequest,
		domain.CodeUnknownCouponType:   http.StatusBadRequest,
		domain.CodeUnknown:             http.StatusInternalServerError,
	}
	for code, want := range tests {
		assert.Equal(t, want, httpStatus(code), code)
	}
}
