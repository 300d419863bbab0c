package admin

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/soyeahso/backoffice/internal/coupon"
	"github.com/soyeahso/backoffice/internal/domain"
	"github.com/soyeahso/backoffice/internal/i18n"
	"github.com/soyeahso/backoffice/internal/logging"
	"github.com/soyeahso/backoffice/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testService(t *testing.T) (*Service, string) {
	t.Helper()
	log := logging.New(nil, "silent")
	db, err := store.Open(":memory:", log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	bundle, err := i18n.LoadEmbedded()
	require.NoError(t, err)

	cacheDir := t.TempDir()
	return Wire(store.New(db), cacheDir, bundle.Translator("fr-FR"), log), cacheDir
}

func TestModuleHookLifecycle(t *testing.T) {
	svc, cacheDir := testService(t)
	ctx := context.Background()

	m, err := svc.CreateModule(ctx, ModuleInput{Code: "Colissimo", Active: true})
	require.NoError(t, err)
	h, err := svc.CreateHook(ctx, HookInput{Code: "product.tab", Active: true})
	require.NoError(t, err)

	mh, err := svc.CreateModuleHook(ctx, ModuleHookInput{ModuleID: m.ID, HookID: h.ID, Classname: "Front", Method: "tab"})
	require.NoError(t, err)
	assert.False(t, mh.Active)

	listeners, err := svc.HookListeners(ctx, "product.tab")
	require.NoError(t, err)
	assert.Empty(t, listeners)

	require.NoError(t, os.WriteFile(filepath.Join(cacheDir, "compiled.php"), nil, 0o600))

	mh, err = svc.ToggleModuleHook(ctx, mh.ID)
	require.NoError(t, err)
	assert.True(t, mh.Active)

	entries, err := os.ReadDir(cacheDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "toggle clears the cache directory")

	listeners, err = svc.HookListeners(ctx, "product.tab")
	require.NoError(t, err)
	require.Len(t, listeners, 1)
	assert.Equal(t, "Colissimo", listeners[0].ModuleCode)

	// Deactivating the module resets the listener cache but leaves the
	// cache directory alone.
	require.NoError(t, os.WriteFile(filepath.Join(cacheDir, "compiled.php"), nil, 0o600))
	m, err = svc.ToggleModule(ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, m.Active)

	listeners, err = svc.HookListeners(ctx, "product.tab")
	require.NoError(t, err)
	assert.Empty(t, listeners)
	assert.FileExists(t, filepath.Join(cacheDir, "compiled.php"))

	_, err = svc.ToggleModuleHook(ctx, mh.ID)
	assert.True(t, domain.IsCode(err, domain.CodeModuleInactive))
	var de *domain.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "Le module doit être activé.", de.Message)

	active := false
	_, err = svc.UpdateHook(ctx, h.ID, HookPatch{Active: &active})
	require.NoError(t, err)
	listeners, err = svc.HookListeners(ctx, "product.tab")
	require.NoError(t, err)
	assert.Empty(t, listeners)

	deleted, err := svc.DeleteModuleHook(ctx, mh.ID)
	require.NoError(t, err)
	assert.Equal(t, mh.ID, deleted.ID)

	_, err = svc.DeleteModuleHook(ctx, mh.ID)
	assert.True(t, domain.IsCode(err, domain.CodeNotFound))
}

func TestUpdateAndMoveModuleHook(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	m, err := svc.CreateModule(ctx, ModuleInput{Code: "Colissimo", Active: true})
	require.NoError(t, err)
	h, err := svc.CreateHook(ctx, HookInput{Code: "product.tab", Active: true})
	require.NoError(t, err)
	a, err := svc.CreateModuleHook(ctx, ModuleHookInput{ModuleID: m.ID, HookID: h.ID, Classname: "Front", Method: "a"})
	require.NoError(t, err)
	b, err := svc.CreateModuleHook(ctx, ModuleHookInput{ModuleID: m.ID, HookID: h.ID, Classname: "Front", Method: "b"})
	require.NoError(t, err)

	method := "renamed"
	on := true
	updated, err := svc.UpdateModuleHook(ctx, a.ID, ModuleHookPatch{Method: &method, Active: &on})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Method)
	assert.True(t, updated.Active)
	assert.Equal(t, "Front", updated.Classname)

	moved, err := svc.MoveModuleHook(ctx, b.ID, "absolute", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, moved.Position)

	_, err = svc.MoveModuleHook(ctx, b.ID, "left", 0)
	assert.True(t, domain.IsCode(err, domain.CodeInvalidPositionMode))

	_, err = svc.UpdateModuleHook(ctx, 999, ModuleHookPatch{})
	assert.True(t, domain.IsCode(err, domain.CodeNotFound))
}

func TestCreateValidation(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	_, err := svc.CreateModule(ctx, ModuleInput{})
	assert.True(t, domain.IsCode(err, domain.CodeInvalidArgument))
	_, err = svc.CreateHook(ctx, HookInput{})
	assert.True(t, domain.IsCode(err, domain.CodeInvalidArgument))
	_, err = svc.CreateModuleHook(ctx, ModuleHookInput{ModuleID: 1, HookID: 1, Method: "m"})
	assert.True(t, domain.IsCode(err, domain.CodeInvalidArgument))
	_, err = svc.HookListeners(ctx, "missing")
	assert.True(t, domain.IsCode(err, domain.CodeNotFound))
	assert.True(t, domain.IsCode(svc.DeleteModule(ctx, 7), domain.CodeNotFound))
}

func TestRefs(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	m, err := svc.CreateModule(ctx, ModuleInput{Code: "Colissimo"})
	require.NoError(t, err)
	h, err := svc.CreateHook(ctx, HookInput{Code: "product.tab"})
	require.NoError(t, err)

	byCode, err := svc.ModuleByRef(ctx, "Colissimo")
	require.NoError(t, err)
	byID, err := svc.ModuleByRef(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, m.ID, byCode.ID)
	assert.Equal(t, m.ID, byID.ID)

	hk, err := svc.HookByRef(ctx, "product.tab")
	require.NoError(t, err)
	assert.Equal(t, h.ID, hk.ID)
}

func TestCoupons(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	v, err := svc.SaveCoupon(ctx, domain.Coupon{
		Code: "XMAS", ServiceID: coupon.RemoveXAmountID, Title: "XMAS Coupon", Amount: 30, Enabled: true,
	})
	require.NoError(t, err)
	assert.Equal(t, -30.0, v.Effect)
	assert.Equal(t, "Retirer un montant X au total du panier", v.Label)

	_, err = svc.SaveCoupon(ctx, domain.Coupon{Code: "BAD", ServiceID: "nope"})
	assert.True(t, domain.IsCode(err, domain.CodeUnknownCouponType))

	list, err := svc.ListCoupons(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "XMAS", list[0].Code)

	assert.Equal(t, []string{coupon.RemoveXAmountID, coupon.RemoveXPercentID}, svc.CouponTypes())
}
