package testdomain

import (
	"context"
	"errors"
	"testing"

	"github.com/mghro/open-cradle/catalog"
	"github.com/mghro/open-cradle/config"
	"github.com/mghro/open-cradle/resolver"
	"github.com/mghro/open-cradle/runtime"
	"github.com/mghro/open-cradle/storage"
	"github.com/mghro/open-cradle/value"
)

func install(t *testing.T) (*runtime.DomainRegistry, *catalog.Registry) {
	t.Helper()
	domains := runtime.NewDomainRegistry()
	catalogs := catalog.NewRegistry(nil)
	if _, err := Install(domains, catalogs); err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	return domains, catalogs
}

func TestInstall_RegistersEverything(t *testing.T) {
	domains, catalogs := install(t)

	res, err := runtime.NewResources(config.Empty(), storage.NewRegistry(), nil)
	if err != nil {
		t.Fatal(err)
	}
	rctx, err := domains.NewContext(DomainName, res, false)
	if err != nil {
		t.Fatalf("domain context: %v", err)
	}
	if rctx.Domain() != DomainName {
		t.Errorf("Domain = %q", rctx.Domain())
	}

	for _, uuid := range []string{"add_v1", "multiply_v1", "fail_v1", "sleep_v1", "mock_http_get_v1"} {
		if _, err := catalogs.Lookup(uuid); err != nil {
			t.Errorf("Lookup(%q) failed: %v", uuid, err)
		}
	}
}

func TestRoundTripThroughCatalog(t *testing.T) {
	_, catalogs := install(t)

	req, err := AddLit(21, 21)
	if err != nil {
		t.Fatal(err)
	}
	data, err := catalog.Serialize(req)
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	got, err := catalogs.Deserialize(data)
	if err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}
	if !got.ID().Equals(req.ID()) {
		t.Error("round trip lost the request identity")
	}
}

func TestBodies(t *testing.T) {
	domains, _ := install(t)
	res, err := runtime.NewResources(config.New(map[string]any{config.KeyTesting: true}),
		storage.NewRegistry(), nil)
	if err != nil {
		t.Fatal(err)
	}
	rctx, err := domains.NewContext(DomainName, res, false)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	add, err := AddLit(2, 3)
	if err != nil {
		t.Fatal(err)
	}
	if got, err := resolver.Resolve(ctx, rctx, add); err != nil || !value.Equal(got, value.Int(5)) {
		t.Errorf("add = (%s, %v)", got, err)
	}

	fail, err := Fail("designed to fail")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := resolver.Resolve(ctx, rctx, fail); err == nil || err.Error() != "designed to fail" {
		t.Errorf("fail = %v", err)
	}

	sleep, err := Sleep(0)
	if err != nil {
		t.Fatal(err)
	}
	if got, err := resolver.Resolve(ctx, rctx, sleep); err != nil || !got.IsNil() {
		t.Errorf("sleep = (%s, %v)", got, err)
	}

	mock, err := MockHTTPGet()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := resolver.Resolve(ctx, rctx, mock); err == nil {
		t.Error("mock http without an installed response should fail")
	}
	res.MockHTTP.Set(`{"ok":true}`)
	if got, err := resolver.Resolve(ctx, rctx, mock); err != nil || !value.Equal(got, value.String(`{"ok":true}`)) {
		t.Errorf("mock http = (%s, %v)", got, err)
	}
}

func TestUninstall(t *testing.T) {
	domains := runtime.NewDomainRegistry()
	catalogs := catalog.NewRegistry(nil)
	catID, err := Install(domains, catalogs)
	if err != nil {
		t.Fatal(err)
	}
	Uninstall(catalogs, catID)
	if _, err := catalogs.Lookup("add_v1"); !errors.Is(err, catalog.ErrUnregisteredUUID) {
		t.Errorf("Lookup after Uninstall = %v, want ErrUnregisteredUUID", err)
	}
}
