package testdomain

import (
	"github.com/mghro/open-cradle/catalog"
	"github.com/mghro/open-cradle/request"
	"github.com/mghro/open-cradle/runtime"
)

// DomainName is the name remote submissions carry to select this domain.
const DomainName = "testing"

// Install registers the domain's context factory and its request catalog.
// It returns the catalog id for a later Uninstall.
func Install(domains *runtime.DomainRegistry, catalogs *catalog.Registry) (catalog.CatalogID, error) {
	if domains == nil {
		domains = runtime.Domains()
	}
	if catalogs == nil {
		catalogs = catalog.Default()
	}

	domains.Register(DomainName, func(res *runtime.Resources, asyncMode bool) (*runtime.Context, error) {
		opts := []runtime.Option{runtime.WithDomain(DomainName)}
		if asyncMode {
			opts = append(opts, runtime.WithAsync())
		}
		return runtime.NewContext(res, opts...), nil
	})

	catID := catalog.NewCatalogID()
	for _, class := range classes() {
		if err := catalogs.Register(catID, class.props.UUID, catalog.Registration{
			Props:   class.props,
			Rebuild: class.rebuild,
		}); err != nil {
			catalogs.Unregister(catID)
			return "", err
		}
	}
	return catID, nil
}

// Uninstall removes the domain's catalog entries.
func Uninstall(catalogs *catalog.Registry, catID catalog.CatalogID) {
	if catalogs == nil {
		catalogs = catalog.Default()
	}
	catalogs.Unregister(catID)
}

// class couples a request class's props with its reconstruction.
type class struct {
	props   request.Props
	rebuild func(args []request.Request) (request.Request, error)
}

func classes() []class {
	return []class{
		{addProps, func(args []request.Request) (request.Request, error) {
			return request.NewPlain(addProps, addBody, args...)
		}},
		{multiplyProps, func(args []request.Request) (request.Request, error) {
			return request.NewPlain(multiplyProps, multiplyBody, args...)
		}},
		{failProps, func(args []request.Request) (request.Request, error) {
			return request.NewPlain(failProps, failBody, args...)
		}},
		{sleepProps, func(args []request.Request) (request.Request, error) {
			return request.NewCoro(sleepProps, sleepBody, args...)
		}},
		{mockHTTPProps, func(args []request.Request) (request.Request, error) {
			return request.NewCoro(mockHTTPProps, mockHTTPBody, args...)
		}},
	}
}
