package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/mghro/open-cradle/observe"
	"github.com/mghro/open-cradle/request"
)

// CatalogID identifies one catalog instance: the library or module that
// owns a group of registrations.
type CatalogID string

// NewCatalogID allocates a fresh catalog id.
func NewCatalogID() CatalogID {
	return CatalogID(uuid.NewString())
}

// Registration is the catalog entry for one request class. Rebuild
// reconstructs a request from already-deserialized argument requests; Props
// restates the class's declared properties for conflict detection.
type Registration struct {
	Props   request.Props
	Rebuild func(args []request.Request) (request.Request, error)
}

type entry struct {
	catID CatalogID
	reg   Registration
}

// Registry maps UUID strings to an ordered list of registrations, newest
// first. All operations are safe for concurrent use; lookups copy out so no
// lock is ever held across user code.
type Registry struct {
	mu     sync.Mutex
	byUUID map[string][]entry
	logger observe.Logger
}

// NewRegistry creates an empty registry logging through the given logger
// (nil for none).
func NewRegistry(logger observe.Logger) *Registry {
	if logger == nil {
		logger = observe.NopLogger()
	}
	return &Registry{
		byUUID: make(map[string][]entry),
		logger: logger,
	}
}

// defaultRegistry is the process-wide registry.
var defaultRegistry = NewRegistry(nil)

// Default returns the process-wide registry.
func Default() *Registry { return defaultRegistry }

// Register adds a registration for uuidStr under catID, prepending it to
// the UUID's list. Registering the same (catalog, uuid) pair twice logs a
// warning: it indicates a prior failed unregister. A registration whose
// properties conflict with a live one for the same UUID is refused.
func (r *Registry) Register(catID CatalogID, uuidStr string, reg Registration) error {
	if uuidStr == "" || reg.Rebuild == nil {
		return ErrInvalidRegistration
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.byUUID[uuidStr] {
		if e.catID == catID {
			r.logger.Warn(context.Background(), "catalog: duplicate registration",
				observe.F("uuid", uuidStr), observe.F("catalog", string(catID)))
			continue
		}
		if e.reg.Props.Scope != reg.Props.Scope || e.reg.Props.ResultType != reg.Props.ResultType {
			return fmt.Errorf("%w: %q", ErrConflictingUUIDTypes, uuidStr)
		}
	}
	r.byUUID[uuidStr] = append([]entry{{catID: catID, reg: reg}}, r.byUUID[uuidStr]...)
	return nil
}

// Unregister removes every registration tagged with catID. Always done
// before a dynamic catalog's library handle is released.
func (r *Registry) Unregister(catID CatalogID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for uuidStr, entries := range r.byUUID {
		kept := entries[:0]
		for _, e := range entries {
			if e.catID != catID {
				kept = append(kept, e)
			}
		}
		if len(kept) == 0 {
			delete(r.byUUID, uuidStr)
		} else {
			r.byUUID[uuidStr] = kept
		}
	}
}

// Lookup returns the most recently registered entry for uuidStr.
func (r *Registry) Lookup(uuidStr string) (Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.byUUID[uuidStr]
	if len(entries) == 0 {
		return Registration{}, fmt.Errorf("%w: %q", ErrUnregisteredUUID, uuidStr)
	}
	return entries[0].reg, nil
}

// UUIDs returns the registered UUID strings, in no particular order.
func (r *Registry) UUIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, len(r.byUUID))
	for u := range r.byUUID {
		out = append(out, u)
	}
	return out
}

// Reset drops every registration. Test fixtures use this between cases.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUUID = make(map[string][]entry)
}
