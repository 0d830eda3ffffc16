package routes

import (
	"sync"

	commonerrors "github.com/ClipFinance/route-lib/common/errors"
	"github.com/pkg/errors"
)

// Registry holds route constructors in registration order. Registration order
// is the default candidate priority. Registering a name twice is rejected.
// Registry is safe for concurrent registration and resolution.
type Registry struct {
	mu           sync.RWMutex
	constructors []Constructor
	index        map[string]int
}

// NewRegistry creates a registry pre-populated with the given constructors.
//
// Returns:
// - *Registry: the registry.
// - error: ErrRouteAlreadyRegistered or ErrInvalidRoute if a constructor is rejected.
func NewRegistry(constructors ...Constructor) (*Registry, error) {
	r := &Registry{index: make(map[string]int)}
	for _, c := range constructors {
		if err := r.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register appends a route variant.
//
// Parameters:
// - c: the route constructor.
//
// Returns:
// - error: ErrRouteAlreadyRegistered if a variant with the same name exists.
func (r *Registry) Register(c Constructor) error {
	if c == nil || c.Meta().Name == "" {
		return commonerrors.ErrInvalidRoute
	}
	name := c.Meta().Name

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.index[name]; exists {
		return errors.Wrapf(commonerrors.ErrRouteAlreadyRegistered, "%s", name)
	}
	r.index[name] = len(r.constructors)
	r.constructors = append(r.constructors, c)
	return nil
}

// Get returns the constructor registered under name.
func (r *Registry) Get(name string) (Constructor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.constructors[i], true
}

// Constructors returns a snapshot of the constructors in registration order.
func (r *Registry) Constructors() []Constructor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]Constructor(nil), r.constructors...)
}

// Len returns the number of registered variants.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.constructors)
}
