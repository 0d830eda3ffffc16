package routes_test

import (
	"sync"
	"testing"

	commonerrors "github.com/ClipFinance/route-lib/common/errors"
	"github.com/ClipFinance/route-lib/routes"
	"github.com/ClipFinance/route-lib/routes/routetest"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryKeepsRegistrationOrder(t *testing.T) {
	registry, err := routes.NewRegistry(
		&routetest.Constructor{Name: "b"},
		&routetest.Constructor{Name: "a"},
		&routetest.Constructor{Name: "c"},
	)
	require.NoError(t, err)

	var names []string
	for _, c := range registry.Constructors() {
		names = append(names, c.Meta().Name)
	}
	assert.Equal(t, []string{"b", "a", "c"}, names)
	assert.Equal(t, 3, registry.Len())

	c, ok := registry.Get("a")
	require.True(t, ok)
	assert.Equal(t, "a", c.Meta().Name)

	_, ok = registry.Get("missing")
	assert.False(t, ok)
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	registry, err := routes.NewRegistry(&routetest.Constructor{Name: "bridge"})
	require.NoError(t, err)

	err = registry.Register(&routetest.Constructor{Name: "bridge", Kind: routes.Automatic})
	require.Error(t, err)
	assert.True(t, errors.Is(err, commonerrors.ErrRouteAlreadyRegistered))
	assert.Equal(t, 1, registry.Len())

	c, _ := registry.Get("bridge")
	assert.Equal(t, routes.Manual, c.Meta().Kind, "first registration wins")
}

func TestRegistryRejectsInvalidConstructors(t *testing.T) {
	registry, err := routes.NewRegistry()
	require.NoError(t, err)

	assert.ErrorIs(t, registry.Register(nil), commonerrors.ErrInvalidRoute)
	assert.ErrorIs(t, registry.Register(&routetest.Constructor{}), commonerrors.ErrInvalidRoute)

	_, err = routes.NewRegistry(&routetest.Constructor{Name: "x"}, &routetest.Constructor{Name: "x"})
	assert.ErrorIs(t, err, commonerrors.ErrRouteAlreadyRegistered)
}

func TestRegistryConcurrentRegistration(t *testing.T) {
	registry, err := routes.NewRegistry()
	require.NoError(t, err)

	names := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	var wg sync.WaitGroup
	for _, name := range names {
		name := name
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, registry.Register(&routetest.Constructor{Name: name}))
		}()
	}
	wg.Wait()

	assert.Equal(t, len(names), registry.Len())
	snapshot := registry.Constructors()
	snapshot[0] = nil
	assert.NotNil(t, registry.Constructors()[0], "snapshot must not alias registry state")
}
