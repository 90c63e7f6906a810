package shop_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/dcapi/pkg/shop"
)

func TestRegistry_CaseInsensitive(t *testing.T) {
	t.Parallel()

	registry := shop.NewRegistry()
	registry.RegisterCollection("Producers")

	resource, err := registry.New(nil, " PRODUCERS ")
	require.NoError(t, err)
	assert.Equal(t, "Producers", resource.Name())
	assert.False(t, resource.IsSingleOnly())
	assert.Equal(t, []string{"producers"}, registry.Names())
}

func TestRegistry_Unknown(t *testing.T) {
	t.Parallel()

	_, err := shop.NewRegistry().New(nil, "widgets")
	require.ErrorIs(t, err, shop.ErrUnknownResource)
	assert.Contains(t, err.Error(), `"widgets"`)
}

func TestRegistry_Replace(t *testing.T) {
	t.Parallel()

	registry := shop.NewRegistry()
	registry.RegisterCollection("gauges")
	registry.RegisterSingle("gauges")

	resource, err := registry.New(nil, "gauges")
	require.NoError(t, err)
	assert.True(t, resource.IsSingleOnly())
	assert.Len(t, registry.Names(), 1)
}

func TestRegistry_NewInstances(t *testing.T) {
	t.Parallel()

	registry := shop.DefaultRegistry()

	first, err := registry.New(nil, shop.ResourceProducts)
	require.NoError(t, err)

	second, err := registry.New(nil, shop.ResourceProducts)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
}

func TestDefaultRegistry(t *testing.T) {
	t.Parallel()

	registry := shop.DefaultRegistry()
	names := registry.Names()

	assert.IsNonDecreasing(t, names)
	assert.Contains(t, names, "products")
	assert.Contains(t, names, "application-version")

	for _, name := range []string{
		shop.ResourceApplicationConfig,
		shop.ResourceApplicationLock,
		shop.ResourceApplicationVersion,
		shop.ResourceCategoriesTree,
		shop.ResourceDashboardStats,
	} {
		resource, err := registry.New(nil, name)
		require.NoError(t, err)
		assert.True(t, resource.IsSingleOnly(), name)
	}

	for _, name := range []string{"products", "categories", "orders", "webhooks", "product-images"} {
		resource, err := registry.New(nil, name)
		require.NoError(t, err)
		assert.False(t, resource.IsSingleOnly(), name)
	}
}
