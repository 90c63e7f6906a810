package shop

import (
	"fmt"
	"sort"
	"strings"
)

// Factory builds a Resource bound to a transport.
type Factory func(transport Transport) *Resource

// Registry maps resource names to factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds or replaces the factory for name. Names are case-insensitive.
func (r *Registry) Register(name string, factory Factory) {
	r.factories[normalizeName(name)] = factory
}

// RegisterCollection registers a resource that exposes a collection.
func (r *Registry) RegisterCollection(name string) {
	r.Register(name, func(transport Transport) *Resource {
		return NewResource(transport, name)
	})
}

// RegisterSingle registers a resource without a collection.
func (r *Registry) RegisterSingle(name string) {
	r.Register(name, func(transport Transport) *Resource {
		return NewSingleResource(transport, name)
	})
}

// Lookup returns the factory registered for name.
func (r *Registry) Lookup(name string) (Factory, bool) {
	factory, ok := r.factories[normalizeName(name)]

	return factory, ok
}

// New builds the resource registered under name.
func (r *Registry) New(transport Transport, name string) (*Resource, error) {
	factory, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownResource, name)
	}

	return factory(transport), nil
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Resource names exposed by the shop REST API.
const (
	ResourceApplicationConfig  = "application-config"
	ResourceApplicationLock    = "application-lock"
	ResourceApplicationVersion = "application-version"
	ResourceCategoriesTree     = "categories-tree"
	ResourceDashboardStats     = "dashboard-stats"
	ResourceCategories         = "categories"
	ResourceOrders             = "orders"
	ResourceProducers          = "producers"
	ResourceProducts           = "products"
	ResourceUsers              = "users"
)

var singleResources = []string{
	ResourceApplicationConfig,
	ResourceApplicationLock,
	ResourceApplicationVersion,
	ResourceCategoriesTree,
	ResourceDashboardStats,
}

var collectionResources = []string{
	"attribute-groups",
	"attributes",
	"auction-houses",
	"auction-orders",
	"auctions",
	"availabilities",
	ResourceCategories,
	"currencies",
	"dashboard-activities",
	"deliveries",
	"gauges",
	"geolocation-countries",
	"geolocation-regions",
	"geolocation-subregions",
	"languages",
	"metafield-values",
	"metafields",
	"object-mtimes",
	"option-groups",
	"option-values",
	"options",
	"order-products",
	ResourceOrders,
	"parcels",
	"payments",
	ResourceProducers,
	"product-files",
	"product-images",
	"product-stocks",
	ResourceProducts,
	"shippings",
	"statuses",
	"subscriber-groups",
	"subscribers",
	"taxes",
	"units",
	"user-addresses",
	"user-groups",
	ResourceUsers,
	"webhooks",
	"zones",
}

// DefaultRegistry returns a registry of every resource the shop API exposes.
func DefaultRegistry() *Registry {
	registry := NewRegistry()

	for _, name := range collectionResources {
		registry.RegisterCollection(name)
	}

	for _, name := range singleResources {
		registry.RegisterSingle(name)
	}

	return registry
}
