package shop

import (
	"context"
	"fmt"
	"strings"
)

// Verb is the operation requested from a Transport.
type Verb string

// Supported verbs.
const (
	VerbGet    Verb = "get"
	VerbPost   Verb = "post"
	VerbPut    Verb = "put"
	VerbDelete Verb = "delete"
)

// Request is what a Resource asks its Transport to execute.
type Request struct {
	// Resource is the resource name, e.g. "products".
	Resource string
	Verb     Verb
	// PathArgs are appended to the resource path, e.g. an identifier.
	PathArgs []string
	// Body is JSON-encoded by the transport; nil for reads and deletes.
	Body any
	// Criteria is nil when no criterion was set.
	Criteria *Criteria
}

// Transport executes resource requests. Implementations perform the network
// exchange; non-2xx statuses must be returned as a Response, not an error.
type Transport interface {
	Request(ctx context.Context, req *Request) (*Response, error)
}

// Resource addresses one named shop collection or entity.
//
// Criteria set through Limit, Filters, Page and Order apply to the next verb
// call only, and are cleared when that call starts whatever its outcome. A
// Resource is therefore not safe for concurrent use: give every goroutine its
// own instance (see Client.Resource) or guard it externally.
type Resource struct {
	name       string
	singleOnly bool
	transport  Transport
	criteria   *CriteriaBuilder
}

// NewResource creates a resource that exposes a collection.
func NewResource(transport Transport, name string) *Resource {
	return &Resource{
		name:      name,
		transport: transport,
		criteria:  NewCriteriaBuilder(),
	}
}

// NewSingleResource creates a resource that has no collection; Get always
// yields a single entity.
func NewSingleResource(transport Transport, name string) *Resource {
	resource := NewResource(transport, name)
	resource.singleOnly = true

	return resource
}

// Name returns the resource name.
func (r *Resource) Name() string {
	return r.name
}

// IsSingleOnly reports whether the resource has no collection.
func (r *Resource) IsSingleOnly() bool {
	return r.singleOnly
}

// Limit sets the page size (1-50) for the next call.
func (r *Resource) Limit(count int) error {
	return r.criteria.Limit(count)
}

// Filters sets the filter object for the next call.
func (r *Resource) Filters(filters map[string]any) error {
	return r.criteria.Filters(filters)
}

// Page selects the page for the next call.
func (r *Resource) Page(page int) error {
	return r.criteria.Page(page)
}

// PageString selects the page from loosely formatted input such as a query
// parameter.
func (r *Resource) PageString(page string) error {
	return r.criteria.PageString(page)
}

// Order sets the ordering for the next call, see ParseOrder.
func (r *Resource) Order(expr string) error {
	return r.criteria.Order(expr)
}

// Get reads the resource. Without ids the collection is returned as a
// *RecordList (unless the resource is single-only); with ids a single *Record.
func (r *Resource) Get(ctx context.Context, ids ...string) (Result, error) {
	criteria := r.criteria.Drain()

	if len(ids) == 0 {
		ids = nil
	}

	isCollection := !r.singleOnly && len(ids) == 0

	resp, err := r.dispatch(ctx, &Request{
		Resource: r.name,
		Verb:     VerbGet,
		PathArgs: ids,
		Criteria: criteriaOrNil(criteria),
	})
	if err != nil {
		return nil, err
	}

	return TransformResponse(resp, isCollection)
}

// List reads the collection.
func (r *Resource) List(ctx context.Context) (*RecordList, error) {
	result, err := r.Get(ctx)
	if err != nil {
		return nil, err
	}

	list, ok := result.(*RecordList)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no collection", ErrUnexpectedResult, r.name)
	}

	return list, nil
}

// GetByID reads a single entity.
func (r *Resource) GetByID(ctx context.Context, id string) (*Record, error) {
	result, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	record, ok := result.(*Record)
	if !ok {
		return nil, fmt.Errorf("%w: expected a single %s entity", ErrUnexpectedResult, r.name)
	}

	return record, nil
}

// Post creates an entity from data. pathArgs address nested collections. The
// decoded response payload is returned, typically the new identifier.
func (r *Resource) Post(ctx context.Context, data any, pathArgs ...string) (any, error) {
	err := r.rejectCriteria(VerbPost)
	if err != nil {
		return nil, err
	}

	if len(pathArgs) == 0 {
		pathArgs = nil
	}

	resp, err := r.dispatch(ctx, &Request{
		Resource: r.name,
		Verb:     VerbPost,
		PathArgs: pathArgs,
		Body:     data,
	})
	if err != nil {
		return nil, err
	}

	if !resp.IsSuccess() {
		return nil, APIErrorFromResponse(resp)
	}

	payload, err := decodePayload(resp.Data)
	if err != nil {
		return nil, NewClientError(fmt.Errorf("parsing create response: %w", err))
	}

	return payload, nil
}

// PutByID updates the entity identified by id.
func (r *Resource) PutByID(ctx context.Context, id string, data any) (bool, error) {
	return r.write(ctx, VerbPut, []string{id}, data)
}

// Put updates a resource that is not addressed by an identifier.
func (r *Resource) Put(ctx context.Context, data any) (bool, error) {
	return r.write(ctx, VerbPut, nil, data)
}

// DeleteByID deletes the entity identified by id.
func (r *Resource) DeleteByID(ctx context.Context, id string) (bool, error) {
	return r.write(ctx, VerbDelete, []string{id}, nil)
}

// Delete deletes a resource that is not addressed by an identifier.
func (r *Resource) Delete(ctx context.Context) (bool, error) {
	return r.write(ctx, VerbDelete, nil, nil)
}

func (r *Resource) write(ctx context.Context, verb Verb, pathArgs []string, data any) (bool, error) {
	err := r.rejectCriteria(verb)
	if err != nil {
		return false, err
	}

	resp, err := r.dispatch(ctx, &Request{
		Resource: r.name,
		Verb:     verb,
		PathArgs: pathArgs,
		Body:     data,
	})
	if err != nil {
		return false, err
	}

	if !resp.IsSuccess() {
		return false, APIErrorFromResponse(resp)
	}

	return true, nil
}

// rejectCriteria drains the builder and fails if anything was set; only reads
// accept criteria.
func (r *Resource) rejectCriteria(verb Verb) error {
	criteria := r.criteria.Drain()
	if criteria.IsEmpty() {
		return nil
	}

	return newResourceError(KindFiltersUnsupportedInVerb,
		fmt.Sprintf("filtering not supported in %s", strings.ToUpper(string(verb))))
}

func (r *Resource) dispatch(ctx context.Context, req *Request) (*Response, error) {
	resp, err := r.transport.Request(ctx, req)
	if err != nil {
		return nil, NewClientError(err)
	}

	if resp == nil {
		return nil, NewClientError(fmt.Errorf("%w: %s %s returned no response", ErrUnknownClientError, req.Verb, req.Resource))
	}

	return resp, nil
}

func criteriaOrNil(criteria Criteria) *Criteria {
	if criteria.IsEmpty() {
		return nil
	}

	return &criteria
}
