// Package shop provides the resource layer of the DreamCommerce (Shoper) REST
// API client.
//
// # Overview
//
// A Resource addresses one named collection of the shop API ("products",
// "orders", ...) and turns query criteria and CRUD verbs into requests for a
// Transport. The concrete transport, with authentication, retries and caching,
// lives in internal/client and is constructed through the shopclient package:
//
//	cli, err := shopclient.New(ctx, &shop.Config{
//	  Entrypoint:  "https://example.shoparena.pl",
//	  AccessToken: token,
//	})
//	if err != nil { log.Fatal(err) }
//
//	products := cli.Products()
//	_ = products.Limit(10)
//	_ = products.Order("-product_id")
//	list, err := products.List(ctx)
//
// # Criteria
//
// Limit, Filters, Page and Order apply to the next verb call only. Every verb
// clears them when it starts, so a failed call never leaks criteria into the
// following one. Writes (Post, Put, Delete) reject criteria with
// KindFiltersUnsupportedInVerb. A Resource is not safe for concurrent use;
// Client.Resource returns a fresh one for each caller.
//
// Order accepts "field asc", "field desc", "-field" and "+field".
//
// # Results
//
// Get returns a *RecordList for a collection and a *Record for an entity or a
// single-only resource such as "application-config". Records keep the key
// order of the payload and hold numbers as json.Number.
//
// # Errors
//
// Every Resource failure is a *ResourceError. Its Kind tells validation
// failures apart from transport failures (KindClientError) and from non-2xx
// answers (KindAPIError, whose Code is the HTTP status):
//
//	if errors.Is(err, shop.ErrInvalidLimit) { ... }
//	if shop.IsNotFound(err) { ... }
//
// # Interceptors and caching
//
// The package also carries the building blocks the transport composes:
// request/response interceptors (logging, headers, request ids, rate limiting,
// metrics, Prometheus export, circuit breaking) and a pluggable Cache with
// memory, chained and NATS JetStream key-value backends.
package shop
