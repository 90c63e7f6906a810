// Package shopclient provides the main entry point for creating shop REST API
// clients that implement the shop.Client interface.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/dcapi/pkg/shop"
//	  "github.com/fivetwenty-io/dcapi/pkg/shopclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  // With an access token you already have:
//	  cli, err := shopclient.NewWithToken(ctx, "https://example.shoparena.pl", "token")
//	  if err != nil { log.Fatal(err) }
//	  defer cli.Close()
//
//	  // Or by exchanging the authorization code received on install:
//	  cli, err = shopclient.New(ctx, &shop.Config{
//	    Entrypoint:   "https://example.shoparena.pl",
//	    ClientID:     "app-id",
//	    ClientSecret: "app-secret",
//	    AuthCode:     "code",
//	  })
//	  if err != nil { log.Fatal(err) }
//
//	  products := cli.Products()
//	  _ = products.Limit(10)
//	  _ = products.Order("-product_id")
//
//	  list, err := products.List(ctx)
//	  if err != nil { log.Fatal(err) }
//	  _ = list
//	}
//
// See shop.Config for the authentication precedence.
package shopclient
