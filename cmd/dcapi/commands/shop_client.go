package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-logr/logr/funcr"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/dcapi/internal/auth"
	"github.com/fivetwenty-io/dcapi/internal/client"
	"github.com/fivetwenty-io/dcapi/internal/constants"
	"github.com/fivetwenty-io/dcapi/pkg/shop"
	"github.com/fivetwenty-io/dcapi/pkg/shopclient"
)

// createShopClient builds a client from --entrypoint/--token, or else from
// the selected shop profile. Refreshed tokens are written back to the config.
func createShopClient(cmd *cobra.Command) (shop.Client, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	shopConfig := &shop.Config{}

	if viper.GetBool("verbose") {
		shopConfig.Logger = newVerboseLogger(cmd.ErrOrStderr())
		shopConfig.Debug = true
	}

	entrypoint := viper.GetString("entrypoint")
	token := viper.GetString("token")

	if entrypoint != "" && token != "" {
		shopConfig.Entrypoint = entrypoint
		shopConfig.AccessToken = token

		return shopclient.New(ctx, shopConfig)
	}

	config, err := loadConfig()
	if err != nil {
		return nil, err
	}

	name, profile, err := selectShop(config)
	if err != nil {
		return nil, err
	}

	if profile.Token == "" && profile.RefreshToken == "" {
		return nil, fmt.Errorf("shop '%s': %w", name, constants.ErrNotAuthenticated)
	}

	normalized, err := shopclient.NormalizeEntrypoint(profile.Entrypoint)
	if err != nil {
		return nil, err
	}

	shopConfig.Entrypoint = normalized
	shopConfig.Cache = profile.Cache

	if profile.RefreshToken == "" || profile.ClientID == "" {
		shopConfig.AccessToken = profile.Token

		return shopclient.New(ctx, shopConfig)
	}

	var expiresAt time.Time
	if profile.TokenExpiresAt != nil {
		expiresAt = *profile.TokenExpiresAt
	}

	tokenManager := auth.NewConfigTokenManager(&auth.OAuth2Config{
		TokenURL:     auth.TokenURL(normalized),
		ClientID:     profile.ClientID,
		ClientSecret: profile.ClientSecret,
		RefreshToken: profile.RefreshToken,
	}, NewConfigPersister(), name, profile.Token, expiresAt)
	tokenManager.SetWarningOutput(cmd.ErrOrStderr())

	shopClient, err := client.NewWithTokenManager(ctx, shopConfig, tokenManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create client with token manager: %w", err)
	}

	return shopClient, nil
}

// newVerboseLogger writes debug-level log lines to w.
func newVerboseLogger(w io.Writer) shop.Logger {
	log := funcr.New(func(prefix, args string) {
		_, _ = fmt.Fprintln(w, prefix, args)
	}, funcr.Options{
		Verbosity:    1,
		LogTimestamp: true,
	})

	return shop.NewLogrLogger(log.WithName("dcapi"))
}
