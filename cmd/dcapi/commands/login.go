package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/fivetwenty-io/dcapi/internal/auth"
	"github.com/fivetwenty-io/dcapi/pkg/shop"
	"github.com/fivetwenty-io/dcapi/pkg/shopclient"
)

// Static errors for err113 compliance.
var (
	ErrClientIDRequired = errors.New("--client-id is required when exchanging an authorization code")
	ErrCodeOrToken      = errors.New("either --code or --token is required")
)

// NewLoginCommand creates the login command.
func NewLoginCommand() *cobra.Command {
	var (
		clientID     string
		clientSecret string
		code         string
		name         string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to a shop",
		Long: `Store credentials for a shop.

With --code the authorization code delivered when the application was installed
is exchanged for an access and refresh token pair. The client secret is
prompted for when not given. With --token a ready access token is stored as is.

Examples:
  dcapi login -e example.shoparena.pl --client-id APP_ID --code AUTH_CODE
  dcapi login -e example.shoparena.pl --token ACCESS_TOKEN --name staging`,
		RunE: func(cmd *cobra.Command, args []string) error {
			entrypoint := viper.GetString("entrypoint")
			if entrypoint == "" {
				return shop.ErrEntrypointRequired
			}

			normalized, err := shopclient.NormalizeEntrypoint(entrypoint)
			if err != nil {
				return err
			}

			token := viper.GetString("token")
			if code == "" && token == "" {
				return ErrCodeOrToken
			}

			profile := &ShopConfig{Entrypoint: normalized, Token: token}

			if code != "" {
				if clientID == "" {
					return ErrClientIDRequired
				}

				if clientSecret == "" {
					clientSecret, err = promptSecret(cmd, "Client secret: ")
					if err != nil {
						return err
					}
				}

				issued, err := auth.NewShopTokenManager(normalized, clientID, clientSecret).Exchange(cmd.Context(), code)
				if err != nil {
					return fmt.Errorf("failed to exchange authorization code: %w", err)
				}

				now := time.Now()
				profile.ClientID = clientID
				profile.ClientSecret = clientSecret
				profile.Token = issued.AccessToken
				profile.RefreshToken = issued.RefreshToken
				profile.LastRefreshed = &now

				if !issued.ExpiresAt.IsZero() {
					profile.TokenExpiresAt = &issued.ExpiresAt
				}
			}

			if name == "" {
				name = shopName(normalized)
			}

			config, err := loadConfig()
			if err != nil {
				return err
			}

			config.Shops[name] = profile
			if config.CurrentShop == "" || len(config.Shops) == 1 {
				config.CurrentShop = name
			}

			err = saveConfig(config)
			if err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Successfully logged in to %s\n", normalized)

			if config.CurrentShop == name {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Shop '%s' set as current shop\n", name)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&clientID, "client-id", "", "application client ID")
	cmd.Flags().StringVar(&clientSecret, "client-secret", "", "application client secret")
	cmd.Flags().StringVar(&code, "code", "", "authorization code issued on install")
	cmd.Flags().StringVar(&name, "name", "", "profile name (default: entrypoint host)")

	return cmd
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out of a shop",
		Long:  "Clear stored tokens for the selected shop, keeping its entrypoint and client credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}

			name, profile, err := selectShop(config)
			if err != nil {
				return err
			}

			profile.Token = ""
			profile.RefreshToken = ""
			profile.TokenExpiresAt = nil

			err = saveConfig(config)
			if err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Logged out of %s\n", name)

			return nil
		},
	}
}

// promptSecret reads a secret without echo on a terminal, or a plain line otherwise.
func promptSecret(cmd *cobra.Command, prompt string) (string, error) {
	_, _ = fmt.Fprint(cmd.ErrOrStderr(), prompt)

	if in, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(in.Fd())) {
		secret, err := term.ReadPassword(int(in.Fd()))
		_, _ = fmt.Fprintln(cmd.ErrOrStderr())

		if err != nil {
			return "", fmt.Errorf("failed to read secret: %w", err)
		}

		return string(secret), nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read secret: %w", err)
	}

	return strings.TrimSpace(line), nil
}
