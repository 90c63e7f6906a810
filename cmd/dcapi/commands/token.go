package commands

import (
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/dcapi/internal/auth"
	"github.com/fivetwenty-io/dcapi/internal/constants"
	"github.com/fivetwenty-io/dcapi/pkg/shopclient"
)

// TokenStatus summarizes the stored token of a shop.
type TokenStatus struct {
	Shop             string     `json:"shop"                      yaml:"shop"`
	Entrypoint       string     `json:"entrypoint"                yaml:"entrypoint"`
	Authenticated    bool       `json:"authenticated"             yaml:"authenticated"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"      yaml:"expires_at,omitempty"`
	Expired          bool       `json:"expired"                   yaml:"expired"`
	LastRefreshed    *time.Time `json:"last_refreshed,omitempty"  yaml:"last_refreshed,omitempty"`
	RefreshAvailable bool       `json:"refresh_available"         yaml:"refresh_available"`
}

// NewTokenCommand creates the token command group.
func NewTokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage authentication tokens",
		Long:  "Commands for managing authentication tokens including status and refresh",
	}

	cmd.AddCommand(newTokenStatusCommand())
	cmd.AddCommand(newTokenRefreshCommand())

	return cmd
}

func newTokenStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show token status and expiration",
		Long:  "Display information about the stored token of the selected shop",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}

			name, profile, err := selectShop(config)
			if err != nil {
				return err
			}

			status := buildTokenStatus(name, profile)

			switch format := outputFormat(); format {
			case constants.FormatJSON:
				return writeJSON(cmd.OutOrStdout(), status)
			case constants.FormatYAML:
				return writeYAML(cmd.OutOrStdout(), status)
			case constants.FormatTable:
				return renderTokenStatusTable(cmd, status)
			default:
				return fmt.Errorf("%w: %s", constants.ErrInvalidOutputFormat, format)
			}
		},
	}
}

func newTokenRefreshCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Manually refresh authentication token",
		Long:  "Force refresh the access token of the selected shop using the stored refresh token",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}

			name, profile, err := selectShop(config)
			if err != nil {
				return err
			}

			if profile.RefreshToken == "" {
				return constants.ErrNoRefreshToken
			}

			normalized, err := shopclient.NormalizeEntrypoint(profile.Entrypoint)
			if err != nil {
				return err
			}

			tokenManager := auth.NewConfigTokenManager(&auth.OAuth2Config{
				TokenURL:     auth.TokenURL(normalized),
				ClientID:     profile.ClientID,
				ClientSecret: profile.ClientSecret,
				RefreshToken: profile.RefreshToken,
			}, NewConfigPersister(), name, "", time.Time{})
			tokenManager.SetWarningOutput(cmd.ErrOrStderr())

			err = tokenManager.RefreshToken(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to refresh token: %w", err)
			}

			expiry := tokenManager.GetTokenExpiry()
			if expiry.IsZero() {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Token refreshed for %s\n", name)

				return nil
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Token refreshed for %s, expires at %s\n", name, expiry.Format(time.RFC3339))

			return nil
		},
	}
}

func buildTokenStatus(name string, profile *ShopConfig) *TokenStatus {
	status := &TokenStatus{
		Shop:             name,
		Entrypoint:       profile.Entrypoint,
		Authenticated:    profile.Token != "",
		ExpiresAt:        profile.TokenExpiresAt,
		LastRefreshed:    profile.LastRefreshed,
		RefreshAvailable: profile.RefreshToken != "" && profile.ClientID != "",
	}

	if profile.TokenExpiresAt != nil {
		status.Expired = !time.Now().Before(*profile.TokenExpiresAt)
	}

	return status
}

func renderTokenStatusTable(cmd *cobra.Command, status *TokenStatus) error {
	expires := constants.NotAvailable
	if status.ExpiresAt != nil {
		expires = status.ExpiresAt.Format(time.RFC3339)
	}

	refreshed := constants.NotAvailable
	if status.LastRefreshed != nil {
		refreshed = status.LastRefreshed.Format(time.RFC3339)
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.Header("Property", "Value")
	_ = table.Append("Shop", status.Shop)
	_ = table.Append("Entrypoint", status.Entrypoint)
	_ = table.Append("Authenticated", fmt.Sprintf("%t", status.Authenticated))
	_ = table.Append("Expires At", expires)
	_ = table.Append("Expired", fmt.Sprintf("%t", status.Expired))
	_ = table.Append("Last Refreshed", refreshed)
	_ = table.Append("Refresh Token Available", fmt.Sprintf("%t", status.RefreshAvailable))

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}
