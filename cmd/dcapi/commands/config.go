package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/dcapi/internal/constants"
	"github.com/fivetwenty-io/dcapi/pkg/shop"
)

const (
	configDirName  = ".dcapi"
	configFileName = "config.yml"
)

// Config represents the CLI configuration.
type Config struct {
	Shops       map[string]*ShopConfig `json:"shops,omitempty"        yaml:"shops,omitempty"`
	CurrentShop string                 `json:"current_shop,omitempty" yaml:"current_shop,omitempty"`

	// Global settings
	Output string `json:"output,omitempty" yaml:"output,omitempty"`
}

// ShopConfig represents the stored credentials for a single shop.
type ShopConfig struct {
	Entrypoint     string     `json:"entrypoint"                 yaml:"entrypoint"`
	ClientID       string     `json:"client_id,omitempty"        yaml:"client_id,omitempty"`
	ClientSecret   string     `json:"client_secret,omitempty"    yaml:"client_secret,omitempty"`
	Token          string     `json:"token,omitempty"            yaml:"token,omitempty"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty" yaml:"token_expires_at,omitempty"`
	RefreshToken   string     `json:"refresh_token,omitempty"    yaml:"refresh_token,omitempty"`
	LastRefreshed  *time.Time `json:"last_refreshed,omitempty"   yaml:"last_refreshed,omitempty"`

	// Cache configures response caching for this shop; nil disables it.
	Cache *shop.CacheConfig `json:"cache,omitempty" yaml:"cache,omitempty"`
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Manage dcapi CLI configuration including shop profiles and settings",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the configured shops with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}

			masked := maskConfig(config)

			switch outputFormat() {
			case constants.FormatJSON:
				return writeJSON(cmd.OutOrStdout(), masked)
			case constants.FormatYAML:
				return writeYAML(cmd.OutOrStdout(), masked)
			case constants.FormatTable:
				return renderConfigTable(cmd, masked)
			default:
				return fmt.Errorf("%w: %s", constants.ErrInvalidOutputFormat, outputFormat())
			}
		},
	}
}

func renderConfigTable(cmd *cobra.Command, config *Config) error {
	if len(config.Shops) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No shops configured")

		return nil
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.Header("Current", "Shop", "Entrypoint", "Client ID", "Token", "Expires At")

	for _, name := range sortedShopNames(config) {
		shopConfig := config.Shops[name]

		current := ""
		if name == config.CurrentShop {
			current = constants.CheckMarkSymbol
		}

		expires := constants.NotAvailable
		if shopConfig.TokenExpiresAt != nil {
			expires = shopConfig.TokenExpiresAt.Format(time.RFC3339)
		}

		_ = table.Append(current, name, shopConfig.Entrypoint, valueOrNA(shopConfig.ClientID), valueOrNA(shopConfig.Token), expires)
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long: `Set a configuration value.

Global keys: output, current_shop.
Shop keys (applied to the shop selected with --shop or the current shop):
entrypoint, client_id, client_secret, token, refresh_token,
cache_type (memory, nats, tiered, none), cache_nats_url.

Examples:
  dcapi config set cache_type tiered
  dcapi config set cache_nats_url nats://127.0.0.1:4222`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateConfigValue(cmd, args[0], args[1])
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Long:  "Clear a global or shop configuration value. Unsetting 'shop' removes the whole shop profile.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == "shop" {
				return removeShop(cmd)
			}

			return updateConfigValue(cmd, args[0], "")
		},
	}
}

func updateConfigValue(cmd *cobra.Command, key, value string) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}

	switch key {
	case "output":
		if value != "" && !isOutputFormat(value) {
			return fmt.Errorf("%w: %s", constants.ErrInvalidOutputFormat, value)
		}

		config.Output = value
	case "current_shop":
		if value != "" && config.Shops[value] == nil {
			return fmt.Errorf("shop '%s': %w", value, constants.ErrShopConfigNotFound)
		}

		config.CurrentShop = value
	default:
		name, shopConfig, err := selectShop(config)
		if err != nil {
			return err
		}

		err = setShopConfig(shopConfig, key, value)
		if err != nil {
			return err
		}

		key = name + "." + key
	}

	err = saveConfig(config)
	if err != nil {
		return err
	}

	if value == "" {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Unset %s\n", key)
	} else {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Set %s\n", key)
	}

	return nil
}

func setShopConfig(shopConfig *ShopConfig, key, value string) error {
	switch key {
	case "entrypoint":
		shopConfig.Entrypoint = value
	case "client_id":
		shopConfig.ClientID = value
	case "client_secret":
		shopConfig.ClientSecret = value
	case "token":
		shopConfig.Token = value
		shopConfig.TokenExpiresAt = nil
	case "refresh_token":
		shopConfig.RefreshToken = value
	case "cache_type":
		return setCacheType(shopConfig, value)
	case "cache_nats_url":
		setCacheNATSURL(shopConfig, value)
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
	}

	return nil
}

// setCacheType selects the cache backend; an empty value drops the cache
// section altogether.
func setCacheType(shopConfig *ShopConfig, value string) error {
	if value == "" {
		shopConfig.Cache = nil

		return nil
	}

	cacheType, err := shop.ParseCacheType(value)
	if err != nil {
		return err
	}

	if shopConfig.Cache == nil {
		shopConfig.Cache = shop.DefaultCacheConfig()
	}

	shopConfig.Cache.Type = cacheType

	return nil
}

func setCacheNATSURL(shopConfig *ShopConfig, value string) {
	if shopConfig.Cache == nil {
		if value == "" {
			return
		}

		shopConfig.Cache = shop.DefaultCacheConfig()
	}

	if shopConfig.Cache.NATS == nil {
		shopConfig.Cache.NATS = &shop.NATSKVConfig{}
	}

	shopConfig.Cache.NATS.URL = value
}

func removeShop(cmd *cobra.Command) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}

	name, _, err := selectShop(config)
	if err != nil {
		return err
	}

	delete(config.Shops, name)

	if config.CurrentShop == name {
		config.CurrentShop = ""
	}

	err = saveConfig(config)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed shop %s\n", name)

	return nil
}

// selectShop returns the shop named by --shop, or the current shop.
func selectShop(config *Config) (string, *ShopConfig, error) {
	if len(config.Shops) == 0 {
		return "", nil, constants.ErrNoShopsConfigured
	}

	name := viper.GetString("shop")
	if name == "" {
		name = config.CurrentShop
	}

	shopConfig, ok := config.Shops[name]
	if !ok {
		return "", nil, fmt.Errorf("shop '%s': %w", name, constants.ErrShopConfigNotFound)
	}

	return name, shopConfig, nil
}

// shopName derives a profile name from an entrypoint, e.g. "example.shoparena.pl".
func shopName(entrypoint string) string {
	parsed, err := url.Parse(entrypoint)
	if err != nil || parsed.Host == "" {
		return entrypoint
	}

	return parsed.Host
}

func sortedShopNames(config *Config) []string {
	names := make([]string, 0, len(config.Shops))
	for name := range config.Shops {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func maskConfig(config *Config) *Config {
	masked := &Config{
		Shops:       make(map[string]*ShopConfig, len(config.Shops)),
		CurrentShop: config.CurrentShop,
		Output:      config.Output,
	}

	for name, shopConfig := range config.Shops {
		copied := *shopConfig
		copied.ClientSecret = maskSecret(copied.ClientSecret)
		copied.Token = maskSecret(copied.Token)
		copied.RefreshToken = maskSecret(copied.RefreshToken)
		masked.Shops[name] = &copied
	}

	return masked
}

func maskSecret(secret string) string {
	if secret == "" {
		return ""
	}

	return constants.MaskedSecret
}

func valueOrNA(value string) string {
	if value == "" {
		return constants.NotAvailable
	}

	return value
}

// configFilePath returns the config file in use: --config, the file viper
// loaded, or ~/.dcapi/config.yml.
func configFilePath() (string, error) {
	if path := viper.GetString("config"); path != "" {
		return cleanConfigPath(path)
	}

	if path := viper.ConfigFileUsed(); path != "" {
		return cleanConfigPath(path)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, configDirName, configFileName), nil
}

func cleanConfigPath(path string) (string, error) {
	if strings.Contains(filepath.ToSlash(path), "../") {
		return "", fmt.Errorf("%w: %s", constants.ErrDirectoryTraversalDetected, path)
	}

	return filepath.Clean(path), nil
}

// loadConfig reads the config file. A missing file yields an empty config.
func loadConfig() (*Config, error) {
	config := &Config{Shops: make(map[string]*ShopConfig)}

	path, err := configFilePath()
	if err != nil {
		return nil, err
	}

	// path is either user supplied via --config or derived from the home directory
	// #nosec G304
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return config, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	err = yaml.Unmarshal(data, config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if config.Shops == nil {
		config.Shops = make(map[string]*ShopConfig)
	}

	return config, nil
}

func saveConfig(config *Config) error {
	path, err := configFilePath()
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(path), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	err = os.WriteFile(path, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
