package commands

import (
	"fmt"
	"sync"
	"time"

	"github.com/fivetwenty-io/dcapi/internal/auth"
	"github.com/fivetwenty-io/dcapi/internal/constants"
)

// ConfigPersister implements the auth.ConfigPersister interface.
type ConfigPersister struct {
	mutex sync.Mutex
}

var _ auth.ConfigPersister = (*ConfigPersister)(nil)

// NewConfigPersister creates a new config persister.
func NewConfigPersister() *ConfigPersister {
	return &ConfigPersister{}
}

// UpdateShopToken stores a refreshed token pair for a configured shop.
func (p *ConfigPersister) UpdateShopToken(shop, token string, expiresAt time.Time, refreshToken string) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	config, err := loadConfig()
	if err != nil {
		return err
	}

	shopConfig, exists := config.Shops[shop]
	if !exists {
		return fmt.Errorf("shop configuration for '%s': %w", shop, constants.ErrShopConfigNotFound)
	}

	shopConfig.Token = token
	if !expiresAt.IsZero() {
		shopConfig.TokenExpiresAt = &expiresAt
	}

	if refreshToken != "" {
		shopConfig.RefreshToken = refreshToken
	}

	now := time.Now()
	shopConfig.LastRefreshed = &now

	return saveConfig(config)
}
