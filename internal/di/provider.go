package di

import (
	"go.uber.org/zap"

	"github.com/LeJamon/gorebase/internal/config"
	"github.com/LeJamon/gorebase/internal/registry"
	"github.com/LeJamon/gorebase/internal/storage/database"
	"github.com/LeJamon/gorebase/internal/store"
)

// Provider configures and registers services in the container.
type Provider struct {
	container *Container
	config    *config.Config
	logger    *zap.Logger
}

// NewProvider creates a provider. A nil logger means zap.NewNop.
func NewProvider(container *Container, cfg *config.Config, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		container: container,
		config:    cfg,
		logger:    logger,
	}
}

// RegisterAll registers all services.
func (p *Provider) RegisterAll() {
	p.container.Register(ServiceConfig, p.config)
	p.container.Register(ServiceLogger, p.logger)

	p.container.RegisterBuilder(ServiceStore, func(c *Container) (any, error) {
		storage := p.config.Storage
		db, err := database.Open(storage.Backend, storage.Path)
		if err != nil {
			return nil, err
		}
		s, err := store.New(db, store.Options{
			Compression: storage.Compression,
			CacheSize:   storage.CacheSize,
			Logger:      p.logger,
		})
		if err != nil {
			db.Close()
			return nil, err
		}
		p.logger.Debug("opened store",
			zap.String("backend", storage.Backend),
			zap.String("path", storage.Path),
			zap.String("compression", storage.Compression),
		)
		return s, nil
	})

	// The registry owns the store once built; closing the store is enough.
	p.container.RegisterBuilder(ServiceRegistry, func(c *Container) (any, error) {
		s, err := Resolve[*store.Store](c, ServiceStore)
		if err != nil {
			return nil, err
		}
		return registryService{registry: registry.New(s, p.logger)}, nil
	})
}

// registryService keeps Registry.Close away from the container, which closes
// the store itself.
type registryService struct{ registry *registry.Registry }

// Registry returns the registry, opening storage on first use.
func (p *Provider) Registry() (*registry.Registry, error) {
	svc, err := Resolve[registryService](p.container, ServiceRegistry)
	if err != nil {
		return nil, err
	}
	return svc.registry, nil
}

// GetConfig returns the configuration.
func (p *Provider) GetConfig() *config.Config {
	return p.config
}
