package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"communitycart/market/internal/config"
	"communitycart/market/internal/models"
)

const catalogUpdateChannel = "catalog_updates"

// ICatalogService serves the filter and sort options shown to shoppers.
type ICatalogService interface {
	Catalog(ctx context.Context) *models.Catalog
	Load(ctx context.Context) error
	SubscribeToChanges(ctx context.Context) error
	PublishReload(ctx context.Context) error
}

// catalogService implements ICatalogService.
type catalogService struct {
	cfg     *config.Config
	rdb     *redis.Client
	catalog *models.Catalog
	mutex   sync.RWMutex
}

// NewCatalogService loads the catalog once. rdb may be nil, in which case
// reloads only happen through Load.
func NewCatalogService(cfg *config.Config, rdb *redis.Client) ICatalogService {
	s := &catalogService{
		cfg:     cfg,
		rdb:     rdb,
		catalog: config.DefaultCatalog(cfg.AppName),
	}
	if err := s.Load(context.Background()); err != nil {
		log.Warn().Err(err).Str("path", cfg.CatalogPath).Msg("failed to load catalog, using built-in defaults")
	}
	return s
}

// Catalog returns the current catalog. Callers must not modify it.
func (s *catalogService) Catalog(ctx context.Context) *models.Catalog {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.catalog
}

// Load re-reads the catalog file and swaps it in on success.
func (s *catalogService) Load(ctx context.Context) error {
	cat, err := config.LoadCatalog(s.cfg.CatalogPath, s.cfg.AppName)
	if err != nil {
		return err
	}
	s.mutex.Lock()
	s.catalog = cat
	s.mutex.Unlock()
	log.Info().Int("regions", len(cat.Regions)).Int("categories", len(cat.Categories)).Msg("catalog loaded")
	return nil
}

// SubscribeToChanges reloads the catalog whenever a message arrives on the
// update channel. It blocks until ctx is cancelled or the subscription ends.
func (s *catalogService) SubscribeToChanges(ctx context.Context) error {
	if s.rdb == nil {
		log.Info().Msg("redis client not configured, catalog reloads disabled")
		return nil
	}

	pubsub := s.rdb.Subscribe(ctx, catalogUpdateChannel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to confirm catalog subscription: %w", err)
	}
	log.Info().Str("channel", catalogUpdateChannel).Msg("subscribed to catalog updates")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				log.Info().Msg("catalog subscription closed")
				return nil
			}
			log.Info().Str("payload", msg.Payload).Msg("catalog update received")
			if err := s.Load(ctx); err != nil {
				log.Error().Err(err).Msg("failed to reload catalog after notification")
			}
		}
	}
}

// PublishReload asks every subscribed instance to reload the catalog.
func (s *catalogService) PublishReload(ctx context.Context) error {
	if s.rdb == nil {
		return s.Load(ctx)
	}
	if err := s.rdb.Publish(ctx, catalogUpdateChannel, "reload").Err(); err != nil {
		return fmt.Errorf("failed to publish catalog reload: %w", err)
	}
	return nil
}
