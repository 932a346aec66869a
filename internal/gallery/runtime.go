package gallery

import (
	"context"
	"errors"
	"fmt"

	"linesen/internal/auth"
	"linesen/internal/cache"
	"linesen/internal/config"
	"linesen/internal/database"
	"linesen/internal/notifications"
	"linesen/internal/observability"
	"linesen/internal/repository"
	"linesen/internal/storage"
	"linesen/internal/store"

	"gorm.io/gorm"
)

// Runtime holds the process-wide collaborators built from configuration.
type Runtime struct {
	DB       *gorm.DB
	Provider *auth.Provider
	Objects  store.Objects

	cfg       *config.Config
	shutdowns []func(context.Context) error
}

// Open connects the database, cache, object store and tracing described by
// cfg. Redis is optional: without it caching and the session relay are off.
func Open(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	observability.Logger = observability.NewLogger(cfg.Env)

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:  "linesen",
		Environment:  cfg.Env,
		Enabled:      cfg.TracingEnabled,
		Exporter:     cfg.TracingExporter,
		OTLPEndpoint: cfg.TracingOTLPEndpoint,
		SamplerRatio: cfg.TracingSampleRatio,
	})
	if err != nil {
		return nil, err
	}
	rt := &Runtime{cfg: cfg, shutdowns: []func(context.Context) error{shutdownTracing}}

	rt.DB, err = database.Connect(cfg)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}

	objects, err := storage.NewMinIOStorage(ctx, cfg)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("object store: %w", err)
	}
	rt.Objects = objects

	cache.InitRedis(cfg.RedisURL)
	rt.shutdowns = append(rt.shutdowns, func(context.Context) error {
		cache.Close()
		return nil
	})

	rt.Provider = auth.NewProvider(cfg.JWTSecret)
	relayCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	rt.shutdowns = append(rt.shutdowns, func(context.Context) error {
		cancel()
		return nil
	})
	if err := RelaySessions(relayCtx, rt.Provider, notifications.NewNotifier(cache.GetClient())); err != nil {
		observability.Logger.WarnContext(ctx, "session relay disabled", "error", err)
	}
	return rt, nil
}

// NewClient creates a Client for one UI view.
func (rt *Runtime) NewClient() *Client {
	return New(Deps{
		Identity:    rt.Provider,
		Artworks:    repository.NewArtworkRepository(rt.DB),
		Profiles:    repository.NewProfileRepository(rt.DB),
		Likes:       repository.NewLikeRepository(rt.DB),
		Objects:     rt.Objects,
		AssetPrefix: rt.cfg.AssetPrefix,
	})
}

// Close releases everything Open acquired, in reverse order.
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	for i := len(rt.shutdowns) - 1; i >= 0; i-- {
		errs = append(errs, rt.shutdowns[i](ctx))
	}
	rt.shutdowns = nil
	if rt.DB != nil {
		if sqlDB, err := rt.DB.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}

// RelaySessions publishes local sign-outs and applies sign-outs of the same
// principal made in other sessions, so a revoked login ends everywhere.
func RelaySessions(ctx context.Context, provider *auth.Provider, n *notifications.Notifier) error {
	unsubscribe := provider.OnChange(func(ev store.IdentityEvent) {
		if ev.Kind != store.SignedOut {
			return
		}
		if err := n.PublishSessionEvent(ctx, ev); err != nil {
			observability.Logger.WarnContext(ctx, "failed to publish session event", "error", err)
		}
	})
	context.AfterFunc(ctx, unsubscribe)

	return n.StartSessionSubscriber(ctx, func(ev store.IdentityEvent) {
		provider.HandleRemoteEvent(ctx, ev)
	})
}
