// Package app opens the backing stores shared by the server and the CLI.
package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/junes231/funnel-editor/internal/cache"
	"github.com/junes231/funnel-editor/internal/config"
	"github.com/junes231/funnel-editor/internal/repository"
)

// App holds the store clients and the repositories and caches built on them
type App struct {
	Mongo *mongo.Client
	Redis *redis.Client
	DB    *mongo.Database

	FunnelRepo   repository.FunnelRepo
	LeadRepo     repository.LeadRepo
	FunnelCache  cache.FunnelCache
	SessionCache cache.SessionCache
	OutcomeStats cache.OutcomeStatsCache
}

// Connect dials MongoDB and Redis and pings both concurrently
func Connect(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	a := &App{Mongo: mongoClient, Redis: rdb}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.PingTimeout)
	defer cancel()
	g, gctx := errgroup.WithContext(pingCtx)
	g.Go(func() error {
		if err := mongoClient.Ping(gctx, nil); err != nil {
			return fmt.Errorf("failed to ping MongoDB: %w", err)
		}
		logger.Info("connected to MongoDB", zap.String("database", cfg.Mongo.Database))
		return nil
	})
	g.Go(func() error {
		if err := rdb.Ping(gctx).Err(); err != nil {
			return fmt.Errorf("failed to ping Redis: %w", err)
		}
		logger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))
		return nil
	})
	if err := g.Wait(); err != nil {
		a.Close(context.Background())
		return nil, err
	}

	a.DB = mongoClient.Database(cfg.Mongo.Database)
	a.FunnelRepo = repository.NewFunnelRepo(a.DB)
	a.LeadRepo = repository.NewLeadRepo(a.DB)
	a.FunnelCache = cache.NewFunnelCache(rdb, cfg.Playback.FunnelTTL)
	a.SessionCache = cache.NewSessionCache(rdb, cfg.Playback.SessionTTL)
	a.OutcomeStats = cache.NewOutcomeStatsCache(rdb)
	return a, nil
}

// Close disconnects both stores
func (a *App) Close(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return a.Mongo.Disconnect(ctx) })
	g.Go(a.Redis.Close)
	return g.Wait()
}
