package dashboard

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/qiniu/zabbixboard/internal/config"
	"github.com/qiniu/zabbixboard/internal/dashboard/api"
	"github.com/qiniu/zabbixboard/internal/dashboard/cache"
	"github.com/qiniu/zabbixboard/internal/dashboard/client"
	"github.com/qiniu/zabbixboard/internal/dashboard/metrics"
	"github.com/qiniu/zabbixboard/internal/dashboard/service/workspace"
	"github.com/qiniu/zabbixboard/internal/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Server owns the long-lived parts of the dashboard: backend client, cache,
// metrics and the per-user workspaces.
type Server struct {
	config   *config.Config
	ctx      context.Context
	cancel   context.CancelFunc
	metrics  *metrics.Metrics
	client   *client.Client
	rdb      *redis.Client
	registry *workspace.Registry
	api      *api.Api
}

// NewServer wires the dashboard from cfg and starts the idle workspace sweeper.
func NewServer(cfg *config.Config) (*Server, error) {
	ctx, cancel := context.WithCancel(context.Background())
	m := metrics.New()

	c := client.New(client.Config{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: config.ParseDuration(cfg.Backend.Timeout, 30*time.Second),
	}, client.WithObserver(m))

	rdb := NewRedisClientFromConfig(ctx, &cfg.Redis)

	iv := workspace.DefaultIntervals()
	registry := workspace.NewRegistry(ctx, workspace.Deps{
		Cache:    cache.New(rdb),
		Recorder: m,
		Intervals: workspace.Intervals{
			Dashboard:    config.ParseDuration(cfg.Polling.Dashboard, iv.Dashboard),
			Hosts:        config.ParseDuration(cfg.Polling.Hosts, iv.Hosts),
			HostTriggers: config.ParseDuration(cfg.Polling.HostTriggers, iv.HostTriggers),
			KeyMetrics:   config.ParseDuration(cfg.Polling.KeyMetrics, iv.KeyMetrics),
			SystemInfo:   config.ParseDuration(cfg.Polling.SystemInfo, iv.SystemInfo),
		},
	}, workspace.RegistryOptions{
		IdleTTL: config.ParseDuration(cfg.Workspace.IdleTTL, 30*time.Minute),
		OnSize:  m.SetWorkspaces,
	})
	go registry.Run(ctx, config.ParseDuration(cfg.Workspace.SweepInterval, time.Minute))

	log.Info().
		Str("backend", cfg.Backend.BaseURL).
		Bool("cache", rdb != nil).
		Bool("local_token_check", cfg.Auth.JWTSecret != "").
		Msg("dashboard initialized")

	return &Server{
		config:   cfg,
		ctx:      ctx,
		cancel:   cancel,
		metrics:  m,
		client:   c,
		rdb:      rdb,
		registry: registry,
	}, nil
}

// NewRedisClientFromConfig returns nil when redis is disabled or unreachable;
// the workspaces then read straight from the backend.
func NewRedisClientFromConfig(ctx context.Context, c *config.RedisConfig) *redis.Client {
	if c == nil || !c.Enabled {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     c.Addr,
		Password: c.Password,
		DB:       c.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Error().Err(err).Str("addr", c.Addr).Msg("redis unreachable, running without cache")
		_ = rdb.Close()
		return nil
	}
	return rdb
}

// UseApi registers the HTTP routes on router.
func (s *Server) UseApi(router *gin.Engine) error {
	verifier := middleware.NewTokenVerifier(s.config.Auth.JWTSecret,
		middleware.WithBackendIdentity(s.client.Identity, config.ParseDuration(s.config.Auth.IdentityTTL, time.Minute)))
	s.api = api.NewApi(s.client, s.registry, verifier, s.metrics.Handler(), router)
	return nil
}

// Close stops every workspace and releases the cache connection.
func (s *Server) Close() {
	log.Info().Msg("Starting shutdown...")
	s.registry.Close()
	s.cancel()
	if s.rdb != nil {
		if err := s.rdb.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close redis client")
		}
	}
	log.Info().Msg("dashboard server shut down")
}
