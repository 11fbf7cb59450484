package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/cadastre-client/internal/config"
	"github.com/Sternrassler/cadastre-client/pkg/cache"
	"github.com/Sternrassler/cadastre-client/pkg/client"
	"github.com/Sternrassler/cadastre-client/pkg/logging"
	"github.com/Sternrassler/cadastre-client/pkg/pagination"
)

type Options struct {
	Logger logging.Options `group:"Logger options"`

	ConfigFile string        `short:"c" long:"config"  env:"CONFIG_FILE"    description:"Path to configuration file" default:"config.yaml"`
	APIKey     string        `short:"k" long:"api-key" env:"VWORLD_API_KEY" description:"VWorld API key (overrides config)"`
	Domain     string        `short:"d" long:"domain"  env:"VWORLD_DOMAIN"  description:"Registered VWorld domain (overrides config)"`
	RedisAddr  string        `short:"r" long:"redis"   env:"REDIS_URL"      description:"Redis address for the region cache (overrides config)"`
	Addr       string        `short:"a" long:"addr"    env:"LISTEN_ADDRESS" description:"Address to listen on" default:"0.0.0.0"`
	Port       int           `short:"p" long:"port"    env:"LISTEN_PORT"    description:"Port to listen on" default:"8080"`
	Timeout    time.Duration `short:"t" long:"timeout" env:"REGION_TIMEOUT" description:"Timeout for one region request" default:"2m"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	// Setup Logging
	opts.Logger.Setup()

	cfg, err := loadConfig(opts)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	vworld, err := client.New(cfg.ClientConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create VWorld client")
	}

	preloaded, err := cfg.LoadPreloaded()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load preloaded regions")
	}

	srv := &server{timeout: opts.Timeout}
	sources := pagination.Chain{preloaded}

	if cfg.Redis.Addr != "" {
		srv.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer srv.redis.Close()

		if err := srv.redis.Ping(context.Background()).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis not reachable, cache lookups will miss")
		} else {
			log.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to Redis")
		}

		srv.cache = cache.NewManager(srv.redis, cfg.API.Layer, cfg.Cache.TTL)
		sources = append(sources, srv.cache)
	}

	collectorCfg := cfg.CollectorConfig()
	collectorCfg.Preloaded = sources
	collectorCfg.Observer = pagination.LogObserver{Logger: logging.NewLogger(logging.ComponentCollector)}
	srv.collector = pagination.NewRetryingCollector(
		pagination.NewCollector(vworld, collectorCfg),
		cfg.RetryConfig(),
	)

	listenAddr := fmt.Sprintf("%s:%d", opts.Addr, opts.Port)
	httpServer := &http.Server{
		Addr:              listenAddr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server shutdown failed")
		}
	}()

	log.Info().
		Str("addr", listenAddr).
		Str("layer", cfg.API.Layer).
		Int("preloaded_regions", len(preloaded)).
		Bool("cache", srv.cache != nil).
		Msg("Cadastre proxy started")

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}
	log.Info().Msg("Cadastre proxy stopped")
}

// loadConfig reads the configuration file, falling back to defaults when it
// does not exist, and applies command-line overrides.
func loadConfig(opts Options) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigFile)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn().Str("path", opts.ConfigFile).Msg("Configuration file not found, using defaults")
		cfg, err = config.Default(), nil
	}
	if err != nil {
		return nil, err
	}

	if opts.APIKey != "" {
		cfg.API.Key = opts.APIKey
	}
	if opts.Domain != "" {
		cfg.API.Domain = opts.Domain
	}
	if opts.RedisAddr != "" {
		cfg.Redis.Addr = opts.RedisAddr
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
