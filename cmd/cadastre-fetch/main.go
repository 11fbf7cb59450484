package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Sternrassler/cadastre-client/internal/config"
	"github.com/Sternrassler/cadastre-client/pkg/client"
	"github.com/Sternrassler/cadastre-client/pkg/logging"
	"github.com/Sternrassler/cadastre-client/pkg/pagination"
	"github.com/Sternrassler/cadastre-client/pkg/project"
)

type Options struct {
	Logger logging.Options `group:"Logger options"`

	ConfigFile  string `short:"c" long:"config"      env:"CONFIG_FILE"    description:"Path to configuration file" default:"config.yaml"`
	APIKey      string `short:"k" long:"api-key"     env:"VWORLD_API_KEY" description:"VWorld API key (overrides config)"`
	Domain      string `short:"d" long:"domain"      env:"VWORLD_DOMAIN"  description:"Registered VWorld domain (overrides config)"`
	Project     string `short:"n" long:"project"     env:"PROJECT_NAME"   description:"Project name (overrides config)"`
	Output      string `short:"o" long:"output"                           description:"Write the project to this JSON file (overrides config)"`
	SaveRedis   bool   `long:"save-redis"                                 description:"Also save the project state to Redis"`
	RedisAddr   string `short:"r" long:"redis"       env:"REDIS_URL"      description:"Redis address (overrides config)"`
	Concurrency int    `short:"j" long:"concurrency"                      description:"Regions collected in parallel" default:"2"`

	Args struct {
		Queries []string `positional-arg-name:"query" description:"Region queries (PNU prefixes)" required:"1"`
	} `positional-args:"yes"`
}

// regionResult is the outcome of one region.
type regionResult struct {
	Query   string
	Outcome pagination.Outcome
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

	opts.Logger.Setup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		log.Error().Err(err).Msg("Fetch failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, opts Options, out io.Writer) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	vworld, err := client.New(cfg.ClientConfig())
	if err != nil {
		return fmt.Errorf("create VWorld client: %w", err)
	}

	preloaded, err := cfg.LoadPreloaded()
	if err != nil {
		return err
	}

	collectorCfg := cfg.CollectorConfig()
	collectorCfg.Preloaded = preloaded
	collectorCfg.Observer = pagination.LogObserver{Logger: logging.NewLogger(logging.ComponentCollector)}
	collector := pagination.NewRetryingCollector(
		pagination.NewCollector(vworld, collectorCfg),
		cfg.RetryConfig(),
	)

	results, err := fetchRegions(ctx, collector, opts.Args.Queries, opts.Concurrency)
	if err != nil {
		return err
	}

	state := project.NewState(projectName(opts, cfg), nil)
	failures := 0
	for _, r := range results {
		printResult(out, r)
		switch r.Outcome.Status {
		case pagination.StatusCollected:
			state.Add(r.Outcome.Collection)
		case pagination.StatusFailed:
			failures++
		}
	}

	total := state.Totals()
	fmt.Fprintf(out, "project %q: %d parcels, perimeter %.1f m, area %.1f m²\n",
		state.Name, len(state.Lands), total.Perimeter, total.Area)

	output := opts.Output
	if output == "" {
		output = cfg.Project.File
	}

	var stores []project.Store
	if output != "" {
		stores = append(stores, project.NewFileStore(output))
	}
	if opts.SaveRedis {
		if cfg.Redis.Addr == "" {
			return errors.New("--save-redis needs a Redis address")
		}
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		stores = append(stores, project.NewRedisStore(rdb, cfg.Project.RedisKey, cfg.Project.Quota))
	}

	for _, store := range stores {
		if err := store.Save(ctx, state); err != nil {
			if errors.Is(err, project.ErrQuotaExceeded) && output == "" {
				return fmt.Errorf("%w (use --output to export the project to a file)", err)
			}
			return fmt.Errorf("save project: %w", err)
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d regions failed", failures, len(results))
	}
	return nil
}

// fetchRegions collects every query with at most concurrency regions in
// flight. Results keep the order of queries.
func fetchRegions(ctx context.Context, collector pagination.RegionCollector, queries []string, concurrency int) ([]regionResult, error) {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]regionResult, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, q := range queries {
		g.Go(func() error {
			results[i] = regionResult{Query: q, Outcome: collector.Collect(gctx, q)}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func projectName(opts Options, cfg *config.Config) string {
	switch {
	case opts.Project != "":
		return opts.Project
	case cfg.Project.Name != "":
		return cfg.Project.Name
	default:
		return "cadastre"
	}
}

func printResult(out io.Writer, r regionResult) {
	o := r.Outcome
	switch o.Status {
	case pagination.StatusCollected:
		src := "vworld"
		if o.Preloaded {
			src = "preloaded"
		}
		total := o.Collection.Totals()
		fmt.Fprintf(out, "%-19s collected %6d parcels in %2d pages (%s), area %.1f m²\n",
			r.Query, o.Collection.Len(), o.Pages, src, total.Area)
	case pagination.StatusEmpty:
		fmt.Fprintf(out, "%-19s empty\n", r.Query)
	default:
		fmt.Fprintf(out, "%-19s failed: %s\n", r.Query, o.Reason)
	}
}

// loadConfig reads the configuration file, falling back to defaults when it
// does not exist, and applies command-line overrides.
func loadConfig(opts Options) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigFile)
	if errors.Is(err, fs.ErrNotExist) {
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
