package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/mind-engage/mindengage-grades/internal/cache"
	"github.com/mind-engage/mindengage-grades/internal/canvas"
	"github.com/mind-engage/mindengage-grades/internal/config"
	"github.com/mind-engage/mindengage-grades/internal/gradebook"
	"github.com/mind-engage/mindengage-grades/internal/grading"
)

// commonFlags are shared by grades, week and serve.
type commonFlags struct {
	configPath       string
	baseURL          string
	token            string
	includeCompleted bool
	excludeIDs       string
	excludeNames     []string
	concurrency      int
	noCache          bool
}

func (c *commonFlags) register(cmd *flag.FlagSet) {
	cmd.StringVar(&c.configPath, "config", "", "Path to YAML/JSON config file (default ./config.yaml when present)")
	cmd.StringVar(&c.baseURL, "base-url", "", "Canvas base URL, e.g. https://school.instructure.com")
	cmd.StringVar(&c.token, "token", "", "Canvas API token")
	cmd.BoolVar(&c.includeCompleted, "include-completed", false, "Include completed courses")
	cmd.StringVar(&c.excludeIDs, "exclude-course-ids", "", "Comma-separated course ids to exclude")
	cmd.Func("exclude-name-contains", "Exclude courses whose name contains this text (repeatable)", func(s string) error {
		c.excludeNames = append(c.excludeNames, s)
		return nil
	})
	cmd.IntVar(&c.concurrency, "concurrency", 0, "Courses processed in parallel (default GRADECALC_CONCURRENCY or 4)")
	cmd.BoolVar(&c.noCache, "no-cache", false, "Bypass the response cache")
}

// overrideFlags are the run-wide weight and policy overrides.
type overrideFlags struct {
	weights     string
	weightsFile string
	policy      string
}

func (o *overrideFlags) register(cmd *flag.FlagSet) {
	cmd.StringVar(&o.weights, "weights", "", `JSON mapping of group name to weight, e.g. '{"Homework":40,"Exams":60}'`)
	cmd.StringVar(&o.weightsFile, "weights-file", "", "YAML or JSON file with a weights mapping")
	cmd.StringVar(&o.policy, "final-policy", "", "ignore_all | missing_zero_upcoming_ignore | all_zero")
}

func (o overrideFlags) resolve() (gradebook.Overrides, error) {
	var out gradebook.Overrides
	if o.weights != "" && o.weightsFile != "" {
		return out, usagef("provide only one of --weights or --weights-file")
	}
	var err error
	switch {
	case o.weights != "":
		out.Weights, err = config.ParseWeightsJSON(o.weights)
	case o.weightsFile != "":
		out.Weights, err = config.LoadWeightsFile(o.weightsFile)
	}
	if err != nil {
		return out, err
	}
	if o.policy != "" {
		p, err := grading.ParsePolicy(grading.SourceCLI, o.policy)
		if err != nil {
			return out, err
		}
		out.Policy = string(p)
	}
	return out, nil
}

// app is everything a command needs once flags are parsed.
type app struct {
	env    config.Config
	file   *config.File
	log    *slog.Logger
	client *canvas.Client
	store  cache.Store
	excl   gradebook.Exclusions
}

func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// setup loads .env, the environment and the config file, then builds the
// Canvas client with its optional response cache.
func setup(ctx context.Context, cf commonFlags, stderr io.Writer) (*app, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	env := config.FromEnv()
	log := newLogger(env, stderr)
	slog.SetDefault(log)

	file, err := config.Load(config.Discover(firstSet(cf.configPath, env.ConfigPath)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, usagef("%v", err)
	}
	if err != nil {
		return nil, err
	}

	base, token := config.Credentials(cf.baseURL, cf.token, file, env)
	if base == "" || token == "" {
		return nil, usagef("missing Canvas base_url or token; provide --base-url/--token, set them under 'canvas' in the config file, or set CANVAS_BASE_URL/CANVAS_TOKEN")
	}

	ids := append([]int64(nil), file.Exclusions.IDs...)
	if cf.excludeIDs != "" {
		more, err := config.ParseIDList(cf.excludeIDs)
		if err != nil {
			return nil, usagef("--exclude-course-ids: %v", err)
		}
		ids = append(ids, more...)
	}
	names := append(append([]string(nil), file.Exclusions.NameContains...), cf.excludeNames...)

	a := &app{env: env, file: file, log: log, excl: gradebook.NewExclusions(ids, names)}

	if !cf.noCache {
		driver := firstSet(file.Cache.Driver, env.CacheDriver)
		a.store, err = cache.Open(ctx, driver, firstSet(file.Cache.DSN, env.CacheDSN))
		if err != nil {
			return nil, err
		}
		if a.store != nil {
			log.Debug("response cache enabled", "driver", driver)
		}
	}

	ccfg := canvas.Config{
		BaseURL:    base,
		Token:      token,
		Timeout:    env.HTTPTimeout,
		RetryCount: env.RetryCount,
		RateLimit:  env.RateLimit,
		CacheTTL:   file.CacheTTL(env.CacheTTL),
		Logger:     log,
	}
	if a.store != nil {
		ccfg.Cache = a.store
	}
	a.client, err = canvas.New(ccfg)
	if err != nil {
		a.Close()
		return nil, usagef("%v", err)
	}
	return a, nil
}

func (a *app) runner(cf commonFlags, over gradebook.Overrides) *gradebook.Runner {
	n := cf.concurrency
	if n <= 0 {
		n = a.env.Concurrency
	}
	return gradebook.NewRunner(a.client, nil,
		gradebook.WithSettings(a.file),
		gradebook.WithOverrides(over),
		gradebook.WithExclusions(a.excl),
		gradebook.WithConcurrency(n),
		gradebook.WithLogger(a.log),
	)
}

func (a *app) Close() {
	if a.store != nil {
		_ = a.store.Close()
	}
}

func firstSet(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
