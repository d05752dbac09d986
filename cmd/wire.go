package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/abhisek/atrisk/internal/app"
	"github.com/abhisek/atrisk/internal/cache"
	"github.com/abhisek/atrisk/internal/classifier"
	"github.com/abhisek/atrisk/internal/coach"
	"github.com/abhisek/atrisk/internal/config"
	"github.com/abhisek/atrisk/internal/encoder"
	"github.com/abhisek/atrisk/internal/features"
	"github.com/abhisek/atrisk/internal/llm"
	"github.com/abhisek/atrisk/internal/predictor"
	"github.com/abhisek/atrisk/internal/store"
)

// buildService assembles the prediction pipeline from cfg: schema,
// reference statistics, encoder, classifier artifacts.
func buildService(cfg *config.Config) (*predictor.Service, error) {
	schema := features.DefaultSchema()
	ref, err := cfg.BuildReference(schema)
	if err != nil {
		return nil, err
	}
	enc, err := encoder.New(schema, ref)
	if err != nil {
		return nil, fmt.Errorf("build encoder: %w", err)
	}
	paths, err := cfg.ArtifactPaths()
	if err != nil {
		return nil, err
	}
	set, err := classifier.Load(enc.Columns(), paths)
	if err != nil {
		return nil, fmt.Errorf("load models: %w", err)
	}
	return predictor.New(predictor.Deps{Schema: schema, Encoder: enc, Classifiers: set})
}

// appEnv holds an App and the resources it owns.
type appEnv struct {
	app   *app.App
	store *store.Store
	cache cache.Cache
}

func (r *appEnv) Close() {
	if r.cache != nil {
		if err := r.cache.Close(); err != nil {
			slog.Warn("close cache", "error", err)
		}
	}
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			slog.Warn("close database", "error", err)
		}
	}
}

// buildApp wires the full application: pipeline, event store, optional
// cache and optional coach. withCoach is false for commands that never ask
// for a note.
func buildApp(ctx context.Context, cmd *cobra.Command, withCoach bool) (*appEnv, error) {
	cfg := settings
	svc, err := buildService(cfg)
	if err != nil {
		return nil, err
	}
	variant, err := cfg.DefaultVariant()
	if err != nil {
		return nil, err
	}

	rt := &appEnv{}
	rt.store, err = openStore(cmd)
	if err != nil {
		return nil, err
	}

	if cfg.Cache.Enabled {
		if cfg.Cache.RedisURL != "" {
			rc := cache.DefaultRedisConfig()
			rc.URL = cfg.Cache.RedisURL
			r, err := cache.NewRedis(rc)
			if err != nil {
				rt.Close()
				return nil, err
			}
			rt.cache = r
		} else {
			rt.cache = cache.NewMemory()
		}
	}

	var c *coach.Coach
	if withCoach && cfg.Coach.LLM.Enabled() {
		provider, err := llm.NewProvider(ctx, cfg.Coach.LLM, rt.store.EventRepo(), slog.Default())
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("create LLM provider: %w", err)
		}
		c = coach.New(provider, svc.Schema(), cfg.Coach.Generation)
	}

	opts := app.Options{
		Service:        svc,
		DefaultVariant: variant,
		Repo:           rt.store.EventRepo(),
		Cache:          rt.cache,
		CacheTTL:       cfg.Cache.TTL,
		Coach:          c,
		Logger:         slog.Default(),
	}
	rt.app, err = app.New(opts)
	if err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

// modelFlag parses --model, falling back to the configured default.
func modelFlag(cmd *cobra.Command) (classifier.Variant, error) {
	name, _ := cmd.Flags().GetString("model")
	if name == "" {
		return settings.DefaultVariant()
	}
	return classifier.ParseVariant(name)
}
