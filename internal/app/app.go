// Package app is the prediction runtime shared by the CLI and the HTTP
// server. It adds request IDs, caching, event recording and the optional
// coaching note around predictor.Service.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/atrisk/internal/cache"
	"github.com/abhisek/atrisk/internal/classifier"
	"github.com/abhisek/atrisk/internal/coach"
	"github.com/abhisek/atrisk/internal/features"
	"github.com/abhisek/atrisk/internal/predictor"
	"github.com/abhisek/atrisk/internal/store"
)

// Sources label where a prediction request came from.
const (
	SourceCLI   = "cli"
	SourceBatch = "batch"
	SourceHTTP  = "http"
)

// Options are the collaborators of an App. Only Service is required.
type Options struct {
	Service        *predictor.Service
	DefaultVariant classifier.Variant
	Repo           store.EventRepo
	Cache          cache.Cache
	CacheTTL       time.Duration
	Coach          *coach.Coach
	Logger         *slog.Logger
}

// App runs predictions. It is safe for concurrent use.
type App struct {
	svc     *predictor.Service
	variant classifier.Variant
	repo    store.EventRepo
	cache   cache.Cache
	ttl     time.Duration
	coach   *coach.Coach
	logger  *slog.Logger
	now     func() time.Time
}

// New creates an App.
func New(opts Options) (*App, error) {
	if opts.Service == nil {
		return nil, fmt.Errorf("app: predictor service is required")
	}
	if opts.DefaultVariant == "" {
		opts.DefaultVariant = classifier.VariantForest
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &App{
		svc:     opts.Service,
		variant: opts.DefaultVariant,
		repo:    opts.Repo,
		cache:   opts.Cache,
		ttl:     opts.CacheTTL,
		coach:   opts.Coach,
		logger:  opts.Logger,
		now:     time.Now,
	}, nil
}

// Request is one prediction request. A zero Variant selects the default.
type Request struct {
	Record  features.Record
	Variant classifier.Variant
	Source  string
	// Coach requests a coaching note when a coach is configured.
	Coach bool
}

// Result is the outcome of a Request.
type Result struct {
	RequestID string             `json:"request_id"`
	EventID   int64              `json:"event_id,omitempty"`
	Outcome   *predictor.Outcome `json:"outcome"`
	Cached    bool               `json:"cached"`
	Note      *coach.Note        `json:"coaching_note,omitempty"`
	NoteError string             `json:"coaching_error,omitempty"`
}

// Service returns the underlying predictor.
func (a *App) Service() *predictor.Service { return a.svc }

// DefaultVariant returns the model used when a request names none.
func (a *App) DefaultVariant() classifier.Variant { return a.variant }

// CoachEnabled reports whether coaching notes can be produced.
func (a *App) CoachEnabled() bool { return a.coach != nil }

// Predict runs one request. Cache, store and coach failures are logged and
// never fail the prediction.
func (a *App) Predict(ctx context.Context, req Request) (*Result, error) {
	start := a.now()
	res := &Result{RequestID: uuid.NewString()}
	log := a.logger.With("request_id", res.RequestID)

	v := req.Variant
	if v == "" {
		v = a.variant
	}

	schema := a.svc.Schema()
	if err := schema.Validate(req.Record); err != nil {
		log.Debug("prediction rejected", "error", err)
		return nil, err
	}

	fp, err := a.svc.Fingerprint(v)
	if err != nil {
		log.Warn("prediction failed", "model", v, "error", err)
		return nil, err
	}
	key := cache.PredictionKey(string(v), fp, req.Record.Canonical(schema))
	if out := a.cacheGet(ctx, key, log); out != nil {
		res.Outcome, res.Cached = out, true
	} else {
		out, err := a.svc.PredictOutcome(req.Record, v)
		if err != nil {
			log.Warn("prediction failed", "model", v, "error", err)
			return nil, err
		}
		res.Outcome = out
		a.cachePut(ctx, key, out, log)
	}

	if req.Coach && a.coach != nil {
		note, err := a.coach.Note(ctx, req.Record, res.Outcome)
		if err != nil {
			log.Warn("coaching note failed", "error", err)
			res.NoteError = err.Error()
		} else {
			res.Note = note
		}
	}

	res.EventID = a.record(ctx, req, res, a.now().Sub(start), log)

	log.Info("prediction",
		"model", v,
		"outcome", res.Outcome.Verdict.Outcome,
		"provenance", res.Outcome.Verdict.Provenance,
		"score", res.Outcome.Score,
		"cached", res.Cached)
	return res, nil
}

func (a *App) cacheGet(ctx context.Context, key string, log *slog.Logger) *predictor.Outcome {
	if a.cache == nil {
		return nil
	}
	data, err := a.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			log.Warn("cache read failed", "error", err)
		}
		return nil
	}
	var out predictor.Outcome
	if err := json.Unmarshal(data, &out); err != nil {
		log.Warn("discarding unreadable cache entry", "error", err)
		return nil
	}
	return &out
}

func (a *App) cachePut(ctx context.Context, key string, out *predictor.Outcome, log *slog.Logger) {
	if a.cache == nil {
		return
	}
	data, err := json.Marshal(out)
	if err != nil {
		log.Warn("cache encode failed", "error", err)
		return
	}
	if err := a.cache.Set(ctx, key, data, a.ttl); err != nil {
		log.Warn("cache write failed", "error", err)
	}
}

func (a *App) record(ctx context.Context, req Request, res *Result, latency time.Duration, log *slog.Logger) int64 {
	if a.repo == nil {
		return 0
	}
	input, err := json.Marshal(req.Record)
	if err != nil {
		log.Warn("encode prediction input failed", "error", err)
	}
	codes := make([]string, len(res.Outcome.Recommendations))
	for i, r := range res.Outcome.Recommendations {
		codes[i] = string(r.Code)
	}
	source := req.Source
	if source == "" {
		source = SourceCLI
	}
	id, err := a.repo.AppendPrediction(ctx, store.PredictionEventData{
		RequestID:       res.RequestID,
		Source:          source,
		Model:           string(res.Outcome.Variant),
		Outcome:         string(res.Outcome.Verdict.Outcome),
		Provenance:      string(res.Outcome.Verdict.Provenance),
		Label:           string(res.Outcome.Model.Label),
		Probability:     res.Outcome.Verdict.Probability,
		Score:           res.Outcome.Score,
		Recommendations: codes,
		Input:           string(input),
		Cached:          res.Cached,
		Latency:         latency,
	})
	if err != nil {
		log.Warn("failed to record prediction event", "error", err)
		return 0
	}
	return id
}
