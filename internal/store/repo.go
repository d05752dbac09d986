package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To

	// Prediction filters; empty means any.
	Outcome string
	Model   string
	// LLM filter; empty means any.
	Purpose string
}

// PredictionEventData captures one completed prediction.
type PredictionEventData struct {
	RequestID       string
	Source          string // cli, batch, http
	Model           string
	Outcome         string
	Provenance      string
	Label           string
	Probability     *float64
	Score           int
	Recommendations []string // recommendation codes in priority order
	Input           string   // JSON of the validated record
	Cached          bool
	Latency         time.Duration
}

// PredictionRecord is a stored prediction event. Sequence is its public ID.
type PredictionRecord struct {
	PredictionEventData
	Sequence  int64
	Timestamp time.Time
}

// PredictionStats aggregates the prediction log.
type PredictionStats struct {
	Total        int
	ByOutcome    map[string]int
	ByProvenance map[string]int
	ByModel      map[string]int
	AvgScore     float64
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEventRecord is a stored LLM request event.
type LLMEventRecord struct {
	LLMRequestEventData
	Sequence  int64
	Timestamp time.Time
}

// LLMUsage is aggregated token usage for one purpose.
type LLMUsage struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// EventRepo provides append and query access to domain events.
type EventRepo interface {
	AppendPrediction(ctx context.Context, data PredictionEventData) (int64, error)
	QueryPredictions(ctx context.Context, opts QueryOpts) ([]PredictionRecord, error)
	// GetPrediction returns nil, nil when no event has the sequence.
	GetPrediction(ctx context.Context, sequence int64) (*PredictionRecord, error)
	PredictionStats(ctx context.Context, opts QueryOpts) (*PredictionStats, error)
	// PurgePredictions deletes events at or before the given time (zero
	// time deletes everything) and returns the number removed.
	PurgePredictions(ctx context.Context, before time.Time) (int64, error)

	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEventRecord, error)
	GetLLMEvent(ctx context.Context, sequence int64) (*LLMEventRecord, error)
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error)
}
