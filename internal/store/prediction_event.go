package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// eventRepo implements EventRepo with ent's SQL builders over database/sql.
type eventRepo struct {
	db      *sql.DB
	dialect string
	seq     *sequenceCounter
}

var predictionColumns = []string{
	"sequence", "timestamp", "request_id", "source", "model", "outcome",
	"provenance", "label", "probability", "score", "recommendations",
	"input", "cached", "latency_us",
}

func (r *eventRepo) AppendPrediction(ctx context.Context, data PredictionEventData) (int64, error) {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}

	var prob any
	if data.Probability != nil {
		prob = *data.Probability
	}

	q, args := entsql.Dialect(r.dialect).
		Insert(predictionEventsTable.Name).
		Columns(predictionColumns...).
		Values(
			seqNum, time.Now().UTC(), data.RequestID, data.Source, data.Model,
			data.Outcome, data.Provenance, data.Label, prob, data.Score,
			strings.Join(data.Recommendations, ","), data.Input, data.Cached,
			data.Latency.Microseconds(),
		).
		Query()
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return 0, fmt.Errorf("save prediction event: %w", err)
	}
	return seqNum, nil
}

func (r *eventRepo) QueryPredictions(ctx context.Context, opts QueryOpts) ([]PredictionRecord, error) {
	b := entsql.Dialect(r.dialect)
	sel := b.Select(predictionColumns...).
		From(b.Table(predictionEventsTable.Name)).
		OrderBy(entsql.Desc("sequence"))
	applyOpts(sel, opts)
	if opts.Outcome != "" {
		sel.Where(entsql.EQ("outcome", opts.Outcome))
	}
	if opts.Model != "" {
		sel.Where(entsql.EQ("model", opts.Model))
	}

	q, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query prediction events: %w", err)
	}
	defer rows.Close()

	var records []PredictionRecord
	for rows.Next() {
		rec, err := scanPrediction(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query prediction events: %w", err)
	}
	return records, nil
}

func (r *eventRepo) GetPrediction(ctx context.Context, sequence int64) (*PredictionRecord, error) {
	b := entsql.Dialect(r.dialect)
	q, args := b.Select(predictionColumns...).
		From(b.Table(predictionEventsTable.Name)).
		Where(entsql.EQ("sequence", sequence)).
		Query()

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("get prediction event: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanPrediction(rows)
}

func (r *eventRepo) PredictionStats(ctx context.Context, opts QueryOpts) (*PredictionStats, error) {
	stats := &PredictionStats{
		ByOutcome:    make(map[string]int),
		ByProvenance: make(map[string]int),
		ByModel:      make(map[string]int),
	}

	groups := []struct {
		column string
		into   map[string]int
	}{
		{"outcome", stats.ByOutcome},
		{"provenance", stats.ByProvenance},
		{"model", stats.ByModel},
	}
	for _, g := range groups {
		b := entsql.Dialect(r.dialect)
		sel := b.Select(g.column, entsql.Count("*")).
			From(b.Table(predictionEventsTable.Name)).
			GroupBy(g.column)
		applyTimeRange(sel, opts)

		q, args := sel.Query()
		if err := r.scanCounts(ctx, q, args, g.into); err != nil {
			return nil, fmt.Errorf("count by %s: %w", g.column, err)
		}
	}

	b := entsql.Dialect(r.dialect)
	sel := b.Select(entsql.Count("*"), entsql.Avg("score")).
		From(b.Table(predictionEventsTable.Name))
	applyTimeRange(sel, opts)
	q, args := sel.Query()

	var avg sql.NullFloat64
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&stats.Total, &avg); err != nil {
		return nil, fmt.Errorf("aggregate predictions: %w", err)
	}
	stats.AvgScore = avg.Float64
	return stats, nil
}

func (r *eventRepo) scanCounts(ctx context.Context, q string, args []any, into map[string]int) error {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		into[key] = n
	}
	return rows.Err()
}

func (r *eventRepo) PurgePredictions(ctx context.Context, before time.Time) (int64, error) {
	del := entsql.Dialect(r.dialect).Delete(predictionEventsTable.Name)
	if !before.IsZero() {
		del = del.Where(entsql.LTE("timestamp", before.UTC()))
	}
	q, args := del.Query()
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, fmt.Errorf("purge prediction events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge prediction events: %w", err)
	}
	return n, nil
}

func scanPrediction(rows *sql.Rows) (*PredictionRecord, error) {
	var (
		rec       PredictionRecord
		prob      sql.NullFloat64
		recs      string
		latencyUS int64
	)
	err := rows.Scan(
		&rec.Sequence, &rec.Timestamp, &rec.RequestID, &rec.Source, &rec.Model,
		&rec.Outcome, &rec.Provenance, &rec.Label, &prob, &rec.Score,
		&recs, &rec.Input, &rec.Cached, &latencyUS,
	)
	if err != nil {
		return nil, fmt.Errorf("scan prediction event: %w", err)
	}
	if prob.Valid {
		p := prob.Float64
		rec.Probability = &p
	}
	if recs != "" {
		rec.Recommendations = strings.Split(recs, ",")
	}
	rec.Latency = time.Duration(latencyUS) * time.Microsecond
	return &rec, nil
}

// applyOpts adds sequence, time and limit filters shared by event queries.
func applyOpts(sel *entsql.Selector, opts QueryOpts) {
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}
	if opts.After > 0 {
		sel.Where(entsql.GT("sequence", opts.After))
	}
	if opts.Before > 0 {
		sel.Where(entsql.LT("sequence", opts.Before))
	}
	applyTimeRange(sel, opts)
}

func applyTimeRange(sel *entsql.Selector, opts QueryOpts) {
	if !opts.From.IsZero() {
		sel.Where(entsql.GTE("timestamp", opts.From.UTC()))
	}
	if !opts.To.IsZero() {
		sel.Where(entsql.LTE("timestamp", opts.To.UTC()))
	}
}
