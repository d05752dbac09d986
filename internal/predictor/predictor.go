// Package predictor wires the pipeline: validate, encode, classify, score,
// decide and recommend.
package predictor

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/abhisek/atrisk/internal/classifier"
	"github.com/abhisek/atrisk/internal/decision"
	"github.com/abhisek/atrisk/internal/encoder"
	"github.com/abhisek/atrisk/internal/features"
	"github.com/abhisek/atrisk/internal/heuristic"
	"github.com/abhisek/atrisk/internal/recommend"
)

// Outcome is the full result of one prediction.
type Outcome struct {
	Variant         classifier.Variant         `json:"model"`
	Verdict         decision.Verdict           `json:"verdict"`
	Score           int                        `json:"score"`
	MaxScore        int                        `json:"max_score"`
	Hits            []heuristic.Hit            `json:"hits"`
	Model           classifier.Output          `json:"model_output"`
	Recommendations []recommend.Recommendation `json:"recommendations"`
}

// Service is safe for concurrent use: every collaborator is immutable
// after construction.
type Service struct {
	schema      *features.Schema
	encoder     *encoder.Encoder
	classifiers *classifier.Set
	scorer      *heuristic.Scorer
	engine      *decision.Engine
	recommender *recommend.Generator
}

// Deps are the collaborators of a Service. Scorer, Engine and Recommender
// default to the standard rule sets for Schema when nil.
type Deps struct {
	Schema      *features.Schema
	Encoder     *encoder.Encoder
	Classifiers *classifier.Set
	Scorer      *heuristic.Scorer
	Engine      *decision.Engine
	Recommender *recommend.Generator
}

// New creates a Service.
func New(d Deps) (*Service, error) {
	if d.Schema == nil || d.Encoder == nil || d.Classifiers == nil {
		return nil, fmt.Errorf("predictor: schema, encoder and classifiers are required")
	}
	s := &Service{
		schema:      d.Schema,
		encoder:     d.Encoder,
		classifiers: d.Classifiers,
		scorer:      d.Scorer,
		engine:      d.Engine,
		recommender: d.Recommender,
	}
	var err error
	if s.scorer == nil {
		if s.scorer, err = heuristic.NewScorer(d.Schema); err != nil {
			return nil, err
		}
	}
	if s.engine == nil {
		s.engine = decision.NewEngine()
	}
	if s.recommender == nil {
		if s.recommender, err = recommend.NewGenerator(d.Schema); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// NewDefault builds a Service over the default schema, the default reference
// statistics and the embedded model artifacts.
func NewDefault() (*Service, error) {
	schema := features.DefaultSchema()
	enc, err := encoder.New(schema, encoder.DefaultReference(schema))
	if err != nil {
		return nil, err
	}
	set, err := classifier.Load(enc.Columns(), nil)
	if err != nil {
		return nil, err
	}
	return New(Deps{Schema: schema, Encoder: enc, Classifiers: set})
}

// PredictOutcome runs the whole pipeline for one record. The classifier is
// invoked for every valid record; its failure is returned even when the
// heuristic score alone would have decided.
func (s *Service) PredictOutcome(r features.Record, v classifier.Variant) (*Outcome, error) {
	if err := s.schema.Validate(r); err != nil {
		return nil, err
	}
	vec, err := s.encoder.Encode(r)
	if err != nil {
		return nil, err
	}
	out, err := s.classifiers.Predict(v, vec)
	if err != nil {
		return nil, err
	}
	score := s.scorer.Score(r)
	verdict, err := s.engine.Decide(score, out)
	if err != nil {
		return nil, err
	}
	return &Outcome{
		Variant:         v,
		Verdict:         verdict,
		Score:           score,
		MaxScore:        s.scorer.MaxScore(),
		Hits:            s.scorer.Explain(r),
		Model:           out,
		Recommendations: s.recommender.Generate(r, verdict),
	}, nil
}

// Encode validates and encodes r without classifying it.
func (s *Service) Encode(r features.Record) (encoder.Vector, error) {
	if err := s.schema.Validate(r); err != nil {
		return encoder.Vector{}, err
	}
	return s.encoder.Encode(r)
}

// Explain validates r and returns its heuristic breakdown.
func (s *Service) Explain(r features.Record) (int, []heuristic.Hit, error) {
	if err := s.schema.Validate(r); err != nil {
		return 0, nil, err
	}
	return s.scorer.Score(r), s.scorer.Explain(r), nil
}

func (s *Service) Schema() *features.Schema       { return s.schema }
func (s *Service) Encoder() *encoder.Encoder      { return s.encoder }
func (s *Service) Variants() []classifier.Variant { return s.classifiers.Variants() }
func (s *Service) MaxScore() int                  { return s.scorer.MaxScore() }

// Fingerprint identifies everything that shapes a model outcome for v: the
// classifier artifact and the encoder's columns and reference statistics.
// Outcomes may only be reused between services with equal fingerprints.
func (s *Service) Fingerprint(v classifier.Variant) (string, error) {
	model, err := s.classifiers.Fingerprint(v)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(model)
	b.WriteByte(0)
	b.WriteString(strings.Join(s.encoder.Columns(), ","))
	stats := s.encoder.Reference().Stats()
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		st := stats[name]
		fmt.Fprintf(&b, "\x00%s=%g/%g", name, st.Mean, st.Std)
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:]), nil
}
