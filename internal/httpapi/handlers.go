package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/atrisk/internal/app"
	"github.com/abhisek/atrisk/internal/classifier"
	"github.com/abhisek/atrisk/internal/features"
	"github.com/abhisek/atrisk/internal/predictor"
)

// PredictRequest is the body of POST /v1/predict.
type PredictRequest struct {
	Model  string         `json:"model"`
	Coach  bool           `json:"coach"`
	Record map[string]any `json:"record" binding:"required"`
}

// BatchRequest is the body of POST /v1/predict/batch.
type BatchRequest struct {
	Model   string           `json:"model"`
	Records []map[string]any `json:"records" binding:"required,min=1"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Kind    string   `json:"kind"`
	Message string   `json:"message"`
	Field   string   `json:"field,omitempty"`
	Fields  []string `json:"fields,omitempty"`
}

// ErrorResponse wraps ErrorBody.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// BatchItem is one entry of a batch response.
type BatchItem struct {
	Index  int         `json:"index"`
	Result *app.Result `json:"result,omitempty"`
	Error  *ErrorBody  `json:"error,omitempty"`
}

// errorStatus maps pipeline errors onto HTTP statuses: invalid values 422,
// missing or unknown fields 400, classifier failures 503.
func errorStatus(err error) (int, ErrorBody) {
	var ve *features.ValidationError
	var sm *features.SchemaMismatchError
	var ue *classifier.UnavailableError
	switch {
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity, ErrorBody{Kind: "validation", Message: err.Error(), Field: ve.Field}
	case errors.As(err, &sm):
		return http.StatusBadRequest, ErrorBody{Kind: "schema_mismatch", Message: err.Error(), Fields: sm.Fields}
	case errors.As(err, &ue):
		return http.StatusServiceUnavailable, ErrorBody{Kind: "classifier_unavailable", Message: err.Error()}
	}
	return http.StatusInternalServerError, ErrorBody{Kind: "internal", Message: "internal error"}
}

func (s *Server) fail(c *gin.Context, err error) {
	status, body := errorStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, ErrorResponse{Error: body})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: ErrorBody{Kind: "bad_request", Message: msg}})
}

// parseRecord rejects fields the schema does not define before parsing.
func parseRecord(schema *features.Schema, raw map[string]any) (features.Record, error) {
	if unknown := schema.UnknownFields(raw); len(unknown) > 0 {
		return features.Record{}, &unknownFieldsError{fields: unknown}
	}
	return schema.ParseRecord(raw)
}

type unknownFieldsError struct{ fields []string }

func (e *unknownFieldsError) Error() string {
	return fmt.Sprintf("unknown fields: %v", e.fields)
}

// variant resolves the requested model, case-insensitively. An empty name
// selects the default.
func (s *Server) variant(name string) (classifier.Variant, error) {
	if name == "" {
		return s.app.DefaultVariant(), nil
	}
	return classifier.ParseVariant(name)
}

func (s *Server) predict(c *gin.Context) {
	var req PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	v, err := s.variant(req.Model)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	rec, err := parseRecord(s.app.Service().Schema(), req.Record)
	var uf *unknownFieldsError
	if errors.As(err, &uf) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: ErrorBody{Kind: "unknown_fields", Message: err.Error(), Fields: uf.fields}})
		return
	}
	if err != nil {
		s.fail(c, err)
		return
	}

	res, err := s.app.Predict(c.Request.Context(), app.Request{
		Record:  rec,
		Variant: v,
		Source:  app.SourceHTTP,
		Coach:   req.Coach,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) predictBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if len(req.Records) > s.config.MaxBatch {
		badRequest(c, fmt.Sprintf("batch of %d records exceeds limit of %d", len(req.Records), s.config.MaxBatch))
		return
	}

	v, err := s.variant(req.Model)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	schema := s.app.Service().Schema()
	items := make([]BatchItem, len(req.Records))
	var reqs []app.Request
	var positions []int
	for i, raw := range req.Records {
		items[i].Index = i
		rec, err := parseRecord(schema, raw)
		if err != nil {
			_, body := errorStatus(err)
			var uf *unknownFieldsError
			if errors.As(err, &uf) {
				body = ErrorBody{Kind: "unknown_fields", Message: err.Error(), Fields: uf.fields}
			}
			items[i].Error = &body
			continue
		}
		reqs = append(reqs, app.Request{Record: rec, Variant: v, Source: app.SourceHTTP})
		positions = append(positions, i)
	}

	results, err := s.app.PredictBatch(c.Request.Context(), reqs, s.config.Workers)
	if err != nil {
		s.fail(c, err)
		return
	}
	for j, r := range results {
		i := positions[j]
		if r.Err != nil {
			_, body := errorStatus(r.Err)
			items[i].Error = &body
			continue
		}
		items[i].Result = r.Result
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (s *Server) schema(c *gin.Context) {
	c.JSON(http.StatusOK, DescribeSchema(s.app.Service()))
}

func (s *Server) models(c *gin.Context) {
	var models []gin.H
	for _, v := range s.app.Service().Variants() {
		models = append(models, gin.H{"id": v, "name": v.DisplayName()})
	}
	c.JSON(http.StatusOK, gin.H{"default": s.app.DefaultVariant(), "models": models})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "atrisk"})
}

// SchemaView describes the feature schema and encoded columns.
type SchemaView struct {
	Numeric     []NumericView     `json:"numeric"`
	Categorical []CategoricalView `json:"categorical"`
	Columns     []string          `json:"columns"`
	MaxScore    int               `json:"max_score"`
}

// NumericView describes one numeric field.
type NumericView struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Min         int     `json:"min"`
	Max         int     `json:"max"`
	Mean        float64 `json:"mean"`
	Std         float64 `json:"std"`
}

// CategoricalView describes one categorical field.
type CategoricalView struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Categories  []string `json:"categories"`
}

// DescribeSchema builds a SchemaView for svc.
func DescribeSchema(svc *predictor.Service) SchemaView {
	ref := svc.Encoder().Reference()
	var v SchemaView
	for _, f := range svc.Schema().NumericFields() {
		st, _ := ref.Stat(f.Name)
		v.Numeric = append(v.Numeric, NumericView{
			Name: f.Name, Description: f.Description,
			Min: f.Min, Max: f.Max,
			Mean: st.Mean, Std: st.Std,
		})
	}
	for _, f := range svc.Schema().CategoricalFields() {
		v.Categorical = append(v.Categorical, CategoricalView{
			Name: f.Name, Description: f.Description, Categories: f.Categories,
		})
	}
	v.Columns = svc.Encoder().Columns()
	v.MaxScore = svc.MaxScore()
	return v
}
