package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"firetype/chart"
	"firetype/inference"
	"firetype/ml"
)

// Predictor is the part of the inference adapter the handlers use.
type Predictor interface {
	Predict(ctx context.Context, features ml.FeatureVector) (inference.Result, error)
	SupportsConfidence() bool
	ModelKind() string
	NumFeatures() int
}

const confidenceUnavailable = "Confidence score not available for this model."

func (s *Server) registerRoutes(mux *http.ServeMux) {
	route := func(pattern, name string, handler http.HandlerFunc) {
		mux.Handle(pattern, s.metrics.WrapHandler(name, handler))
	}
	route("GET /{$}", "index", s.handleIndex)
	route("POST /predict", "predict_form", s.handlePredictForm)
	route("POST /api/predict", "predict_api", s.handlePredictAPI)
	route("GET /api/chart", "chart", s.handleChart)
	route("GET /api/health", "health", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	if s.hub != nil {
		mux.Handle("GET /dev/reload", s.hub)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := s.newPage(ml.DefaultFeatureVector())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	s.renderPage(w, r, http.StatusOK, page)
}

func (s *Server) handlePredictForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}
	input, parseErr := parseFeatureForm(r.PostForm)

	page, err := s.newPage(input)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if parseErr != nil {
		page.Error = parseErr.Error()
		s.renderPage(w, r, http.StatusBadRequest, page)
		return
	}

	result, err := s.predictor.Predict(r.Context(), input)
	if err != nil {
		s.logPredictionError(r, err)
		page.Error = "Prediction failed. Check the server log for details."
		s.renderPage(w, r, predictionStatus(err), page)
		return
	}
	page.Result = &resultView{FireType: result.FireType}
	if result.Confidence != nil {
		page.Result.Confidence = s.percent.Format(*result.Confidence)
	}
	s.renderPage(w, r, http.StatusOK, page)
}

type predictRequest struct {
	Brightness *float64 `json:"brightness"`
	BrightT31  *float64 `json:"bright_t31"`
	FRP        *float64 `json:"frp"`
	Scan       *float64 `json:"scan"`
	Track      *float64 `json:"track"`
	Confidence *string  `json:"confidence"`
}

type predictResponse struct {
	Label      int      `json:"label"`
	FireType   string   `json:"fire_type"`
	Confidence *float64 `json:"confidence"`
	// Message is the line the page shows under the prediction.
	Message string `json:"message"`
}

func (s *Server) handlePredictAPI(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body: "+err.Error())
		return
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		writeError(w, http.StatusBadRequest, "invalid json body: trailing data after object")
		return
	}
	input, err := req.features()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.predictor.Predict(r.Context(), input)
	if err != nil {
		s.logPredictionError(r, err)
		writeError(w, predictionStatus(err), "prediction failed")
		return
	}
	response := predictResponse{
		Label:      result.Label,
		FireType:   result.FireType,
		Confidence: result.Confidence,
		Message:    confidenceUnavailable,
	}
	if result.Confidence != nil {
		response.Message = "Prediction Confidence: " + s.percent.Format(*result.Confidence)
	}
	writeJSON(w, http.StatusOK, response)
}

func (req predictRequest) features() (ml.FeatureVector, error) {
	var input ml.FeatureVector
	fields := []struct {
		name  string
		value *float64
		dst   *float64
	}{
		{"brightness", req.Brightness, &input.Brightness},
		{"bright_t31", req.BrightT31, &input.BrightT31},
		{"frp", req.FRP, &input.FRP},
		{"scan", req.Scan, &input.Scan},
		{"track", req.Track, &input.Track},
	}
	for _, f := range fields {
		if f.value == nil {
			return input, fmt.Errorf("%s is required", f.name)
		}
		*f.dst = *f.value
	}
	if req.Confidence == nil {
		return input, errors.New("confidence is required")
	}
	level, err := ml.ParseConfidenceLevel(*req.Confidence)
	if err != nil {
		return input, fmt.Errorf("confidence must be one of %s", strings.Join(ml.ConfidenceLevelNames(), ", "))
	}
	input.Confidence = level
	return input, nil
}

// parseFeatureForm reads the six form fields over the defaults. On error the
// returned vector still holds every field that parsed, for re-rendering.
func parseFeatureForm(values url.Values) (ml.FeatureVector, error) {
	input := ml.DefaultFeatureVector()
	var firstErr error
	fields := []struct {
		name string
		dst  *float64
	}{
		{"brightness", &input.Brightness},
		{"bright_t31", &input.BrightT31},
		{"frp", &input.FRP},
		{"scan", &input.Scan},
		{"track", &input.Track},
	}
	for _, f := range fields {
		v, err := parseFinite(f.name, values.Get(f.name))
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		*f.dst = v
	}
	level, err := ml.ParseConfidenceLevel(values.Get("confidence"))
	if err != nil {
		if firstErr == nil {
			firstErr = fmt.Errorf("confidence must be one of %s", strings.Join(ml.ConfidenceLevelNames(), ", "))
		}
	} else {
		input.Confidence = level
	}
	return input, firstErr
}

func parseFinite(name, raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s must be a finite number", name)
	}
	return v, nil
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	input := ml.DefaultFeatureVector()
	query := r.URL.Query()
	fields := []struct {
		name string
		dst  *float64
	}{
		{"brightness", &input.Brightness},
		{"bright_t31", &input.BrightT31},
		{"frp", &input.FRP},
	}
	for _, f := range fields {
		if !query.Has(f.name) {
			continue
		}
		v, err := parseFinite(f.name, query.Get(f.name))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		*f.dst = v
	}
	writeJSON(w, http.StatusOK, chart.Scatter3D(input))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":               "ok",
		"model_kind":           s.predictor.ModelKind(),
		"features":             s.predictor.NumFeatures(),
		"confidence_supported": s.predictor.SupportsConfidence(),
	})
}

func predictionStatus(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (s *Server) logPredictionError(r *http.Request, err error) {
	s.logger.Error("prediction failed",
		zap.String("request_id", GetRequestID(r.Context())),
		zap.Error(err))
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, page pageData) {
	if err := s.renderer.render(w, status, "index.html", page); err != nil {
		s.internalError(w, r, err)
	}
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("request failed",
		zap.String("request_id", GetRequestID(r.Context())),
		zap.String("path", r.URL.Path),
		zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
