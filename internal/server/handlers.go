package server

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/rshade/klimatmodell/internal/climate"
	"github.com/rshade/klimatmodell/internal/metrics"
)

// TimberResponse is the body of GET /v1/timber.
type TimberResponse struct {
	StructuralSystem climate.StructuralSystem `json:"structural_system"`
	TimberTonPerM2   float64                  `json:"timber_ton_per_m2"`
}

// TablesResponse is the body of GET /v1/tables/{boundary}.
type TablesResponse struct {
	Version       string                 `json:"version"`
	Boundary      climate.SystemBoundary `json:"system_boundary"`
	MedianKgPerM2 float64                `json:"median_kg_per_m2"`
	Shares        []climate.ShareEntry   `json:"shares"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status        string `json:"status"`
	TablesVersion string `json:"tables_version"`
}

func (s *Server) handleEmissions(w http.ResponseWriter, r *http.Request) {
	var doc climate.ParameterDocument
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		s.writeError(w, r, http.StatusBadRequest, errorBody{Code: codeMalformedRequest, Message: err.Error()})
		return
	}

	params, err := doc.BuildingParameters()
	if err != nil {
		metrics.RecordCalculation(params.SystemBoundary, 0, err)
		s.writeCalculationError(w, r, err)
		return
	}

	assessment, err := s.calc.Assess(params)
	metrics.RecordCalculation(params.SystemBoundary, assessment.Emissions.TotalKgPerM2, err)
	if err != nil {
		s.writeCalculationError(w, r, err)
		return
	}

	zerolog.Ctx(r.Context()).Debug().
		Str("boundary", string(params.SystemBoundary)).
		Float64("total_kg_per_m2", assessment.Emissions.TotalKgPerM2).
		Int("notes", len(assessment.Notes)).
		Msg("assessment computed")

	s.writeJSON(w, r, http.StatusOK, assessment)
}

func (s *Server) handleTimber(w http.ResponseWriter, r *http.Request) {
	system, err := climate.ParseStructuralSystem(r.URL.Query().Get("structural_system"))
	if err != nil {
		s.writeCalculationError(w, r, err)
		return
	}

	ton, err := s.calc.EstimateTimber(system)
	if err != nil {
		s.writeCalculationError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, TimberResponse{StructuralSystem: system, TimberTonPerM2: ton})
}

func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	boundary, err := climate.ParseSystemBoundary(r.PathValue("boundary"))
	if err != nil {
		s.writeCalculationError(w, r, err)
		return
	}

	tables := s.calc.Tables()
	shares, err := tables.Shares(boundary)
	if err != nil {
		s.writeCalculationError(w, r, err)
		return
	}
	median, err := tables.MedianKgPerM2(boundary)
	if err != nil {
		s.writeCalculationError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, TablesResponse{
		Version:       tables.Version(),
		Boundary:      boundary,
		MedianKgPerM2: median,
		Shares:        shares,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, HealthResponse{
		Status:        "ok",
		TablesVersion: s.calc.Tables().Version(),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to write response")
	}
}

// writeCalculationError maps calculator errors to 400 responses. Anything
// else is reported as an internal error without details.
func (s *Server) writeCalculationError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		paramErr *climate.ParameterError
		enumErr  *climate.EnumError
	)
	switch {
	case errors.As(err, &paramErr):
		s.writeError(w, r, http.StatusBadRequest, errorBody{
			Code:    codeInvalidParameter,
			Message: err.Error(),
			Field:   paramErr.Field,
		})
	case errors.Is(err, climate.ErrUnknownBoundary):
		s.writeError(w, r, http.StatusBadRequest, errorBody{Code: codeUnknownBoundary, Message: err.Error()})
	case errors.As(err, &enumErr):
		s.writeError(w, r, http.StatusBadRequest, errorBody{
			Code:    codeUnknownEnumValue,
			Message: err.Error(),
			Field:   enumErr.Kind,
		})
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("calculation failed")
		s.writeError(w, r, http.StatusInternalServerError, errorBody{Code: codeInternal, Message: "internal error"})
	}
}
