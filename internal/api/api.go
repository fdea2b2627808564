/*
 * Package api exposes the pitch estimator and fretboard resolvers over
 * HTTP/JSON.
 */
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/metalblueberry/fretscribe/internal/config"
	"github.com/metalblueberry/fretscribe/internal/observe"
	"github.com/metalblueberry/fretscribe/pkg/fretboard"
	"github.com/metalblueberry/fretscribe/pkg/pitch"
	"github.com/metalblueberry/fretscribe/pkg/tuning"
)

/*
 * maxBodyBytes bounds request bodies; a 4096 sample frame encodes well below.
 */
const maxBodyBytes = 4 << 20

/*
 * engine pairs the resolver and estimator of one tuning, so that the open
 * string confidence boost matches the strings positions are resolved on.
 */
type engine struct {
	resolver  *fretboard.Resolver
	estimator *pitch.Estimator
}

func newEngine(cfg *config.Config, t tuning.Tuning) *engine {
	return &engine{
		resolver:  fretboard.Create(t, cfg.ResolverOptions()...),
		estimator: pitch.Create(cfg.EstimatorConfig(t)),
	}
}

/*
 * Server holds the engine components shared by all requests. Everything it
 * references is read-only after construction, except the estimators and
 * peak picker which serialise internally.
 */
type Server struct {
	cfg         *config.Config
	defaultName string
	engines     map[string]*engine
	peaks       *pitch.PeakPicker
	metrics     *observe.Metrics
	scrape      http.Handler
}

/*
 * New builds a server from cfg. metricsHandler, if not nil, is served on
 * /metrics.
 */
func New(cfg *config.Config, metrics *observe.Metrics, metricsHandler http.Handler) (*Server, error) {
	t, err := cfg.BuildTuning()
	if err != nil {
		return nil, fmt.Errorf("api: %w", err)
	}

	engines := make(map[string]*engine)
	for _, name := range tuning.Names() {
		nt, err := tuning.Named(name)
		if err != nil {
			return nil, fmt.Errorf("api: %w", err)
		}
		engines[name] = newEngine(cfg, nt)
	}
	engines[t.Name()] = newEngine(cfg, t)

	return &Server{
		cfg:         cfg,
		defaultName: t.Name(),
		engines:     engines,
		peaks:       pitch.CreatePeakPicker(cfg.PeakConfig()),
		metrics:     metrics,
		scrape:      metricsHandler,
	}, nil
}

/*
 * Handler returns the routed handler wrapped with CORS and metrics
 * middleware.
 */
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/v1/tunings", s.handleTunings).Methods(http.MethodGet)
	router.HandleFunc("/v1/grid", s.handleGrid).Methods(http.MethodGet)
	router.HandleFunc("/v1/position", s.handlePosition).Methods(http.MethodGet)
	router.HandleFunc("/v1/positions", s.handlePositions).Methods(http.MethodGet)
	router.HandleFunc("/v1/chord", s.handleChord).Methods(http.MethodPost)
	router.HandleFunc("/v1/pitch", s.handlePitch).Methods(http.MethodPost)
	if s.scrape != nil {
		router.Handle("/metrics", s.scrape).Methods(http.MethodGet)
	}

	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(observe.Middleware(s.metrics)(router))
}

/*
 * errorBody is the JSON shape of every error response.
 */
type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("api: failed to write response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		slog.Warn("api: request failed", "status", status, "err", err)
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

/*
 * engineFor returns the engine for the "tuning" query parameter, or the
 * configured tuning when absent.
 */
func (s *Server) engineFor(r *http.Request) (*engine, error) {
	name := r.URL.Query().Get("tuning")
	if name == "" {
		name = s.defaultName
	}
	e, ok := s.engines[name]
	if !ok {
		return nil, fmt.Errorf("unknown tuning %q", name)
	}
	return e, nil
}

func floatParam(r *http.Request, key string, def float64, required bool) (float64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		if required {
			return 0, fmt.Errorf("missing query parameter %q", key)
		}
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid query parameter %q: %w", key, err)
	}
	return v, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

/*
 * tuningBody describes a tuning.
 */
type tuningBody struct {
	Name    string              `json:"name"`
	Strings []tuning.OpenString `json:"strings"`
	Default bool                `json:"default"`
}

func (s *Server) handleTunings(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(s.engines))
	for name := range s.engines {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]tuningBody, 0, len(names))
	for _, name := range names {
		out = append(out, tuningBody{
			Name:    name,
			Strings: s.engines[name].resolver.Tuning().Strings(),
			Default: name == s.defaultName,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGrid(w http.ResponseWriter, r *http.Request) {
	e, err := s.engineFor(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, e.resolver.Tuning().BuildGrid().Cells())
}

/*
 * positionBody is the response of /v1/position. Position is null when the
 * frequency has no playable position.
 */
type positionBody struct {
	Frequency float64             `json:"frequency"`
	Note      string              `json:"note,omitempty"`
	Position  *fretboard.Position `json:"position"`
}

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	e, err := s.engineFor(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	freq, err := floatParam(r, "frequency", 0, true)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	tol, err := floatParam(r, "tolerance", s.cfg.Fretboard.Tolerance, false)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	body := positionBody{Frequency: freq}
	if n, ok := tuning.NoteOf(freq); ok {
		body.Note = n.String()
	}
	if p, ok := e.resolver.ResolveWithin(freq, tol); ok {
		body.Position = &p
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	e, err := s.engineFor(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	freq, err := floatParam(r, "frequency", 0, true)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	tol, err := floatParam(r, "tolerance", s.cfg.Fretboard.Tolerance, false)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, e.resolver.AllPositionsWithin(freq, tol))
}

/*
 * chordRequest is the body of /v1/chord. Zero tolerance and nil span use
 * the configured defaults.
 */
type chordRequest struct {
	Frequencies []float64 `json:"frequencies"`
	Tolerance   float64   `json:"tolerance,omitempty"`
	MaxSpan     *int      `json:"max_span,omitempty"`
}

/*
 * chordBody is the response of /v1/chord. Positions is empty when the
 * chord is unplayable.
 */
type chordBody struct {
	Positions fretboard.Assignment `json:"positions"`
	Span      int                  `json:"span"`
}

func (s *Server) handleChord(w http.ResponseWriter, r *http.Request) {
	e, err := s.engineFor(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var req chordRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	tol := req.Tolerance
	if tol == 0 {
		tol = s.cfg.Fretboard.ChordTolerance
	}
	span := s.cfg.Fretboard.MaxSpan
	if req.MaxSpan != nil {
		span = *req.MaxSpan
	}

	a, err := e.resolver.ResolveChordWithin(req.Frequencies, tol, span)
	if errors.Is(err, fretboard.ErrNoFrequencies) {
		writeError(w, http.StatusBadRequest, err)
		return
	} else if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	status := observe.ChordResolved
	if len(a) == 0 {
		status = observe.ChordUnplayable
		a = fretboard.Assignment{}
	}
	s.metrics.RecordChord(r.Context(), status)
	writeJSON(w, http.StatusOK, chordBody{Positions: a, Span: a.Span()})
}

/*
 * pitchRequest is the body of /v1/pitch.
 */
type pitchRequest struct {
	Samples     []float64 `json:"samples"`
	SampleRate  float64   `json:"sample_rate"`
	TimestampMs int64     `json:"timestamp_ms"`
	Peaks       bool      `json:"peaks"`
}

/*
 * pitchBody is the response of /v1/pitch. Estimate and Position are null
 * when the frame holds no usable pitch. The detection gate is not applied,
 * every request is independent.
 */
type pitchBody struct {
	Estimate *pitch.Estimate     `json:"estimate"`
	Note     string              `json:"note,omitempty"`
	Position *fretboard.Position `json:"position"`
	Peaks    []pitch.Peak        `json:"peaks,omitempty"`
}

func (s *Server) handlePitch(w http.ResponseWriter, r *http.Request) {
	e, err := s.engineFor(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var req pitchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	/*
	 * The scan is quadratic in the frame length.
	 */
	if n := len(req.Samples); n > s.cfg.Pitch.FrameSize || n&(n-1) != 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %d samples, need a power of two up to %d",
			pitch.ErrInvalidFrame, n, s.cfg.Pitch.FrameSize))
		return
	}

	frame := pitch.Frame{
		Samples:     req.Samples,
		SampleRate:  req.SampleRate,
		TimestampMs: req.TimestampMs,
	}

	s.metrics.FramesAnalyzed.Add(r.Context(), 1)
	est, err := e.estimator.Analyze(frame)
	if errors.Is(err, pitch.ErrInvalidFrame) {
		writeError(w, http.StatusBadRequest, err)
		return
	} else if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	body := pitchBody{Estimate: est}
	if est != nil {
		s.metrics.PitchEstimates.Add(r.Context(), 1)
		if n, ok := tuning.NoteOf(est.Frequency()); ok {
			body.Note = n.String()
		}
		if p, ok := e.resolver.Resolve(est.Frequency()); ok {
			body.Position = &p
		}
	}
	if req.Peaks {
		if body.Peaks, err = s.peaks.Peaks(frame); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, body)
}
