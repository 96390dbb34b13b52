/*
handlers.go - HTTP API handlers for the saju engine

PURPOSE:
  Exposes the pillar, luck-cycle, analysis and solar-term computations via
  REST. Handles query parsing, JSON serialization, and delegates to the
  saju package.

ENDPOINTS:
  Charts:
    GET    /api/pillars               Four pillars for a birth moment
    GET    /api/daeun                 Decade luck list (needs gender)
    GET    /api/saeun                 Annual pillars (?year or ?from&to&birthYear)
    GET    /api/analysis              Ten stars, hidden stems, life stages,
                                      sinsal, element balance
    GET    /api/locations             Named places and their offsets

  Solar terms:
    GET    /api/terms                 The 24 terms of a year
    GET    /api/terms/current         Term in effect at a date

  Almanac:
    GET    /api/almanac/ganzhi        Rows whose pillar matches a ganzhi
    POST   /api/almanac/seed          See seed.go

BIRTH MOMENT PARAMETERS:
  year, month, day        required
  hour, minute            default 0
  solar                   default true; false means a lunar date (almanac only)
  leap                    lunar leap month
  correct                 true/false, overrides the configured correction
  location                named place, implies correct=true
  longitude               degrees east, implies correct=true
  nightZi                 true/false, overrides the configured rule

ARCHITECTURE:
  Handler holds a formula Calculator and, when an almanac is configured,
  an AlmanacCalculator that takes precedence. Per-request correction
  options are applied with With(), so the shared calculators never change.

ERROR HANDLING:
  Errors are returned as JSON with an HTTP status from the saju taxonomy:
  - 400: Invalid input, unknown solar term
  - 404: Almanac row, location or seed run not found
  - 502: Malformed almanac data
  - 503: Almanac not configured, seed queue unavailable
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - seed.go: Almanac seeding endpoints
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/warp/saju-engine/saju"
)

var requestValidate = validator.New()

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// chartEngine is the surface shared by Calculator and AlmanacCalculator.
type chartEngine interface {
	Compute(ctx context.Context, m saju.BirthMoment) (saju.Reading, error)
	Daeun(ctx context.Context, m saju.BirthMoment, g saju.Gender) (saju.DaeunList, error)
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	calc    *saju.Calculator
	almanac *saju.AlmanacCalculator
	seeder  *SeedRunner
	logger  *zap.Logger
	now     func() time.Time
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithAlmanac routes chart computations through an almanac.
func WithAlmanac(a *saju.AlmanacCalculator) HandlerOption {
	return func(h *Handler) { h.almanac = a }
}

// WithSeeder enables the seed endpoints.
func WithSeeder(s *SeedRunner) HandlerOption {
	return func(h *Handler) { h.seeder = s }
}

// WithLogger sets the logger used for failed computations.
func WithLogger(l *zap.Logger) HandlerOption {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithClock replaces time.Now for endpoints that default to the current date.
func WithClock(now func() time.Time) HandlerOption {
	return func(h *Handler) { h.now = now }
}

// NewHandler creates a handler around a formula calculator. A nil calc
// gets the default calculator.
func NewHandler(calc *saju.Calculator, opts ...HandlerOption) *Handler {
	if calc == nil {
		calc = saju.NewCalculator()
	}
	h := &Handler{
		calc:   calc,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// engine picks the almanac when configured and applies per-request options.
func (h *Handler) engine(opts []saju.Option) (chartEngine, string) {
	if h.almanac != nil {
		return h.almanac.With(opts...), "almanac"
	}
	return h.calc.With(opts...), "formula"
}

// =============================================================================
// CHART HANDLERS
// =============================================================================

// GetPillars computes the four pillars.
// GET /api/pillars
func (h *Handler) GetPillars(w http.ResponseWriter, r *http.Request) {
	reading, ok := h.compute(w, r, "pillars")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toPillarsResponse(reading))
}

// GetDaeun computes the decade luck list.
// GET /api/daeun?...&gender=male&maxAge=60&age=25
func (h *Handler) GetDaeun(w http.ResponseWriter, r *http.Request) {
	const op = "daeun"
	q := r.URL.Query()

	m, opts, err := parseMoment(q)
	if err != nil {
		h.fail(w, op, err)
		return
	}
	g, err := saju.ParseGender(q.Get("gender"))
	if err != nil {
		h.fail(w, op, err)
		return
	}
	maxAge, err := optionalInt(q.Get("maxAge"), 0)
	if err != nil {
		h.fail(w, op, err)
		return
	}
	age, err := optionalInt(q.Get("age"), 0)
	if err != nil {
		h.fail(w, op, err)
		return
	}

	eng, source := h.engine(opts)
	timer := time.Now()
	list, err := eng.Daeun(r.Context(), m, g)
	if err != nil {
		h.fail(w, op, err)
		return
	}
	h.observe(op, source, timer)
	if !list.Precise {
		daeunFallbacks.Inc()
	}

	resp := toDaeunResponse(list, maxAge)
	if age > 0 {
		if cur, ok := list.At(age); ok {
			resp.Current = &CurrentDaeunDTO{
				Index:   cur.Index,
				YearsIn: cur.YearsIn,
				Period:  toDaeunPeriodDTO(cur.Period),
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetSaeun lists annual pillars.
// GET /api/saeun?year=2024 or ?from=2024&to=2033&birthYear=2000
func (h *Handler) GetSaeun(w http.ResponseWriter, r *http.Request) {
	const op = "saeun"
	q := r.URL.Query()

	var from, to int
	var err error
	if q.Get("year") != "" {
		if from, err = requiredInt(q, "year"); err != nil {
			h.fail(w, op, err)
			return
		}
		to = from
	} else {
		if from, err = requiredInt(q, "from"); err != nil {
			h.fail(w, op, err)
			return
		}
		if to, err = requiredInt(q, "to"); err != nil {
			h.fail(w, op, err)
			return
		}
	}
	birthYear, err := optionalInt(q.Get("birthYear"), 0)
	if err != nil {
		h.fail(w, op, err)
		return
	}

	list, err := saju.SaeunRange(from, to, birthYear)
	if err != nil {
		h.fail(w, op, err)
		return
	}
	computationsTotal.WithLabelValues(op, "formula").Inc()

	dtos := make([]SaeunDTO, 0, len(list))
	for _, s := range list {
		dtos = append(dtos, toSaeunDTO(s))
	}
	writeJSON(w, http.StatusOK, map[string]any{"saeun": dtos})
}

// GetAnalysis computes the chart and every derived analysis.
// GET /api/analysis
func (h *Handler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	reading, ok := h.compute(w, r, "analysis")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toAnalysisResponse(reading.Pillars))
}

// compute parses the moment, runs the engine and reports failures. It
// returns false when a response has already been written.
func (h *Handler) compute(w http.ResponseWriter, r *http.Request, op string) (saju.Reading, bool) {
	m, opts, err := parseMoment(r.URL.Query())
	if err != nil {
		h.fail(w, op, err)
		return saju.Reading{}, false
	}

	eng, source := h.engine(opts)
	timer := time.Now()
	reading, err := eng.Compute(r.Context(), m)
	if err != nil {
		h.fail(w, op, err)
		return saju.Reading{}, false
	}
	h.observe(op, source, timer)
	return reading, true
}

// =============================================================================
// SOLAR TERM HANDLERS
// =============================================================================

// GetTerms lists the 24 terms of a year, 입춘 first.
// GET /api/terms?year=2024
func (h *Handler) GetTerms(w http.ResponseWriter, r *http.Request) {
	const op = "terms"

	year, err := optionalInt(r.URL.Query().Get("year"), h.now().In(saju.KST).Year())
	if err != nil {
		h.fail(w, op, err)
		return
	}
	if year < saju.MinYear || year > saju.MaxYear {
		h.fail(w, op, &saju.InputError{Field: "year", Value: year, Min: saju.MinYear, Max: saju.MaxYear})
		return
	}

	terms := saju.SolarTermsForYear(year)
	dtos := make([]SolarTermDTO, 0, len(terms))
	for _, t := range terms {
		dtos = append(dtos, toSolarTermDTO(t))
	}
	computationsTotal.WithLabelValues(op, "formula").Inc()
	writeJSON(w, http.StatusOK, map[string]any{"year": year, "terms": dtos})
}

// GetCurrentTerm locates a date between two terms.
// GET /api/terms/current?date=2024-01-03T12:00
func (h *Handler) GetCurrentTerm(w http.ResponseWriter, r *http.Request) {
	const op = "current_term"

	at := h.now().In(saju.KST)
	if v := r.URL.Query().Get("date"); v != "" {
		t, err := parseKST(v)
		if err != nil {
			h.fail(w, op, err)
			return
		}
		if y := t.Year(); y < saju.MinYear || y > saju.MaxYear {
			h.fail(w, op, &saju.InputError{Field: "year", Value: y, Min: saju.MinYear, Max: saju.MaxYear})
			return
		}
		at = t
	}

	pos := saju.CurrentSolarTerm(at)
	computationsTotal.WithLabelValues(op, "formula").Inc()
	writeJSON(w, http.StatusOK, TermPositionDTO{
		At:             at.Format(time.RFC3339),
		Current:        toSolarTermDTO(pos.Current),
		Next:           toSolarTermDTO(pos.Next),
		DaysSinceStart: pos.DaysSinceStart,
		DaysUntilNext:  pos.DaysUntilNext,
	})
}

// =============================================================================
// ALMANAC HANDLERS
// =============================================================================

// maxGanzhiLimit caps a single ganzhi search.
const maxGanzhiLimit = 100

// FindByGanzhi lists almanac days whose pillar matches.
// GET /api/almanac/ganzhi?ganzhi=甲子&type=day&limit=10
func (h *Handler) FindByGanzhi(w http.ResponseWriter, r *http.Request) {
	const op = "find_ganzhi"
	q := r.URL.Query()

	if h.almanac == nil {
		h.fail(w, op, saju.ErrUnconfigured)
		return
	}

	ganzhi := q.Get("ganzhi")
	if ganzhi == "" {
		h.fail(w, op, fmt.Errorf("%w: ganzhi is required", saju.ErrInvalidInput))
		return
	}
	pt := saju.PillarDay
	if v := q.Get("type"); v != "" {
		var err error
		if pt, err = saju.ParsePillarType(v); err != nil {
			h.fail(w, op, err)
			return
		}
	}
	limit, err := optionalInt(q.Get("limit"), 10)
	if err != nil {
		h.fail(w, op, err)
		return
	}
	limit = min(limit, maxGanzhiLimit)

	timer := time.Now()
	rows, err := h.almanac.FindByGanzhi(r.Context(), ganzhi, pt, limit)
	if err != nil {
		h.fail(w, op, err)
		return
	}
	h.observe(op, "almanac", timer)

	dtos := make([]AlmanacEntryDTO, 0, len(rows))
	for _, e := range rows {
		dtos = append(dtos, toAlmanacEntryDTO(e))
	}
	writeJSON(w, http.StatusOK, map[string]any{"ganzhi": ganzhi, "type": pt, "days": dtos})
}

// =============================================================================
// HEALTH
// =============================================================================

type pinger interface {
	Ping(ctx context.Context) error
}

type yearBounder interface {
	YearBounds(ctx context.Context) (saju.Span, bool, error)
}

// Health reports liveness and, when an almanac is configured, whether its
// store answers.
// GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok", "almanac": h.almanac != nil}
	if h.almanac != nil {
		if p, ok := h.almanac.Source().(pinger); ok {
			if err := p.Ping(r.Context()); err != nil {
				resp["status"] = "degraded"
				resp["error"] = err.Error()
				writeJSON(w, http.StatusServiceUnavailable, resp)
				return
			}
		}
		if b, ok := h.almanac.Source().(yearBounder); ok {
			if span, found, err := b.YearBounds(r.Context()); err == nil && found {
				resp["almanacYears"] = []int{span.From, span.To}
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /api/locations
// GetLocations lists the named birth places and their solar time offsets.
func (h *Handler) GetLocations(w http.ResponseWriter, r *http.Request) {
	names := saju.Locations()
	out := make([]LocationDTO, 0, len(names))
	for _, n := range names {
		off, _ := saju.LocationOffset(n)
		out = append(out, LocationDTO{Name: n, OffsetMinutes: off})
	}
	writeJSON(w, http.StatusOK, out)
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) observe(op, source string, start time.Time) {
	computationsTotal.WithLabelValues(op, source).Inc()
	computationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// fail maps an engine error onto a status, counts it and writes the body.
func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	status, code := statusFor(err)
	computationErrors.WithLabelValues(op, code).Inc()
	if status >= http.StatusInternalServerError {
		h.logger.Error("computation failed",
			zap.String("operation", op),
			zap.String("code", code),
			zap.Error(err))
	} else {
		h.logger.Debug("request rejected",
			zap.String("operation", op),
			zap.String("code", code),
			zap.Error(err))
	}
	writeError(w, status, http.StatusText(status), code, err)
}

// statusFor classifies an error. Data faults are checked first: a
// malformed row may also wrap a parse error.
func statusFor(err error) (int, string) {
	switch {
	case saju.IsDataFault(err):
		return http.StatusBadGateway, "malformed_upstream_data"
	case saju.IsClientError(err):
		return http.StatusBadRequest, "invalid_input"
	case saju.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, saju.ErrUnconfigured):
		return http.StatusServiceUnavailable, "unconfigured"
	case errors.Is(err, ErrSeedQueueFull), errors.Is(err, ErrSeederStopped):
		return http.StatusServiceUnavailable, "seed_unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message, code string, err error) {
	resp := ErrorResponse{Error: message, Code: code}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
