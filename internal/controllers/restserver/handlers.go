package restserver

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/chrissnell/solarstats/internal/analysis"
	"github.com/chrissnell/solarstats/internal/constants"
	"github.com/chrissnell/solarstats/internal/dashboard"
	"github.com/chrissnell/solarstats/internal/export"
	"github.com/chrissnell/solarstats/pkg/responseformat"
	"github.com/gorilla/mux"
)

// DateLayout is the format of the start and end query parameters
const DateLayout = "2006-01-02"

// errBadQuery marks query values that cannot be parsed
var errBadQuery = errors.New("bad query parameter")

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
	}
}

// GetReport builds a full report for the requested range and columns
func (h *Handlers) GetReport(w http.ResponseWriter, req *http.Request) {
	report, ok := h.buildReport(w, req)
	if !ok {
		return
	}
	h.write(w, req, statusCode(report.Status), report)
}

// GetExport builds a report and sends it as an XLSX or PDF attachment. Reports that did
// not complete are answered with their JSON status instead.
func (h *Handlers) GetExport(w http.ResponseWriter, req *http.Request) {
	format, err := export.ParseFormat(mux.Vars(req)["format"])
	if err != nil {
		h.writeError(w, req, http.StatusNotFound, err)
		return
	}

	report, ok := h.buildReport(w, req)
	if !ok {
		return
	}
	if !report.Status.OK() {
		h.write(w, req, statusCode(report.Status), report)
		return
	}

	data, err := export.Render(report, format)
	if err != nil {
		h.writeError(w, req, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "solar-report."+string(format)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.controller.logger.Errorf("error writing export for %s: %v", req.URL.Path, err)
	}
}

// buildReport parses the query and runs the dashboard. It writes the error response
// itself and returns false when the request cannot be served.
func (h *Handlers) buildReport(w http.ResponseWriter, req *http.Request) (*dashboard.Report, bool) {
	request, err := parseReportQuery(req.URL.Query())
	if err != nil {
		h.writeError(w, req, http.StatusBadRequest, err)
		return nil, false
	}

	start := time.Now()
	report, err := h.controller.reporter.Build(request)
	if err != nil {
		if errors.Is(err, dashboard.ErrInvalidRequest) {
			h.writeError(w, req, http.StatusBadRequest, err)
			return nil, false
		}
		h.writeError(w, req, http.StatusInternalServerError, err)
		return nil, false
	}
	h.controller.metrics.ObserveReport(string(report.Status), time.Since(start))

	if !report.Status.OK() {
		h.controller.logger.Debugw("report not built", "status", report.Status, "detail", report.Detail)
	}
	return report, true
}

// GetColumns lists the selectable columns and defaults
func (h *Handlers) GetColumns(w http.ResponseWriter, req *http.Request) {
	info := h.controller.reporter.Columns()
	h.write(w, req, statusCode(info.Status), info)
}

// HealthResponse is the body of /healthz
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// GetHealth reports that the server is up
func (h *Handlers) GetHealth(w http.ResponseWriter, req *http.Request) {
	h.write(w, req, http.StatusOK, HealthResponse{Status: "ok", Version: constants.Version})
}

// NotFound answers unknown paths with a formatted error
func (h *Handlers) NotFound(w http.ResponseWriter, req *http.Request) {
	h.writeError(w, req, http.StatusNotFound, fmt.Errorf("no such endpoint: %s", req.URL.Path))
}

func (h *Handlers) write(w http.ResponseWriter, req *http.Request, status int, data any) {
	if err := h.formatter.WriteResponse(w, req, status, data); err != nil {
		h.controller.logger.Errorf("error writing response for %s: %v", req.URL.Path, err)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, req *http.Request, status int, err error) {
	if werr := h.formatter.WriteError(w, req, status, err.Error()); werr != nil {
		h.controller.logger.Errorf("error writing error response for %s: %v", req.URL.Path, werr)
	}
}

// statusCode maps a report status to an HTTP status code: load failures are the server's
// problem, everything else is a problem with the selection
func statusCode(s dashboard.Status) int {
	switch {
	case s.OK():
		return http.StatusOK
	case s.LoadFailure():
		return http.StatusServiceUnavailable
	default:
		return http.StatusUnprocessableEntity
	}
}

// parseReportQuery turns query parameters into a dashboard request. Dates are only
// included when present, so a missing start or end falls back to the whole source.
func parseReportQuery(q url.Values) (dashboard.Request, error) {
	var req dashboard.Request

	for _, key := range []string{"start", "end"} {
		v := strings.TrimSpace(q.Get(key))
		if v == "" {
			continue
		}
		d, err := time.Parse(DateLayout, v)
		if err != nil {
			return req, fmt.Errorf("%w: %s must be a YYYY-MM-DD date, got %q", errBadQuery, key, v)
		}
		req.Dates = append(req.Dates, d)
	}

	if v := q.Get("bucket"); v != "" {
		b, err := analysis.ParseBucket(v)
		if err != nil {
			return req, fmt.Errorf("%w: %v", errBadQuery, err)
		}
		req.Bucket = b
	}

	if v := q.Get("bins"); v != "" {
		bins, err := strconv.Atoi(v)
		if err != nil || bins < 1 {
			return req, fmt.Errorf("%w: bins must be a positive integer, got %q", errBadQuery, v)
		}
		req.Bins = bins
	}

	req.Column = q.Get("column")
	req.Correlate = q.Get("correlate")

	return req, nil
}
