package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/deskflow/deskflow/internal/config"
	"github.com/deskflow/deskflow/internal/models"
	"github.com/deskflow/deskflow/internal/reporter"
	"github.com/deskflow/deskflow/internal/tracker"
	"github.com/deskflow/deskflow/pkg/utils"
	"github.com/deskflow/deskflow/pkg/window"
)

// Store is the read side of the database used by the API.
type Store interface {
	SessionsForDate(date string) ([]models.Session, error)
	RecentErrors(limit int) ([]models.ErrorLog, error)
}

// Activity exposes the live tracker. It may be nil when the API runs
// without a tracker in the same process.
type Activity interface {
	IsRunning() bool
	Tracked() []tracker.TrackedWindow
	GetCurrentWindow() (*window.WindowInfo, error)
}

type Handler struct {
	config   *config.Config
	store    Store
	reporter *reporter.Reporter
	activity Activity
	logger   *log.Logger
}

func NewHandler(cfg *config.Config, store Store, rep *reporter.Reporter, activity Activity, logger *log.Logger) *Handler {
	return &Handler{
		config:   cfg,
		store:    store,
		reporter: rep,
		activity: activity,
		logger:   logger,
	}
}

func (h *Handler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/summary", h.handleSummary)
	mux.HandleFunc("/api/score", h.handleScore)
	mux.HandleFunc("/api/scores", h.handleScores)
	mux.HandleFunc("/api/sessions", h.handleSessions)
	mux.HandleFunc("/api/active", h.handleActive)
	mux.HandleFunc("/api/status", h.handleStatus)

	mux.HandleFunc("/health", h.handleHealth)

	mux.HandleFunc("/", h.handleIndex)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	report, err := h.reporter.DailyReport(r.URL.Query().Get("date"))
	if err != nil {
		h.respondError(w, "Failed to get summary", err)
		return
	}

	if r.Header.Get("HX-Request") == "true" {
		h.respondSummaryHTML(w, report)
		return
	}

	respondJSON(w, report)
}

func (h *Handler) respondSummaryHTML(w http.ResponseWriter, report *models.DailyReport) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if len(report.Categories) == 0 {
		_, _ = w.Write([]byte(`<div class="loading">No data available</div>`))
		return
	}

	var b strings.Builder
	b.WriteString(`<div class="listing">`)
	for _, c := range report.Categories {
		class := "category-item"
		if c.Productive {
			class += " productive"
		}
		fmt.Fprintf(&b, `
		<div class="%s" style="--bar-width: %.1f%%">
			<span class="category-name">%s</span>
			<div>
				<span class="category-time">%s</span>
				<span class="category-percentage">%.1f%%</span>
			</div>
		</div>`, class, c.Percentage, html.EscapeString(c.Category), utils.FormatRoundedUnit(c.TotalSeconds), c.Percentage)
	}
	b.WriteString(`</div>`)

	fmt.Fprintf(&b, `<div class="total">Total: %s &middot; Productivity: %.1f%% (%s)</div>`,
		utils.FormatRoundedUnit(report.TotalSeconds), report.Percent, html.EscapeString(report.Rating))

	_, _ = w.Write([]byte(b.String()))
}

type scoreRequest struct {
	Date    string   `json:"date"`
	Percent *float64 `json:"percent"`
}

func (h *Handler) handleScore(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		score, err := h.reporter.ComputeAndStoreScore(r.URL.Query().Get("date"))
		if err != nil {
			h.respondError(w, "Failed to compute score", err)
			return
		}
		respondJSON(w, score)

	case http.MethodPut:
		req, err := decodeScoreRequest(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		score, err := h.reporter.StoreScore(req.Date, *req.Percent)
		if err != nil {
			h.respondError(w, "Failed to store score", err)
			return
		}
		respondJSON(w, score)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// decodeScoreRequest accepts a JSON body or date/percent query parameters.
func decodeScoreRequest(r *http.Request) (*scoreRequest, error) {
	req := &scoreRequest{Date: r.URL.Query().Get("date")}

	if p := r.URL.Query().Get("percent"); p != "" {
		percent, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid percent %q", p)
		}
		req.Percent = &percent
	} else if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			return nil, fmt.Errorf("invalid request body: %v", err)
		}
	}

	if req.Percent == nil {
		return nil, fmt.Errorf("percent is required")
	}
	return req, nil
}

func (h *Handler) handleScores(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	scores, err := h.reporter.Scores(query.Get("from"), query.Get("to"))
	if err != nil {
		h.respondError(w, "Failed to fetch scores", err)
		return
	}
	if scores == nil {
		scores = []models.ProductivityScore{}
	}

	respondJSON(w, scores)
}

func (h *Handler) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	date, err := h.reporter.ResolveDate(r.URL.Query().Get("date"))
	if err != nil {
		h.respondError(w, "Failed to fetch sessions", err)
		return
	}

	sessions, err := h.store.SessionsForDate(date)
	if err != nil {
		h.respondError(w, "Failed to fetch sessions", err)
		return
	}
	if sessions == nil {
		sessions = []models.Session{}
	}

	respondJSON(w, sessions)
}

func (h *Handler) handleActive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.activity == nil {
		http.Error(w, "Tracker is not running in this process", http.StatusServiceUnavailable)
		return
	}

	response := map[string]interface{}{
		"tracked": h.activity.Tracked(),
	}

	active, err := h.activity.GetCurrentWindow()
	if err != nil {
		response["error"] = err.Error()
	} else if active != nil {
		response["active"] = active
	}

	respondJSON(w, response)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := map[string]interface{}{
		"running":        h.activity != nil && h.activity.IsRunning(),
		"tick_period":    h.config.Tracker.TickPeriod.String(),
		"flush_interval": h.config.Tracker.FlushInterval.String(),
		"database_path":  h.config.Database.Path,
		"date":           h.reporter.Today(),
	}

	if h.activity != nil {
		status["open_sessions"] = len(h.activity.Tracked())
	}

	if errs, err := h.store.RecentErrors(5); err == nil && len(errs) > 0 {
		status["recent_errors"] = errs
	}

	respondJSON(w, status)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(dashboardHTML))
}

// respondError maps validation failures to 400 and everything else to 500.
func (h *Handler) respondError(w http.ResponseWriter, msg string, err error) {
	if errors.Is(err, reporter.ErrInvalidDate) || errors.Is(err, reporter.ErrInvalidPercent) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.logger.Error(msg, "err", err)
	http.Error(w, fmt.Sprintf("%s: %v", msg, err), http.StatusInternalServerError)
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
