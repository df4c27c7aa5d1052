package http

import (
	"encoding/csv"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"cryptodash/internal/domain"
	"cryptodash/internal/infra"
	"cryptodash/internal/service"
)

// formState carries the add-entry form values back into the page so a
// rejected submission keeps what the user typed.
type formState struct {
	Error  string
	Name   string
	Symbol string
	Price  string
	Change string
	Volume string
}

type dashboardView struct {
	AppName  string
	Version  string
	Username string
	Snapshot service.Snapshot
	Recent   []domain.RefreshRecord
	Form     formState
}

type loginView struct {
	AppName string
	Error   string
}

// handleDashboard refreshes and renders the main page. Every page load
// refetches; there is no background polling to serve from.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	snap := s.dashboard.Refresh(r.Context())
	s.renderDashboard(w, r, http.StatusOK, snap, formState{})
}

func (s *Server) renderDashboard(w http.ResponseWriter, r *http.Request, status int, snap service.Snapshot, form formState) {
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	username, _ := s.sessions.validate(r)
	view := dashboardView{
		AppName:  s.appName,
		Version:  s.version,
		Username: username,
		Snapshot: snap,
		Recent:   s.dashboard.RecentRefreshes(r.Context(), 5),
		Form:     form,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, "dashboard.html", view); err != nil {
		slog.ErrorContext(r.Context(), "Dashboard template execution failed", "error", err)
	}
}

// handleLogin renders the form on GET and checks credentials on POST.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if _, ok := s.sessions.validate(r); ok {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		s.renderLogin(w, r, http.StatusOK, "")

	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			s.renderLogin(w, r, http.StatusBadRequest, "Invalid request")
			return
		}

		username := strings.TrimSpace(r.Form.Get("username"))
		password := r.Form.Get("password")
		if username != s.username || password != s.password {
			slog.WarnContext(r.Context(), "Login failed", "username", username, slog.Any("error", domain.ErrBadCredentials))
			s.renderLogin(w, r, http.StatusUnauthorized, "Invalid credentials")
			return
		}

		s.sessions.issue(w, username)
		slog.InfoContext(r.Context(), "Login succeeded", "username", username)
		http.Redirect(w, r, "/", http.StatusSeeOther)

	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) renderLogin(w http.ResponseWriter, r *http.Request, status int, errMsg string) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, "login.html", loginView{AppName: s.appName, Error: errMsg}); err != nil {
		slog.ErrorContext(r.Context(), "Login template execution failed", "error", err)
	}
}

// handleLogout clears the session and returns to the login page.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	s.sessions.clear(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// handleEntries appends a user row from the add-entry form. Invalid input
// re-renders the dashboard with the form error inline and the typed values
// preserved.
func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	form := formState{
		Name:   sanitizeInput(r.Form.Get("name")),
		Symbol: sanitizeInput(r.Form.Get("symbol")),
		Price:  strings.TrimSpace(r.Form.Get("price")),
		Change: strings.TrimSpace(r.Form.Get("change24h")),
		Volume: strings.TrimSpace(r.Form.Get("volume")),
	}

	// The form requires both identifiers; numeric fields default to zero
	if form.Name == "" || form.Symbol == "" {
		form.Error = "Name and symbol are required"
		s.renderDashboard(w, r, http.StatusUnprocessableEntity, s.dashboard.Current(), form)
		return
	}

	price, err := parseDecimalField(form.Price)
	if err != nil {
		form.Error = "Price must be a number"
		s.renderDashboard(w, r, http.StatusUnprocessableEntity, s.dashboard.Current(), form)
		return
	}
	change, err := parseDecimalField(form.Change)
	if err != nil {
		form.Error = "24h change must be a number"
		s.renderDashboard(w, r, http.StatusUnprocessableEntity, s.dashboard.Current(), form)
		return
	}
	volume, err := parseDecimalField(form.Volume)
	if err != nil {
		form.Error = "Volume must be a number"
		s.renderDashboard(w, r, http.StatusUnprocessableEntity, s.dashboard.Current(), form)
		return
	}

	rec := domain.CoinRecord{
		Name:      form.Name,
		Symbol:    form.Symbol,
		Price:     price,
		Change24h: change,
		Volume:    volume,
	}

	if _, err := s.dashboard.AddEntry(r.Context(), rec); err != nil {
		if domain.IsValidation(err) {
			form.Error = err.Error()
			s.renderDashboard(w, r, http.StatusUnprocessableEntity, s.dashboard.Current(), form)
			return
		}
		slog.ErrorContext(r.Context(), "Entry append failed", "error", err)
		form.Error = "Could not save the entry"
		s.renderDashboard(w, r, http.StatusInternalServerError, s.dashboard.Current(), form)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleExport streams the current merged table as CSV.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	snap := s.dashboard.Current()
	if snap.Stats.LastUpdated.IsZero() {
		snap = s.dashboard.Refresh(r.Context())
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="crypto_data.csv"`)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"Name", "Symbol", "Price", "Change24h", "Volume", "Source", "Time"})
	ts := snap.Stats.LastUpdated.Format(time.RFC3339)
	for _, rec := range snap.Table {
		_ = cw.Write([]string{
			rec.Name,
			rec.Symbol,
			rec.Price.String(),
			rec.Change24h.String(),
			rec.Volume.String(),
			string(rec.Source),
			ts,
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		slog.ErrorContext(r.Context(), "CSV export failed", "error", err)
	}
}

// handleMetrics serves a JSON snapshot of the process counters.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(infra.GlobalMetrics.Snapshot()); err != nil {
		slog.ErrorContext(r.Context(), "Metrics encode failed", "error", err)
	}
}

func parseDecimalField(v string) (decimal.Decimal, error) {
	if v == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(v)
}

// sanitizeInput removes control characters and trims whitespace
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func (s *Server) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"volume":  humanVolume,
		"price":   formatPrice,
		"percent": formatPercent,
		"timefmt": formatTime,
		"iconFor": s.iconFor,
	}
}

// humanVolume shortens large volumes to B/M suffixes for the stat strip.
func humanVolume(d decimal.Decimal) string {
	f, _ := d.Float64()
	switch {
	case f >= 1e9:
		return humanize.FormatFloat("#,###.##", f/1e9) + "B"
	case f >= 1e6:
		return humanize.FormatFloat("#,###.##", f/1e6) + "M"
	default:
		return humanize.CommafWithDigits(f, 0)
	}
}

func formatPrice(d decimal.Decimal) string {
	if d.Abs().LessThan(decimal.NewFromInt(1)) {
		return d.Round(6).String()
	}
	f, _ := d.Float64()
	return humanize.CommafWithDigits(f, 2)
}

func formatPercent(d decimal.Decimal) string {
	rounded := d.Round(2)
	if rounded.IsPositive() {
		return "+" + rounded.String() + "%"
	}
	return rounded.String() + "%"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format("2006-01-02 15:04:05")
}

func (s *Server) iconFor(symbol string) string {
	if s.icons == nil || !s.icons.Has(symbol) {
		return ""
	}
	return "/icons/" + s.icons.FileName(symbol)
}
