package serve

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/regtime/regtime/internal/identity"
	"github.com/regtime/regtime/internal/palette"
)

// apiError is the error half of the API envelope.
type apiError struct {
	Message string `json:"message"`
	Source  string `json:"source"`
}

// envelope wraps every API response.
type envelope struct {
	OK    bool      `json:"ok"`
	Data  any       `json:"data,omitempty"`
	Error *apiError `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{OK: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, message, source string) {
	writeJSON(w, status, envelope{Error: &apiError{Message: message, Source: source}})
}

const maxRequestBody = 64 << 10

// Metrics is the dashboard summary.
type Metrics struct {
	ActiveProjects     int `json:"activeProjects"`
	PropertiesAnalyzed int `json:"propertiesAnalyzed"`
	ComplianceChecks   int `json:"complianceChecks"`
	TeamMembers        int `json:"teamMembers"`
}

// dashboardMetrics is served until projects are backed by real storage.
var dashboardMetrics = Metrics{
	ActiveProjects:     12,
	PropertiesAnalyzed: 48,
	ComplianceChecks:   156,
	TeamMembers:        6,
}

// Property is a tax lot record.
type Property struct {
	BBL            any     `json:"bbl"`
	Address        string  `json:"address"`
	Borough        string  `json:"borough"`
	Block          string  `json:"block"`
	Lot            string  `json:"lot"`
	ZipCode        string  `json:"zipCode"`
	OwnerName      string  `json:"ownerName"`
	LotArea        int     `json:"lotArea"`
	BuildingClass  string  `json:"buildingClass"`
	YearBuilt      int     `json:"yearBuilt"`
	ZoningDistrict string  `json:"zoningDistrict"`
	FAR            float64 `json:"far"`
	CreatedAt      string  `json:"createdAt"`
	UpdatedAt      string  `json:"updatedAt"`
}

const isoMillis = "2006-01-02T15:04:05.000Z07:00"

func (s *Server) sampleProperty(bbl any) Property {
	now := s.now().UTC().Format(isoMillis)
	return Property{
		BBL:            bbl,
		Address:        "123 Main Street, Brooklyn, NY 11201",
		Borough:        "Brooklyn",
		Block:          "123",
		Lot:            "1",
		ZipCode:        "11201",
		OwnerName:      "Sample Owner LLC",
		LotArea:        10000,
		BuildingClass:  "R4",
		YearBuilt:      2010,
		ZoningDistrict: "R6",
		FAR:            2.0,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// authorize validates the session cookie for an API route. It writes the
// error response itself and reports whether the handler may continue.
func (s *Server) authorize(w http.ResponseWriter, r *http.Request, deniedMsg string) (*identity.Identity, bool) {
	source := r.URL.Path
	token, ok := s.gate.Token(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", source)
		return nil, false
	}
	if s.identity == nil {
		writeError(w, http.StatusInternalServerError, identity.ErrNotConfigured.Error(), source)
		return nil, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.providerTimeout)
	defer cancel()
	id, err := s.identity.Validate(ctx, token)
	if err != nil {
		s.identityFailure(w, r, err, deniedMsg)
		return nil, false
	}
	return id, true
}

func (s *Server) identityFailure(w http.ResponseWriter, r *http.Request, err error, deniedMsg string) {
	source := r.URL.Path
	switch {
	case errors.Is(err, identity.ErrNotConfigured):
		s.logger.Error("identity provider not configured", "path", source)
		writeError(w, http.StatusInternalServerError, err.Error(), source)
	case errors.Is(err, identity.ErrUnavailable):
		s.logger.Warn("identity provider unavailable", "path", source, "error", err, "timeout", identity.IsTimeout(err))
		writeError(w, http.StatusUnauthorized, deniedMsg, source)
	default:
		writeError(w, http.StatusUnauthorized, deniedMsg, source)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":     true,
		"status": "healthy",
		"time":   s.now().UTC().Format(isoMillis),
	})
}

// handleAuthUser returns the provider's user record verbatim.
func (s *Server) handleAuthUser(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Path
	token, ok := s.gate.Token(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", source)
		return
	}
	if s.identity == nil {
		writeError(w, http.StatusInternalServerError, identity.ErrNotConfigured.Error(), source)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.providerTimeout)
	defer cancel()
	user, err := s.identity.CurrentUser(ctx, token)
	if err != nil {
		s.identityFailure(w, r, err, "User not found")
		return
	}
	writeOK(w, user)
}

func (s *Server) handleDashboardMetrics(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authorize(w, r, "Unauthorized"); !ok {
		return
	}
	writeOK(w, dashboardMetrics)
}

func (s *Server) handleSearchBBL(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authorize(w, r, "Unauthorized"); !ok {
		return
	}

	var body map[string]any
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", r.URL.Path)
		return
	}
	bbl := body["bbl"]
	if !truthy(bbl) {
		writeError(w, http.StatusBadRequest, "BBL is required", r.URL.Path)
		return
	}
	writeOK(w, s.sampleProperty(bbl))
}

// truthy reports whether a decoded JSON value is present and non-empty.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case float64:
		return t != 0
	case bool:
		return t
	default:
		return true
	}
}

// PaletteItem is one ranked command as served by /api/palette.
type PaletteItem struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	Category    string   `json:"category"`
	Shortcut    string   `json:"shortcut,omitempty"`
	Score       float64  `json:"score"`
	Recent      bool     `json:"recent,omitempty"`
}

func (s *Server) handlePaletteSearch(w http.ResponseWriter, r *http.Request) {
	q := palette.ClampQuery(r.URL.Query().Get("q"))
	var recent []string
	if raw := strings.TrimSpace(r.URL.Query().Get("recent")); raw != "" {
		recent = strings.Split(raw, ",")
	}

	results := s.matcher.Rank(q, s.registry, recent, s.tailLimit)
	items := make([]PaletteItem, 0, len(results))
	for _, res := range results {
		items = append(items, paletteItem(res))
	}
	writeOK(w, map[string]any{
		"query":   q,
		"results": items,
	})
}

func paletteItem(res palette.Result) PaletteItem {
	return PaletteItem{
		ID:          res.Command.ID,
		Title:       res.Command.Title,
		Description: res.Command.Description,
		Keywords:    res.Command.Keywords,
		Category:    string(res.Command.Category),
		Shortcut:    res.Command.Shortcut,
		Score:       res.Score,
		Recent:      res.Recent,
	}
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		writeError(w, http.StatusNotFound, "Not found", r.URL.Path)
		return
	}
	s.renderPage(w, r, http.StatusNotFound, pageData{Title: "Not found", Heading: "Page not found"})
}
