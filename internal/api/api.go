// Package api exposes the reconciled data over a read-only HTTP API:
// player search by hometown, high school and college, tournament results,
// and the scrape ledger.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/fairway-media/golftracker/internal/model"
	"github.com/fairway-media/golftracker/internal/store"
)

const defaultPageSize = 50

// Server answers read-only queries against the store.
type Server struct {
	store store.Store
}

func NewServer(s store.Store) *Server {
	return &Server{store: s}
}

// Routes builds the router. All endpoints are GET; writes only ever happen
// through the pipeline.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/leagues", s.handleLeagues)
		r.Get("/players", s.handlePlayers)
		r.Get("/players/{id}", s.handlePlayer)
		r.Get("/tournaments", s.handleTournaments)
		r.Get("/tournaments/{id}/results", s.handleResults)
		r.Get("/runs", s.handleRuns)
		r.Get("/runs/stats", s.handleRunStats)
	})

	return r
}

func (s *Server) handleLeagues(w http.ResponseWriter, r *http.Request) {
	leagues, err := s.store.ListLeagues(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, leagues)
}

func (s *Server) handlePlayers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.PlayerFilter{
		HighSchool:    q.Get("high_school"),
		HometownCity:  q.Get("city"),
		HometownState: q.Get("state"),
		College:       q.Get("college"),
		League:        q.Get("league"),
		Limit:         intParam(q.Get("limit"), defaultPageSize),
		Offset:        intParam(q.Get("offset"), 0),
	}
	players, err := s.store.SearchPlayers(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, players)
}

// playerDetail carries the player together with who asserted each field.
type playerDetail struct {
	Player     *model.Player               `json:"player"`
	Provenance map[string]model.Provenance `json:"provenance,omitempty"`
}

func (s *Server) handlePlayer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, `{"error":"invalid player id"}`, http.StatusBadRequest)
		return
	}
	player, err := s.store.GetPlayer(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if player == nil {
		http.Error(w, `{"error":"player not found"}`, http.StatusNotFound)
		return
	}
	prov, err := s.store.GetProvenance(r.Context(), model.EntityPlayer, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, playerDetail{Player: player, Provenance: prov})
}

func (s *Server) handleTournaments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.TournamentFilter{
		League: q.Get("league"),
		Year:   intParam(q.Get("year"), 0),
		Limit:  intParam(q.Get("limit"), defaultPageSize),
		Offset: intParam(q.Get("offset"), 0),
	}
	tournaments, err := s.store.ListTournaments(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tournaments)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, `{"error":"invalid tournament id"}`, http.StatusBadRequest)
		return
	}
	tournament, err := s.store.GetTournament(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if tournament == nil {
		http.Error(w, `{"error":"tournament not found"}`, http.StatusNotFound)
		return
	}
	results, err := s.store.ListResults(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"tournament": tournament,
		"results":    results,
	})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.RunFilter{
		Source: q.Get("source"),
		Status: model.RunStatus(q.Get("status")),
		League: q.Get("league"),
		Limit:  intParam(q.Get("limit"), defaultPageSize),
		Offset: intParam(q.Get("offset"), 0),
	}
	runs, err := s.store.ListScrapeRuns(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleRunStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.ScrapeRunStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, err error) {
	zap.L().Error("query failed", zap.Error(err))
	http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
}

func intParam(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
