// Package server translates the v0 HTTP/JSON surface into aggregation
// service calls. The core stays transport-agnostic; everything here is thin
// plumbing.
package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"fantasy-tracker/internal/domain"
	"fantasy-tracker/internal/metrics"
	"fantasy-tracker/internal/middleware"
	"fantasy-tracker/internal/quota"
	"fantasy-tracker/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type APIServer struct {
	aggregation *service.AggregationService
	enforcer    *quota.Enforcer
	db          *sql.DB
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

func NewAPIServer(
	aggregation *service.AggregationService,
	enforcer *quota.Enforcer,
	db *sql.DB,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *APIServer {
	return &APIServer{
		aggregation: aggregation,
		enforcer:    enforcer,
		db:          db,
		metrics:     m,
		logger:      logger,
	}
}

func (s *APIServer) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID(s.logger))
	r.Use(middleware.Metrics(s.metrics))

	r.Get("/", s.handleRoot)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	// Every data route passes quota admission.
	r.Route("/v0", func(r chi.Router) {
		r.Use(middleware.Quota(s.enforcer, s.metrics, s.logger))

		r.Get("/players/", s.handleListPlayers)
		r.Get("/players/{playerID}", s.handleGetPlayer)
		r.Get("/players/{playerID}/performances/", s.handleListPlayerPerformances)
		r.Get("/players/{playerID}/scores/", s.handlePlayerScores)
		r.Get("/performances/", s.handleListPerformances)
		r.Get("/leagues/", s.handleListLeagues)
		r.Get("/leagues/{leagueID}", s.handleGetLeague)
		r.Get("/leagues/{leagueID}/standings/", s.handleStandings)
		r.Get("/teams/", s.handleListTeams)
		r.Get("/teams/{teamID}/score/", s.handleTeamScore)
		r.Get("/counts/", s.handleCounts)
	})

	return r
}

func (s *APIServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "API health check successful"})
}

func (s *APIServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{
		"database": "ok",
		"quota":    "ok",
	}
	code := http.StatusOK

	if err := s.db.PingContext(r.Context()); err != nil {
		status["database"] = err.Error()
		code = http.StatusServiceUnavailable
	}
	if err := s.enforcer.Ping(r.Context()); err != nil {
		status["quota"] = err.Error()
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, status)
}

func (s *APIServer) handleListPlayers(w http.ResponseWriter, r *http.Request) {
	filter := domain.PlayerFilter{
		Skip:               queryInt(r, "skip", 0),
		Limit:              queryInt(r, "limit", 0),
		FirstName:          r.URL.Query().Get("first_name"),
		LastName:           r.URL.Query().Get("last_name"),
		MinLastChangedDate: queryDate(r, "minimum_last_changed_date"),
	}

	players, err := s.aggregation.GetAllPlayers(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]playerResponse, 0, len(players))
	for _, p := range players {
		out = append(out, toPlayerResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *APIServer) handleGetPlayer(w http.ResponseWriter, r *http.Request) {
	player, err := s.aggregation.GetPlayerByID(r.Context(), chi.URLParam(r, "playerID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlayerResponse(*player))
}

func (s *APIServer) handleListPlayerPerformances(w http.ResponseWriter, r *http.Request) {
	lines, err := s.aggregation.ListPlayerRecords(r.Context(), chi.URLParam(r, "playerID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatLineResponses(lines))
}

func (s *APIServer) handlePlayerScores(w http.ResponseWriter, r *http.Request) {
	season := queryInt(r, "season", 0)
	week := queryInt(r, "week", 0)
	if season == 0 || week == 0 {
		http.Error(w, "season and week query parameters are required", http.StatusBadRequest)
		return
	}

	perf, err := s.aggregation.GetPlayerPerformance(r.Context(), chi.URLParam(r, "playerID"), season, week)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPerformanceResponse(perf))
}

func (s *APIServer) handleListPerformances(w http.ResponseWriter, r *http.Request) {
	filter := domain.PerformanceFilter{
		Skip:               queryInt(r, "skip", 0),
		Limit:              queryInt(r, "limit", 0),
		MinLastChangedDate: queryDate(r, "minimum_last_changed_date"),
	}

	lines, err := s.aggregation.ListPerformances(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatLineResponses(lines))
}

func (s *APIServer) handleListLeagues(w http.ResponseWriter, r *http.Request) {
	filter := domain.LeagueFilter{
		Skip:               queryInt(r, "skip", 0),
		Limit:              queryInt(r, "limit", 0),
		LeagueName:         r.URL.Query().Get("league_name"),
		MinLastChangedDate: queryDate(r, "minimum_last_changed_date"),
	}

	leagues, err := s.aggregation.ListLeagues(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]leagueResponse, 0, len(leagues))
	for _, l := range leagues {
		out = append(out, toLeagueResponse(l))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *APIServer) handleGetLeague(w http.ResponseWriter, r *http.Request) {
	league, err := s.aggregation.GetLeague(r.Context(), chi.URLParam(r, "leagueID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeagueResponse(*league))
}

func (s *APIServer) handleStandings(w http.ResponseWriter, r *http.Request) {
	season := queryInt(r, "season", 0)
	upToWeek := queryInt(r, "up_to_week", 0)
	if season == 0 || upToWeek == 0 {
		http.Error(w, "season and up_to_week query parameters are required", http.StatusBadRequest)
		return
	}

	standings, err := s.aggregation.GetLeagueStandings(r.Context(), chi.URLParam(r, "leagueID"), season, upToWeek)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]standingResponse, 0, len(standings))
	for _, st := range standings {
		out = append(out, standingResponse{
			Rank:  st.Rank,
			Team:  toTeamResponse(st.Team),
			Total: st.Total,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *APIServer) handleListTeams(w http.ResponseWriter, r *http.Request) {
	filter := domain.TeamFilter{
		Skip:               queryInt(r, "skip", 0),
		Limit:              queryInt(r, "limit", 0),
		TeamName:           r.URL.Query().Get("team_name"),
		LeagueID:           r.URL.Query().Get("league_id"),
		MinLastChangedDate: queryDate(r, "minimum_last_changed_date"),
	}

	teams, err := s.aggregation.ListTeams(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]teamResponse, 0, len(teams))
	for _, t := range teams {
		out = append(out, toTeamResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *APIServer) handleTeamScore(w http.ResponseWriter, r *http.Request) {
	season := queryInt(r, "season", 0)
	week := queryInt(r, "week", 0)
	if season == 0 || week == 0 {
		http.Error(w, "season and week query parameters are required", http.StatusBadRequest)
		return
	}

	score, err := s.aggregation.GetTeamScore(r.Context(), chi.URLParam(r, "teamID"), season, week)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTeamScoreResponse(score))
}

func (s *APIServer) handleCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := s.aggregation.Counts(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, countsResponse{
		PlayerCount: counts.PlayerCount,
		TeamCount:   counts.TeamCount,
		LeagueCount: counts.LeagueCount,
	})
}

func (s *APIServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var malformed *domain.MalformedRecordError
	var configErr *domain.ConfigurationError

	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.As(err, &malformed):
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("malformed stat line")
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	case errors.As(err, &configErr):
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("league misconfigured")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	default:
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func queryDate(r *http.Request, key string) time.Time {
	if v := r.URL.Query().Get(key); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			return t
		}
	}
	return time.Time{}
}
