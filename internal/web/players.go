package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"kicker/internal/util"
)

type createPlayerRequest struct {
	Name string `json:"name"`
}

func (s *Server) createPlayer(w http.ResponseWriter, r *http.Request) {
	var payload createPlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.badRequest(w, "invalid JSON payload")
		return
	}

	player, err := s.back.RegisterPlayer(payload.Name)
	if err != nil {
		s.domainError(w, err)
		return
	}

	s.response(w, http.StatusCreated, player)
}

func (s *Server) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if str := r.URL.Query().Get("limit"); str != "" {
		parsed, err := strconv.Atoi(str)
		if err != nil {
			s.badRequest(w, "limit must be an integer")
			return
		}
		limit = parsed
	}

	players, err := s.back.GetLeaderboard(limit)
	if err != nil {
		s.domainError(w, err)
		return
	}

	s.response(w, http.StatusOK, players)
}

func (s *Server) getPlayerRatings(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r)
	if err != nil {
		s.badRequest(w, "invalid player id")
		return
	}

	s.ownerRatings(w, id)
}

func (s *Server) getTeamRatings(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r)
	if err != nil {
		s.badRequest(w, "invalid team id")
		return
	}

	s.ownerRatings(w, id)
}

func (s *Server) ownerRatings(w http.ResponseWriter, id util.UUIDAsBlob) {
	history, err := s.back.GetRatingHistory(id)
	if err != nil {
		s.domainError(w, err)
		return
	}

	s.response(w, http.StatusOK, history)
}
