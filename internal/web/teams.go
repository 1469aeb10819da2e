package web

import (
	"encoding/json"
	"net/http"

	"kicker/internal/util"
)

type findOrCreateTeamRequest struct {
	Player1ID string `json:"player1_id"`
	Player2ID string `json:"player2_id"`
}

// findOrCreateTeam is id-stable: both orders of the same pair answer with
// the same team.
func (s *Server) findOrCreateTeam(w http.ResponseWriter, r *http.Request) {
	var payload findOrCreateTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.badRequest(w, "invalid JSON payload")
		return
	}

	p1, err := util.ParseUUIDAsBlob(payload.Player1ID)
	if err != nil {
		s.badRequest(w, "invalid player1_id")
		return
	}
	p2, err := util.ParseUUIDAsBlob(payload.Player2ID)
	if err != nil {
		s.badRequest(w, "invalid player2_id")
		return
	}

	team, err := s.back.FindOrCreateTeam(p1, p2)
	if err != nil {
		s.domainError(w, err)
		return
	}

	s.response(w, http.StatusOK, team)
}
