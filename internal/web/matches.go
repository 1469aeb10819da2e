package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"kicker/internal/back"
	"kicker/internal/util"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

type createMatchRequest struct {
	// Either resolved team ids or raw player pairs, per side.
	WinnerTeamID    string    `json:"winner_team_id"`
	LoserTeamID     string    `json:"loser_team_id"`
	WinnerPlayerIDs [2]string `json:"winner_player_ids"`
	LoserPlayerIDs  [2]string `json:"loser_player_ids"`

	IsFanny  bool   `json:"is_fanny"`
	PlayedAt string `json:"played_at"`
	Notes    string `json:"notes"`
}

// sidePlayers resolves one side of the payload to its two player ids,
// preferring the explicit pair over the team id.
func (s *Server) sidePlayers(teamID string, playerIDs [2]string) ([2]util.UUIDAsBlob, error) {
	var ret [2]util.UUIDAsBlob

	if playerIDs[0] != "" || playerIDs[1] != "" {
		for i, str := range playerIDs {
			id, err := util.ParseUUIDAsBlob(str)
			if err != nil {
				return ret, util.ErrPublic("invalid player id: " + str)
			}
			ret[i] = id
		}

		return ret, nil
	}

	id, err := util.ParseUUIDAsBlob(teamID)
	if err != nil {
		return ret, util.ErrPublic("each side requires a team id or two player ids")
	}

	team, err := s.back.GetTeamByID(id)
	if err != nil {
		return ret, err
	}

	return [2]util.UUIDAsBlob{team.Player1ID, team.Player2ID}, nil
}

func (s *Server) createMatch(w http.ResponseWriter, r *http.Request) {
	var payload createMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.badRequest(w, "invalid JSON payload")
		return
	}

	playedAt, err := time.Parse(time.RFC3339, payload.PlayedAt)
	if err != nil {
		s.badRequest(w, "played_at must be an RFC 3339 timestamp")
		return
	}

	winners, err := s.sidePlayers(payload.WinnerTeamID, payload.WinnerPlayerIDs)
	if err != nil {
		s.domainError(w, err)
		return
	}
	losers, err := s.sidePlayers(payload.LoserTeamID, payload.LoserPlayerIDs)
	if err != nil {
		s.domainError(w, err)
		return
	}

	result, err := s.back.SettleMatch(winners, losers, payload.IsFanny, playedAt, payload.Notes)
	if err != nil {
		s.domainError(w, err)
		return
	}

	s.response(w, http.StatusCreated, result)
}

func (s *Server) getMatches(w http.ResponseWriter, r *http.Request) {
	filter, err := parseMatchFilter(r)
	if err != nil {
		s.domainError(w, err)
		return
	}

	matches, err := s.back.GetMatches(filter)
	if err != nil {
		s.domainError(w, err)
		return
	}

	s.response(w, http.StatusOK, matches)
}

func (s *Server) getMatch(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r)
	if err != nil {
		s.badRequest(w, "invalid match id")
		return
	}

	match, err := s.back.GetMatch(id)
	if err != nil {
		s.domainError(w, err)
		return
	}

	s.response(w, http.StatusOK, match)
}

func (s *Server) deleteMatch(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r)
	if err != nil {
		s.badRequest(w, "invalid match id")
		return
	}

	if err := s.back.DeleteMatch(id); err != nil {
		s.domainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getPlayerMatches(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r)
	if err != nil {
		s.badRequest(w, "invalid player id")
		return
	}

	filter, err := parseMatchFilter(r)
	if err != nil {
		s.domainError(w, err)
		return
	}

	matches, err := s.back.GetMatchesForPlayer(id, filter)
	if err != nil {
		s.domainError(w, err)
		return
	}

	s.response(w, http.StatusOK, matches)
}

func (s *Server) getTeamMatches(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r)
	if err != nil {
		s.badRequest(w, "invalid team id")
		return
	}

	filter, err := parseMatchFilter(r)
	if err != nil {
		s.domainError(w, err)
		return
	}

	matches, err := s.back.GetMatchesForTeam(id, filter)
	if err != nil {
		s.domainError(w, err)
		return
	}

	s.response(w, http.StatusOK, matches)
}

func parseMatchFilter(r *http.Request) (back.MatchFilter, error) {
	filter := back.MatchFilter{Limit: defaultPageSize}
	query := r.URL.Query()

	if str := query.Get("limit"); str != "" {
		limit, err := strconv.Atoi(str)
		if err != nil {
			return back.MatchFilter{}, util.ErrPublic("limit must be an integer")
		}
		if limit > maxPageSize {
			limit = maxPageSize
		}
		filter.Limit = limit
	}

	if str := query.Get("offset"); str != "" {
		offset, err := strconv.Atoi(str)
		if err != nil || offset < 0 {
			return back.MatchFilter{}, util.ErrPublic("offset must be a positive integer")
		}
		filter.Offset = offset
	}

	if str := query.Get("from"); str != "" {
		from, err := time.Parse(time.RFC3339, str)
		if err != nil {
			return back.MatchFilter{}, util.ErrPublic("from must be an RFC 3339 timestamp")
		}
		filter.From = from
	}

	if str := query.Get("to"); str != "" {
		to, err := time.Parse(time.RFC3339, str)
		if err != nil {
			return back.MatchFilter{}, util.ErrPublic("to must be an RFC 3339 timestamp")
		}
		filter.To = to
	}

	if str := query.Get("fanny"); str != "" {
		fanny, err := strconv.ParseBool(str)
		if err != nil {
			return back.MatchFilter{}, util.ErrPublic("fanny must be a boolean")
		}
		filter.Fanny = &fanny
	}

	return filter, nil
}
