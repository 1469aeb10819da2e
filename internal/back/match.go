package back

import (
	"database/sql"
	"errors"
	"time"

	"kicker/internal/util"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"gopkg.in/guregu/null.v4"
)

// A Match is the immutable record of one played game. Outcome fields are
// never mutated, the only way out is DeleteMatch.
type Match struct {
	ID        util.UUIDAsBlob
	CreatedAt util.TimeAsTimestamp

	WinnerTeamID util.UUIDAsBlob
	LoserTeamID  util.UUIDAsBlob

	// IsFanny records a shutout. It does not change the rating math.
	IsFanny  bool
	PlayedAt util.TimeAsTimestamp
	Notes    null.String
}

func NewMatch(winner, loser Team, isFanny bool, playedAt time.Time, notes string) Match {
	return Match{
		ID:           util.NewUUIDAsBlob(),
		CreatedAt:    util.TimeAsTimestamp(time.Now()),
		WinnerTeamID: winner.ID,
		LoserTeamID:  loser.ID,
		IsFanny:      isFanny,
		PlayedAt:     util.TimeAsTimestamp(playedAt),
		Notes:        null.NewString(notes, notes != ""),
	}
}

func (m *Match) insert(tx *sqlx.Tx) error {
	query, args, err := squirrel.Insert("Match").SetMap(squirrel.Eq{
		"ID":           m.ID,
		"CreatedAt":    m.CreatedAt,
		"WinnerTeamID": m.WinnerTeamID,
		"LoserTeamID":  m.LoserTeamID,
		"IsFanny":      m.IsFanny,
		"PlayedAt":     m.PlayedAt,
		"Notes":        m.Notes,
	}).ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(query, args...); err != nil {
		return err
	}

	return nil
}

func (m *Match) delete(tx *sqlx.Tx) error {
	if _, err := tx.Exec(`DELETE FROM Match WHERE ID = ?`, m.ID); err != nil {
		return err
	}

	return nil
}

func getMatchByID(tx *sqlx.Tx, id util.UUIDAsBlob) (Match, error) {
	var ret Match
	query := `SELECT * FROM Match WHERE Match.ID = ? LIMIT 1`
	if err := tx.Get(&ret, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Match{}, ErrNotFound("match not found")
		}

		return Match{}, err
	}

	return ret, nil
}

// MatchFilter narrows and paginates match lists. A Limit of zero or less
// yields an empty list, out-of-range offsets likewise; a negative Offset
// reads from the start.
type MatchFilter struct {
	Limit  int
	Offset int

	From, To time.Time // PlayedAt range, zero means unbounded
	Fanny    *bool
}

func (f MatchFilter) apply(builder squirrel.SelectBuilder) squirrel.SelectBuilder {
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	if !f.From.IsZero() {
		builder = builder.Where("Match.PlayedAt >= ?", f.From.Unix())
	}
	if !f.To.IsZero() {
		builder = builder.Where("Match.PlayedAt <= ?", f.To.Unix())
	}
	if f.Fanny != nil {
		builder = builder.Where(squirrel.Eq{"Match.IsFanny": *f.Fanny})
	}

	return builder.
		OrderBy("Match.PlayedAt DESC").
		Limit(uint64(f.Limit)).
		Offset(uint64(offset))
}

func getMatches(tx *sqlx.Tx, filter MatchFilter) ([]Match, error) {
	if filter.Limit <= 0 {
		return []Match{}, nil
	}

	query, args, err := filter.apply(squirrel.Select("*").From("Match")).ToSql()
	if err != nil {
		return nil, err
	}

	matches := []Match{}
	if err := tx.Select(&matches, query, args...); err != nil {
		return nil, err
	}

	return matches, nil
}

func getMatchesForTeam(tx *sqlx.Tx, teamID util.UUIDAsBlob, filter MatchFilter) ([]Match, error) {
	if filter.Limit <= 0 {
		return []Match{}, nil
	}

	query, args, err := filter.apply(squirrel.Select("*").From("Match").Where(
		squirrel.Or{
			squirrel.Eq{"Match.WinnerTeamID": teamID},
			squirrel.Eq{"Match.LoserTeamID": teamID},
		},
	)).ToSql()
	if err != nil {
		return nil, err
	}

	matches := []Match{}
	if err := tx.Select(&matches, query, args...); err != nil {
		return nil, err
	}

	return matches, nil
}

func getMatchesForPlayer(tx *sqlx.Tx, playerID util.UUIDAsBlob, filter MatchFilter) ([]Match, error) {
	if filter.Limit <= 0 {
		return []Match{}, nil
	}

	memberOf := `SELECT ID FROM Team WHERE Team.Player1ID = ? OR Team.Player2ID = ?`
	query, args, err := filter.apply(squirrel.Select("*").From("Match").Where(
		squirrel.Or{
			squirrel.Expr("Match.WinnerTeamID IN ("+memberOf+")", playerID, playerID),
			squirrel.Expr("Match.LoserTeamID IN ("+memberOf+")", playerID, playerID),
		},
	)).ToSql()
	if err != nil {
		return nil, err
	}

	matches := []Match{}
	if err := tx.Select(&matches, query, args...); err != nil {
		return nil, err
	}

	return matches, nil
}
