package back

import (
	"time"

	"kicker/internal/util"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

type RatingOwnerKind int

const ( // this is stored in DB, don't change values
	RatingOwnerPlayer RatingOwnerKind = 0
	RatingOwnerTeam   RatingOwnerKind = 1
)

// A RatingHistory row is the append-only ledger entry written once per
// player and per team for every settled match. Rating fields and counters
// elsewhere are caches over this ledger plus the Match table.
type RatingHistory struct {
	ID        util.UUIDAsBlob
	OwnerID   util.UUIDAsBlob
	OwnerKind RatingOwnerKind
	MatchID   util.UUIDAsBlob

	OldRating  int
	NewRating  int
	Difference int

	// PlayedAt mirrors the Match row for cheap time-series reads.
	PlayedAt util.TimeAsTimestamp
}

func newRatingHistory(
	ownerID util.UUIDAsBlob, kind RatingOwnerKind, matchID util.UUIDAsBlob,
	oldRating, newRating int, playedAt time.Time,
) RatingHistory {
	return RatingHistory{
		ID:         util.NewUUIDAsBlob(),
		OwnerID:    ownerID,
		OwnerKind:  kind,
		MatchID:    matchID,
		OldRating:  oldRating,
		NewRating:  newRating,
		Difference: newRating - oldRating,
		PlayedAt:   util.TimeAsTimestamp(playedAt),
	}
}

func (h *RatingHistory) insert(tx *sqlx.Tx) error {
	query, args, err := squirrel.Insert("RatingHistory").SetMap(squirrel.Eq{
		"ID":         h.ID,
		"OwnerID":    h.OwnerID,
		"OwnerKind":  h.OwnerKind,
		"MatchID":    h.MatchID,
		"OldRating":  h.OldRating,
		"NewRating":  h.NewRating,
		"Difference": h.Difference,
		"PlayedAt":   h.PlayedAt,
	}).ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(query, args...); err != nil {
		return err
	}

	return nil
}

func getRatingHistoryByMatchIDs(
	tx *sqlx.Tx, matchIDs []util.UUIDAsBlob,
) (map[util.UUIDAsBlob][]RatingHistory, error) {
	if len(matchIDs) == 0 {
		return map[util.UUIDAsBlob][]RatingHistory{}, nil
	}

	query, args, err := sqlx.In(`SELECT * FROM RatingHistory WHERE MatchID IN(?)`, matchIDs)
	if err != nil {
		return nil, err
	}
	query = tx.Rebind(query)

	var rows []RatingHistory
	if err := tx.Select(&rows, query, args...); err != nil {
		return nil, err
	}

	ret := make(map[util.UUIDAsBlob][]RatingHistory, len(matchIDs))
	for k := range rows {
		ret[rows[k].MatchID] = append(ret[rows[k].MatchID], rows[k])
	}

	return ret, nil
}

func getRatingHistoryForOwner(tx *sqlx.Tx, ownerID util.UUIDAsBlob) ([]RatingHistory, error) {
	rows := []RatingHistory{}
	query := `SELECT * FROM RatingHistory WHERE OwnerID = ? ORDER BY PlayedAt ASC`
	if err := tx.Select(&rows, query, ownerID); err != nil {
		return nil, err
	}

	return rows, nil
}

func deleteRatingHistoryByMatchID(tx *sqlx.Tx, matchID util.UUIDAsBlob) error {
	if _, err := tx.Exec(`DELETE FROM RatingHistory WHERE MatchID = ?`, matchID); err != nil {
		return err
	}

	return nil
}

// GetRatingHistory returns the rating time-series of a player or team,
// oldest first.
func (b *Back) GetRatingHistory(ownerID util.UUIDAsBlob) (rows []RatingHistory, _ error) {
	if err := b.transaction(func(tx *sqlx.Tx) (err error) {
		rows, err = getRatingHistoryForOwner(tx, ownerID)
		return err
	}); err != nil {
		return nil, err
	}

	return rows, nil
}
