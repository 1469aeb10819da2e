package back

import (
	"database/sql"
	"errors"
	"time"

	"kicker/internal/util"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

// A Team is the canonical pairing of two distinct players. Player1ID is
// always the lower UUID so a pair has exactly one row no matter the order
// it was reported in; the UNIQUE index on the pair is what actually holds
// under concurrent creation.
type Team struct {
	ID        util.UUIDAsBlob
	CreatedAt util.TimeAsTimestamp
	Player1ID util.UUIDAsBlob
	Player2ID util.UUIDAsBlob
	Rating    int

	LastMatchAt util.NullTimeAsTimestamp

	Version int
}

// canonicalPair orders two player ids the way Team stores them.
func canonicalPair(a, b util.UUIDAsBlob) (util.UUIDAsBlob, util.UUIDAsBlob, error) {
	if a == b {
		return util.UUIDAsBlob{}, util.UUIDAsBlob{}, ErrValidation("a team requires two distinct players")
	}

	if b.Before(a) {
		return b, a, nil
	}

	return a, b, nil
}

func newTeam(p1, p2 Player) (Team, error) {
	seed, err := TeamRating(p1.Rating, p2.Rating)
	if err != nil {
		return Team{}, err
	}

	return Team{
		ID:        util.NewUUIDAsBlob(),
		CreatedAt: util.TimeAsTimestamp(time.Now()),
		Player1ID: p1.ID,
		Player2ID: p2.ID,
		Rating:    seed,
	}, nil
}

func (t *Team) insert(tx *sqlx.Tx) error {
	query, args, err := squirrel.Insert("Team").SetMap(squirrel.Eq{
		"ID":          t.ID,
		"CreatedAt":   t.CreatedAt,
		"Player1ID":   t.Player1ID,
		"Player2ID":   t.Player2ID,
		"Rating":      t.Rating,
		"LastMatchAt": t.LastMatchAt,
		"Version":     t.Version,
	}).ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(query, args...); err != nil {
		return err
	}

	return nil
}

// updateRating writes the new rating and activity timestamp, guarded by
// the version read at snapshot time.
func (t *Team) updateRating(tx *sqlx.Tx, newRating int, lastMatchAt time.Time) error {
	query, args, err := squirrel.Update("Team").SetMap(squirrel.Eq{
		"Rating":      newRating,
		"LastMatchAt": util.NewNullTimeAsTimestamp(lastMatchAt),
		"Version":     t.Version + 1,
	}).Where(squirrel.Eq{
		"Team.ID":      t.ID,
		"Team.Version": t.Version,
	}).ToSql()
	if err != nil {
		return err
	}

	res, err := tx.Exec(query, args...)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errStaleRating
	}

	return nil
}

func getTeamByID(tx *sqlx.Tx, id util.UUIDAsBlob) (Team, error) {
	var ret Team
	query := `SELECT * FROM Team WHERE Team.ID = ? LIMIT 1`
	if err := tx.Get(&ret, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Team{}, ErrNotFound("team not found")
		}

		return Team{}, err
	}

	return ret, nil
}

func getTeamByPair(tx *sqlx.Tx, p1, p2 util.UUIDAsBlob) (Team, error) {
	var ret Team
	query := `SELECT * FROM Team WHERE Team.Player1ID = ? AND Team.Player2ID = ? LIMIT 1`
	if err := tx.Get(&ret, query, p1, p2); err != nil {
		return Team{}, err
	}

	return ret, nil
}

func getTeamsByIDs(tx *sqlx.Tx, ids []util.UUIDAsBlob) (map[util.UUIDAsBlob]Team, error) {
	if len(ids) == 0 {
		return map[util.UUIDAsBlob]Team{}, nil
	}

	query, args, err := sqlx.In(`SELECT * FROM Team WHERE ID IN(?)`, ids)
	if err != nil {
		return nil, err
	}
	query = tx.Rebind(query)

	teams := make([]Team, 0, len(ids))
	if err := tx.Select(&teams, query, args...); err != nil {
		return nil, err
	}

	ret := make(map[util.UUIDAsBlob]Team, len(teams))
	for k := range teams {
		ret[teams[k].ID] = teams[k]
	}

	return ret, nil
}

// findOrCreateTeam resolves a reported pairing to its canonical Team,
// creating it on first sight with a rating seeded from the two players'
// current ratings. Loses the race to a concurrent first creation with
// ErrConflict, which is safe to retry.
func findOrCreateTeam(tx *sqlx.Tx, a, b util.UUIDAsBlob) (Team, error) {
	id1, id2, err := canonicalPair(a, b)
	if err != nil {
		return Team{}, err
	}

	team, err := getTeamByPair(tx, id1, id2)
	if err == nil {
		return team, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Team{}, err
	}

	p1, err := getPlayerByID(tx, id1)
	if err != nil {
		return Team{}, err
	}
	p2, err := getPlayerByID(tx, id2)
	if err != nil {
		return Team{}, err
	}

	team, err = newTeam(p1, p2)
	if err != nil {
		return Team{}, err
	}

	if err := team.insert(tx); err != nil {
		return Team{}, wrapConstraintErr(err, ErrConflict("this team was created concurrently, retry"))
	}

	return team, nil
}

// FindOrCreateTeam is id-stable: both argument orders resolve to the same
// Team row.
func (b *Back) FindOrCreateTeam(p1, p2 util.UUIDAsBlob) (team Team, _ error) {
	if err := b.transaction(func(tx *sqlx.Tx) (err error) {
		team, err = findOrCreateTeam(tx, p1, p2)
		return err
	}); err != nil {
		return Team{}, err
	}

	return team, nil
}

func (b *Back) GetTeamByID(id util.UUIDAsBlob) (team Team, _ error) {
	if err := b.transaction(func(tx *sqlx.Tx) (err error) {
		team, err = getTeamByID(tx, id)
		return err
	}); err != nil {
		return Team{}, err
	}

	return team, nil
}
