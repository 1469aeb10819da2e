package back

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"kicker/internal/util"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

// A Player is a league member with a single scalar rating. MatchCount,
// WinCount, and LossCount are caches over the Match table, Rerank rebuilds
// them.
type Player struct {
	ID        util.UUIDAsBlob
	CreatedAt util.TimeAsTimestamp
	Name      string
	Rating    int

	MatchCount int
	WinCount   int
	LossCount  int

	// Version guards concurrent rating writes, see updateRating.
	Version int
}

func NewPlayer(name string) Player {
	return Player{
		ID:        util.NewUUIDAsBlob(),
		CreatedAt: util.TimeAsTimestamp(time.Now()),
		Name:      name,
		Rating:    DefaultRating,
	}
}

func (p *Player) insert(tx *sqlx.Tx) error {
	query, args, err := squirrel.Insert("Player").SetMap(squirrel.Eq{
		"ID":         p.ID,
		"CreatedAt":  p.CreatedAt,
		"Name":       p.Name,
		"Rating":     p.Rating,
		"MatchCount": p.MatchCount,
		"WinCount":   p.WinCount,
		"LossCount":  p.LossCount,
		"Version":    p.Version,
	}).ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(query, args...); err != nil {
		return err
	}

	return nil
}

// updateRating writes the new rating and counters, guarded by the version
// read at snapshot time. Returns errStaleRating if another settlement got
// there first.
func (p *Player) updateRating(tx *sqlx.Tx, newRating int, won bool) error {
	wins, losses := p.WinCount, p.LossCount
	if won {
		wins++
	} else {
		losses++
	}

	query, args, err := squirrel.Update("Player").SetMap(squirrel.Eq{
		"Rating":     newRating,
		"MatchCount": p.MatchCount + 1,
		"WinCount":   wins,
		"LossCount":  losses,
		"Version":    p.Version + 1,
	}).Where(squirrel.Eq{
		"Player.ID":      p.ID,
		"Player.Version": p.Version,
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

func (p *Player) rename(tx *sqlx.Tx, name string) error {
	query, args, err := squirrel.Update("Player").SetMap(squirrel.Eq{
		"Name": name,
	}).Where("Player.ID = ?", p.ID).ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(query, args...); err != nil {
		return err
	}

	return nil
}

func getPlayerByID(tx *sqlx.Tx, id util.UUIDAsBlob) (Player, error) {
	var ret Player
	query := `SELECT * FROM Player WHERE Player.ID = ? LIMIT 1`
	if err := tx.Get(&ret, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Player{}, ErrNotFound("player not found")
		}

		return Player{}, err
	}

	return ret, nil
}

func getPlayerByName(tx *sqlx.Tx, name string) (Player, error) {
	var ret Player
	query := `SELECT * FROM Player WHERE Player.Name = ? LIMIT 1`
	if err := tx.Get(&ret, query, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Player{}, ErrNotFound("player not found")
		}

		return Player{}, err
	}

	return ret, nil
}

func getPlayersByIDs(tx *sqlx.Tx, ids []util.UUIDAsBlob) (map[util.UUIDAsBlob]Player, error) {
	if len(ids) == 0 {
		return map[util.UUIDAsBlob]Player{}, nil
	}

	query, args, err := sqlx.In(`SELECT * FROM Player WHERE ID IN(?)`, ids)
	if err != nil {
		return nil, err
	}
	query = tx.Rebind(query)

	players := make([]Player, 0, len(ids))
	if err := tx.Select(&players, query, args...); err != nil {
		return nil, err
	}

	ret := make(map[util.UUIDAsBlob]Player, len(players))
	for k := range players {
		ret[players[k].ID] = players[k]
	}

	return ret, nil
}

func validatePlayerName(name string) error {
	if len(name) < 3 || len(name) > 32 {
		return ErrValidation("a player name must be between 3 and 32 characters")
	}

	return nil
}

// RegisterPlayer creates a league member with the default rating. The
// UNIQUE index on Player.Name is the actual guarantee, the lookup only
// provides the friendlier error.
func (b *Back) RegisterPlayer(name string) (player Player, _ error) {
	if err := validatePlayerName(name); err != nil {
		return Player{}, err
	}

	if err := b.transaction(func(tx *sqlx.Tx) error {
		if _, err := getPlayerByName(tx, name); err == nil {
			return ErrConflict(fmt.Sprintf("the name '%s' is taken already", name))
		}

		player = NewPlayer(name)
		if err := player.insert(tx); err != nil {
			return wrapConstraintErr(err, ErrConflict(fmt.Sprintf("the name '%s' is taken already", name)))
		}

		return nil
	}); err != nil {
		return Player{}, err
	}

	return player, nil
}

func (b *Back) RenamePlayer(id util.UUIDAsBlob, name string) (player Player, _ error) {
	if err := validatePlayerName(name); err != nil {
		return Player{}, err
	}

	if err := b.transaction(func(tx *sqlx.Tx) (err error) {
		player, err = getPlayerByID(tx, id)
		if err != nil {
			return err
		}
		if player.Name == name {
			return nil
		}

		if _, err := getPlayerByName(tx, name); err == nil {
			return ErrConflict(fmt.Sprintf("the name '%s' is taken already", name))
		}

		if err := player.rename(tx, name); err != nil {
			return wrapConstraintErr(err, ErrConflict(fmt.Sprintf("the name '%s' is taken already", name)))
		}
		player.Name = name

		return nil
	}); err != nil {
		return Player{}, err
	}

	return player, nil
}

func (b *Back) GetPlayerByID(id util.UUIDAsBlob) (player Player, _ error) {
	if err := b.transaction(func(tx *sqlx.Tx) (err error) {
		player, err = getPlayerByID(tx, id)
		return err
	}); err != nil {
		return Player{}, err
	}

	return player, nil
}

func (b *Back) GetPlayerByName(name string) (player Player, _ error) {
	if err := b.transaction(func(tx *sqlx.Tx) (err error) {
		player, err = getPlayerByName(tx, name)
		return err
	}); err != nil {
		return Player{}, err
	}

	return player, nil
}

// GetLeaderboard returns players by decreasing rating, ties broken by
// seniority.
func (b *Back) GetLeaderboard(limit int) (players []Player, _ error) {
	if limit <= 0 {
		return []Player{}, nil
	}

	if err := b.transaction(func(tx *sqlx.Tx) error {
		query := `SELECT * FROM Player ORDER BY Rating DESC, CreatedAt ASC LIMIT ?`
		return tx.Select(&players, query, limit)
	}); err != nil {
		return nil, err
	}

	return players, nil
}
