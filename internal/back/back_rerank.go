package back

import (
	"fmt"
	"log"
	"time"

	"kicker/internal/util"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

// Rerank rebuilds every rating, counter, and ledger row from the Match
// table alone, replaying matches in played order. This is the repair path
// after deletions, since DeleteMatch leaves ratings untouched.
func (b *Back) Rerank() error {
	start := time.Now()

	if err := b.transaction(b.rerank); err != nil {
		return err
	}

	log.Printf("info: recomputed rankings in %s", time.Since(start))

	return nil
}

func (b *Back) rerank(tx *sqlx.Tx) error {
	if _, err := tx.Exec(`DELETE FROM RatingHistory`); err != nil {
		return fmt.Errorf("unable to prune rating history: %w", err)
	}

	var players []Player
	if err := tx.Select(&players, `SELECT * FROM Player`); err != nil {
		return err
	}
	playerState := make(map[util.UUIDAsBlob]*Player, len(players))
	for k := range players {
		players[k].Rating = DefaultRating
		players[k].MatchCount = 0
		players[k].WinCount = 0
		players[k].LossCount = 0
		playerState[players[k].ID] = &players[k]
	}

	var teams []Team
	if err := tx.Select(&teams, `SELECT * FROM Team`); err != nil {
		return err
	}
	teamState := make(map[util.UUIDAsBlob]*Team, len(teams))
	seeded := make(map[util.UUIDAsBlob]bool, len(teams))
	for k := range teams {
		teams[k].LastMatchAt = util.NullTimeAsTimestamp{}
		teamState[teams[k].ID] = &teams[k]
	}

	// A team's rating was seeded from its members' ratings as they were
	// when the pair first played, so the replay seeds it the same way.
	seedTeam := func(team *Team) error {
		if seeded[team.ID] {
			return nil
		}

		seed, err := TeamRating(
			playerState[team.Player1ID].Rating,
			playerState[team.Player2ID].Rating,
		)
		if err != nil {
			return err
		}

		team.Rating = seed
		seeded[team.ID] = true

		return nil
	}

	var matches []Match
	if err := tx.Select(&matches, `SELECT * FROM Match ORDER BY PlayedAt ASC, CreatedAt ASC`); err != nil {
		return err
	}

	for k := range matches {
		if err := b.replayMatch(tx, matches[k], playerState, teamState, seedTeam); err != nil {
			return fmt.Errorf("unable to replay match %s: %w", matches[k].ID, err)
		}
	}

	// Teams that never played keep their creation-time seed semantics:
	// member ratings as they stand at the end of the replay.
	for _, team := range teamState {
		if err := seedTeam(team); err != nil {
			return err
		}
	}

	for _, p := range playerState {
		if err := p.rewrite(tx); err != nil {
			return err
		}
	}
	for _, team := range teamState {
		if err := team.rewrite(tx); err != nil {
			return err
		}
	}

	log.Printf("info: replayed %d matches for %d players and %d teams",
		len(matches), len(players), len(teams))

	return nil
}

func (b *Back) replayMatch(
	tx *sqlx.Tx,
	match Match,
	playerState map[util.UUIDAsBlob]*Player,
	teamState map[util.UUIDAsBlob]*Team,
	seedTeam func(*Team) error,
) error {
	winner, ok := teamState[match.WinnerTeamID]
	if !ok {
		return ErrNotFound("winning team row is missing")
	}
	loser, ok := teamState[match.LoserTeamID]
	if !ok {
		return ErrNotFound("losing team row is missing")
	}

	if err := seedTeam(winner); err != nil {
		return err
	}
	if err := seedTeam(loser); err != nil {
		return err
	}

	winSide := [2]Player{*playerState[winner.Player1ID], *playerState[winner.Player2ID]}
	loseSide := [2]Player{*playerState[loser.Player1ID], *playerState[loser.Player2ID]}

	changes, err := computeChanges(*winner, *loser, winSide, loseSide)
	if err != nil {
		return err
	}

	playedAt := match.PlayedAt.Time()

	for _, p := range winSide {
		state := playerState[p.ID]
		state.Rating = changes[p.ID].NewRating
		state.MatchCount++
		state.WinCount++
	}
	for _, p := range loseSide {
		state := playerState[p.ID]
		state.Rating = changes[p.ID].NewRating
		state.MatchCount++
		state.LossCount++
	}

	winner.Rating = changes[winner.ID].NewRating
	winner.LastMatchAt = util.NewNullTimeAsTimestamp(playedAt)
	loser.Rating = changes[loser.ID].NewRating
	loser.LastMatchAt = winner.LastMatchAt

	for id, kind := range map[util.UUIDAsBlob]RatingOwnerKind{
		winSide[0].ID: RatingOwnerPlayer, winSide[1].ID: RatingOwnerPlayer,
		loseSide[0].ID: RatingOwnerPlayer, loseSide[1].ID: RatingOwnerPlayer,
		winner.ID: RatingOwnerTeam, loser.ID: RatingOwnerTeam,
	} {
		history := newRatingHistory(
			id, kind, match.ID,
			changes[id].OldRating, changes[id].NewRating, playedAt,
		)
		if err := history.insert(tx); err != nil {
			return err
		}
	}

	return nil
}

// rewrite stores the replayed state unconditionally, the rerank
// transaction owns every row it touches.
func (p *Player) rewrite(tx *sqlx.Tx) error {
	query, args, err := squirrel.Update("Player").SetMap(squirrel.Eq{
		"Rating":     p.Rating,
		"MatchCount": p.MatchCount,
		"WinCount":   p.WinCount,
		"LossCount":  p.LossCount,
		"Version":    p.Version + 1,
	}).Where("Player.ID = ?", p.ID).ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(query, args...); err != nil {
		return err
	}

	return nil
}

func (t *Team) rewrite(tx *sqlx.Tx) error {
	query, args, err := squirrel.Update("Team").SetMap(squirrel.Eq{
		"Rating":      t.Rating,
		"LastMatchAt": t.LastMatchAt,
		"Version":     t.Version + 1,
	}).Where("Team.ID = ?", t.ID).ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(query, args...); err != nil {
		return err
	}

	return nil
}
