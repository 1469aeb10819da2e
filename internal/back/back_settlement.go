package back

import (
	"errors"
	"fmt"
	"log"
	"time"

	"kicker/internal/util"

	"github.com/jmoiron/sqlx"
)

// errStaleRating signals that a Player or Team row changed between the
// snapshot read and the guarded write of a settlement.
var errStaleRating = errors.New("rating row changed since snapshot")

// settlementMaxAttempts bounds the retries on a stale snapshot. Every
// retry restarts from a fresh transaction so nothing durable exists yet.
const settlementMaxAttempts = 3

// RatingChange is one entity's rating transition for one match.
type RatingChange struct {
	OldRating  int
	NewRating  int
	Difference int
}

// SettlementResult is everything the caller needs to display the outcome
// without another query: the durable match, both teams and all four
// players after the update, and the per-entity rating changes keyed by
// player or team id.
type SettlementResult struct {
	Match   Match
	Winner  Team
	Loser   Team
	Players map[util.UUIDAsBlob]Player
	Changes map[util.UUIDAsBlob]RatingChange
}

// SettleMatch turns a reported outcome into persisted state: it resolves
// both pairings to their canonical teams, computes every rating change,
// inserts the immutable Match row, applies the player and team updates,
// and appends one ledger row per entity. The whole settlement runs in one
// transaction; a stale rating snapshot restarts it from scratch.
func (b *Back) SettleMatch(
	winners, losers [2]util.UUIDAsBlob,
	isFanny bool,
	playedAt time.Time,
	notes string,
) (SettlementResult, error) {
	if err := validateSettlementInput(winners, losers, playedAt); err != nil {
		return SettlementResult{}, err
	}

	return settleWithRetry(func() (SettlementResult, error) {
		return b.settleMatchOnce(winners, losers, isFanny, playedAt, notes)
	})
}

// settleWithRetry restarts an attempt on a stale rating snapshot. Every
// attempt runs in its own transaction so a restart never sees
// half-applied state; any other error passes straight through.
func settleWithRetry(attempt func() (SettlementResult, error)) (SettlementResult, error) {
	for i := 1; ; i++ {
		ret, err := attempt()
		if !errors.Is(err, errStaleRating) {
			return ret, err
		}

		if i >= settlementMaxAttempts {
			return SettlementResult{}, ErrConflict("another match settled concurrently, report the match again")
		}

		log.Printf("debug: stale rating snapshot, retrying settlement (attempt %d)", i)
	}
}

func validateSettlementInput(winners, losers [2]util.UUIDAsBlob, playedAt time.Time) error {
	if playedAt.IsZero() {
		return ErrValidation("a match requires a played-at timestamp")
	}

	ids := []util.UUIDAsBlob{winners[0], winners[1], losers[0], losers[1]}
	for i := range ids {
		if ids[i].IsZero() {
			return ErrValidation("a match requires four players")
		}
		for j := i + 1; j < len(ids); j++ {
			if ids[i] == ids[j] {
				return ErrValidation("a player cannot appear twice in the same match")
			}
		}
	}

	return nil
}

func (b *Back) settleMatchOnce(
	winners, losers [2]util.UUIDAsBlob,
	isFanny bool,
	playedAt time.Time,
	notes string,
) (SettlementResult, error) {
	tx, err := b.db.Beginx()
	if err != nil {
		return SettlementResult{}, err
	}

	// Past this point fail() decides between a clean abort and the
	// partial-settlement report, depending on whether the Match row was
	// already written when the rollback itself failed.
	var match Match
	matchInserted := false
	fail := func(err error) (SettlementResult, error) {
		if err2 := tx.Rollback(); err2 != nil {
			if matchInserted {
				return SettlementResult{}, ErrPartialSettlement{
					MatchID: match.ID,
					Cause:   fmt.Errorf("rollback failed: %s (original error: %s)", err2, err),
				}
			}

			return SettlementResult{}, fmt.Errorf("rollback error: %s\noriginal error: %s", err2, err)
		}

		return SettlementResult{}, err
	}

	winner, err := findOrCreateTeam(tx, winners[0], winners[1])
	if err != nil {
		return fail(fmt.Errorf("unable to resolve winning team: %w", err))
	}
	loser, err := findOrCreateTeam(tx, losers[0], losers[1])
	if err != nil {
		return fail(fmt.Errorf("unable to resolve losing team: %w", err))
	}

	winSide, err := getSidePlayers(tx, winners)
	if err != nil {
		return fail(err)
	}
	loseSide, err := getSidePlayers(tx, losers)
	if err != nil {
		return fail(err)
	}

	changes, err := computeChanges(winner, loser, winSide, loseSide)
	if err != nil {
		return fail(err)
	}

	match = NewMatch(winner, loser, isFanny, playedAt, notes)
	if err := match.insert(tx); err != nil {
		return fail(fmt.Errorf("unable to insert match: %w", err))
	}
	matchInserted = true

	if err := applySettlement(tx, match, winner, loser, winSide, loseSide, changes); err != nil {
		return fail(err)
	}

	if err := tx.Commit(); err != nil {
		return SettlementResult{}, fmt.Errorf("unable to commit settlement: %w", err)
	}

	return newSettlementResult(match, winner, loser, winSide, loseSide, changes), nil
}

func getSidePlayers(tx *sqlx.Tx, ids [2]util.UUIDAsBlob) ([2]Player, error) {
	var ret [2]Player
	for i, id := range ids {
		p, err := getPlayerByID(tx, id)
		if err != nil {
			return ret, err
		}
		ret[i] = p
	}

	return ret, nil
}

// computeChanges derives every rating transition of a settlement: the win
// probability comes from the two team ratings, each entity's delta from
// its own rating (so teammates with different ratings move by different
// amounts). New ratings are clamped at zero.
func computeChanges(
	winner, loser Team,
	winSide, loseSide [2]Player,
) (map[util.UUIDAsBlob]RatingChange, error) {
	pWin, err := WinProbability(winner.Rating, loser.Rating)
	if err != nil {
		return nil, err
	}
	pLoss := 1.0 - pWin

	changes := make(map[util.UUIDAsBlob]RatingChange, 6)

	add := func(id util.UUIDAsBlob, rating int, probability, result float64) error {
		delta, err := RatingDelta(rating, probability, result)
		if err != nil {
			return err
		}

		newRating := rating + delta
		if newRating < 0 {
			newRating = 0
		}

		changes[id] = RatingChange{
			OldRating:  rating,
			NewRating:  newRating,
			Difference: newRating - rating,
		}

		return nil
	}

	for _, p := range winSide {
		if err := add(p.ID, p.Rating, pWin, 1); err != nil {
			return nil, err
		}
	}
	for _, p := range loseSide {
		if err := add(p.ID, p.Rating, pLoss, 0); err != nil {
			return nil, err
		}
	}

	if err := add(winner.ID, winner.Rating, pWin, 1); err != nil {
		return nil, err
	}
	if err := add(loser.ID, loser.Rating, pLoss, 0); err != nil {
		return nil, err
	}

	return changes, nil
}

// applySettlement performs every write that depends on the Match row:
// guarded player updates, their ledger rows, then the same for both teams.
func applySettlement(
	tx *sqlx.Tx,
	match Match,
	winner, loser Team,
	winSide, loseSide [2]Player,
	changes map[util.UUIDAsBlob]RatingChange,
) error {
	playedAt := match.PlayedAt.Time()

	sides := []struct {
		players [2]Player
		won     bool
	}{
		{winSide, true},
		{loseSide, false},
	}
	for _, side := range sides {
		for _, p := range side.players {
			change := changes[p.ID]
			if err := p.updateRating(tx, change.NewRating, side.won); err != nil {
				return fmt.Errorf("unable to update player rating: %w", err)
			}

			history := newRatingHistory(
				p.ID, RatingOwnerPlayer, match.ID,
				change.OldRating, change.NewRating, playedAt,
			)
			if err := history.insert(tx); err != nil {
				return fmt.Errorf("unable to insert player rating history: %w", err)
			}
		}
	}

	for _, team := range []Team{winner, loser} {
		change := changes[team.ID]
		if err := team.updateRating(tx, change.NewRating, playedAt); err != nil {
			return fmt.Errorf("unable to update team rating: %w", err)
		}

		history := newRatingHistory(
			team.ID, RatingOwnerTeam, match.ID,
			change.OldRating, change.NewRating, playedAt,
		)
		if err := history.insert(tx); err != nil {
			return fmt.Errorf("unable to insert team rating history: %w", err)
		}
	}

	return nil
}

func newSettlementResult(
	match Match,
	winner, loser Team,
	winSide, loseSide [2]Player,
	changes map[util.UUIDAsBlob]RatingChange,
) SettlementResult {
	players := make(map[util.UUIDAsBlob]Player, 4)
	for _, side := range [][2]Player{winSide, loseSide} {
		for _, p := range side {
			p.Rating = changes[p.ID].NewRating
			players[p.ID] = p
		}
	}

	winner.Rating = changes[winner.ID].NewRating
	winner.LastMatchAt = util.NewNullTimeAsTimestamp(match.PlayedAt.Time())
	loser.Rating = changes[loser.ID].NewRating
	loser.LastMatchAt = winner.LastMatchAt

	return SettlementResult{
		Match:   match,
		Winner:  winner,
		Loser:   loser,
		Players: players,
		Changes: changes,
	}
}

// DeleteMatch removes a match and its ledger rows. It is not an inverse
// of settlement: Player and Team rating fields keep their current values,
// Rerank is the way to rebuild them from the surviving matches.
func (b *Back) DeleteMatch(id util.UUIDAsBlob) error {
	return b.transaction(func(tx *sqlx.Tx) error {
		match, err := getMatchByID(tx, id)
		if err != nil {
			return err
		}

		if err := deleteRatingHistoryByMatchID(tx, match.ID); err != nil {
			return fmt.Errorf("unable to delete rating history: %w", err)
		}

		if err := match.delete(tx); err != nil {
			return fmt.Errorf("unable to delete match: %w", err)
		}

		return nil
	})
}
