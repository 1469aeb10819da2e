package back

import (
	"errors"
	"testing"
	"time"

	"kicker/internal/util"

	"github.com/jmoiron/sqlx"
)

func TestUpdateRatingDetectsStalePlayerSnapshot(t *testing.T) {
	back, players := createFixturedTestBack(t)

	// Two snapshots of the same row: once the first one writes, the
	// second is stale and its write must be refused without touching the
	// row.
	fresh := players["Amandine"]
	stale := players["Amandine"]

	if err := back.transaction(func(tx *sqlx.Tx) error {
		return fresh.updateRating(tx, 1250, true)
	}); err != nil {
		t.Fatal(err)
	}

	err := back.transaction(func(tx *sqlx.Tx) error {
		return stale.updateRating(tx, 900, false)
	})
	if !errors.Is(err, errStaleRating) {
		t.Fatalf("expected a stale-rating error, got %v", err)
	}

	player, err := back.GetPlayerByName("Amandine")
	if err != nil {
		t.Fatal(err)
	}
	if player.Rating != 1250 || player.MatchCount != 1 || player.LossCount != 0 {
		t.Errorf("a stale write must leave the row untouched, got %+v", player)
	}
}

func TestUpdateRatingDetectsStaleTeamSnapshot(t *testing.T) {
	back, players := createFixturedTestBack(t)

	team, err := back.FindOrCreateTeam(players["Amandine"].ID, players["Baptiste"].ID)
	if err != nil {
		t.Fatal(err)
	}
	stale := team

	if err := back.transaction(func(tx *sqlx.Tx) error {
		return team.updateRating(tx, 1250, time.Now())
	}); err != nil {
		t.Fatal(err)
	}

	err = back.transaction(func(tx *sqlx.Tx) error {
		return stale.updateRating(tx, 900, time.Now())
	})
	if !errors.Is(err, errStaleRating) {
		t.Fatalf("expected a stale-rating error, got %v", err)
	}

	persisted, err := back.GetTeamByID(team.ID)
	if err != nil {
		t.Fatal(err)
	}
	if persisted.Rating != 1250 {
		t.Errorf("a stale write must leave the row untouched, got rating %d", persisted.Rating)
	}
}

func TestLosingTeamCreationRaceIsConflict(t *testing.T) {
	back, players := createFixturedTestBack(t)

	if _, err := back.FindOrCreateTeam(players["Amandine"].ID, players["Baptiste"].ID); err != nil {
		t.Fatal(err)
	}

	// A second insert for the same canonical pair stands in for the
	// writer that got past the existence check just before the first one
	// committed; the UNIQUE pair index must answer with a conflict.
	err := back.transaction(func(tx *sqlx.Tx) error {
		id1, id2, err := canonicalPair(players["Amandine"].ID, players["Baptiste"].ID)
		if err != nil {
			return err
		}

		p1, err := getPlayerByID(tx, id1)
		if err != nil {
			return err
		}
		p2, err := getPlayerByID(tx, id2)
		if err != nil {
			return err
		}

		dup, err := newTeam(p1, p2)
		if err != nil {
			return err
		}

		if err := dup.insert(tx); err != nil {
			return wrapConstraintErr(err, ErrConflict("this team was created concurrently, retry"))
		}

		return nil
	})
	if !errors.Is(err, ErrConflict("")) {
		t.Errorf("expected a conflict error, got %v", err)
	}
}

func TestSettlementRetriesStaleSnapshots(t *testing.T) {
	want := util.NewUUIDAsBlob()

	// Two stale attempts are within budget, the third one wins.
	calls := 0
	result, err := settleWithRetry(func() (SettlementResult, error) {
		calls++
		if calls < settlementMaxAttempts {
			return SettlementResult{}, errStaleRating
		}

		return SettlementResult{Match: Match{ID: want}}, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != settlementMaxAttempts || result.Match.ID != want {
		t.Errorf("expected the attempt %d result, got %d calls and match %s",
			settlementMaxAttempts, calls, result.Match.ID)
	}

	// A snapshot that never stops being stale surfaces as a conflict.
	calls = 0
	_, err = settleWithRetry(func() (SettlementResult, error) {
		calls++
		return SettlementResult{}, errStaleRating
	})
	if !errors.Is(err, ErrConflict("")) {
		t.Errorf("expected a conflict error after exhausted retries, got %v", err)
	}
	if calls != settlementMaxAttempts {
		t.Errorf("expected exactly %d attempts, got %d", settlementMaxAttempts, calls)
	}

	// Anything but a stale snapshot is not retried.
	calls = 0
	boom := errors.New("boom")
	_, err = settleWithRetry(func() (SettlementResult, error) {
		calls++
		return SettlementResult{}, boom
	})
	if !errors.Is(err, boom) || calls != 1 {
		t.Errorf("expected the original error after 1 attempt, got %v after %d", err, calls)
	}
}

func TestPartialSettlementErrorKind(t *testing.T) {
	cause := errors.New("rollback failed")
	err := error(ErrPartialSettlement{MatchID: util.NewUUIDAsBlob(), Cause: cause})

	if !errors.Is(err, ErrPartialSettlement{}) {
		t.Error("expected the partial-settlement kind to match by type")
	}
	if errors.Is(err, ErrConflict("")) || errors.Is(err, ErrValidation("")) {
		t.Error("a partial settlement must not degrade to another kind")
	}
	if !errors.Is(err, cause) {
		t.Error("expected the cause to be reachable through Unwrap")
	}
}
