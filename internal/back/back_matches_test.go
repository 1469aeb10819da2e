package back

import (
	"errors"
	"testing"
	"time"

	"kicker/internal/util"
)

func TestGetMatchesPaginationBoundaries(t *testing.T) {
	back, players := createFixturedTestBack(t)
	playedAt := time.Date(2024, 3, 1, 19, 0, 0, 0, time.UTC)

	settleFixtureMatch(t, back, players,
		[2]string{"Amandine", "Baptiste"}, [2]string{"Chloé", "Damien"}, false, playedAt)

	// A zero limit or an offset past the end is an empty list, never an
	// error.
	matches, err := back.GetMatches(MatchFilter{Limit: 0})
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 {
		t.Errorf("expected an empty list for limit 0, got %d entries", len(matches))
	}

	matches, err = back.GetMatches(MatchFilter{Limit: 10, Offset: 9000})
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 {
		t.Errorf("expected an empty list for an out-of-range offset, got %d entries", len(matches))
	}

	// A negative offset from a direct caller reads from the start
	// instead of turning into a huge unsigned OFFSET.
	matches, err = back.GetMatches(MatchFilter{Limit: 10, Offset: -5})
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 {
		t.Errorf("expected 1 match for a negative offset, got %d entries", len(matches))
	}

	matches, err = back.GetMatchesForPlayer(players["Amandine"].ID, MatchFilter{Limit: 0})
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 {
		t.Errorf("expected an empty list for limit 0, got %d entries", len(matches))
	}
}

func TestGetMatchesFilters(t *testing.T) {
	back, players := createFixturedTestBack(t)
	base := time.Date(2024, 3, 1, 19, 0, 0, 0, time.UTC)

	settleFixtureMatch(t, back, players,
		[2]string{"Amandine", "Baptiste"}, [2]string{"Chloé", "Damien"}, false, base)
	fannyResult := settleFixtureMatch(t, back, players,
		[2]string{"Élise", "Florent"}, [2]string{"Chloé", "Damien"}, true, base.Add(24*time.Hour))
	settleFixtureMatch(t, back, players,
		[2]string{"Amandine", "Chloé"}, [2]string{"Baptiste", "Damien"}, false, base.Add(48*time.Hour))

	isFanny := true
	matches, err := back.GetMatches(MatchFilter{Limit: 10, Fanny: &isFanny})
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 || matches[0].Match.ID != fannyResult.Match.ID {
		t.Errorf("expected exactly the fanny match, got %d entries", len(matches))
	}

	matches, err = back.GetMatches(MatchFilter{
		Limit: 10,
		From:  base.Add(12 * time.Hour),
		To:    base.Add(36 * time.Hour),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 || matches[0].Match.ID != fannyResult.Match.ID {
		t.Errorf("expected exactly the middle match, got %d entries", len(matches))
	}

	// Most recent first.
	matches, err = back.GetMatches(MatchFilter{Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(matches))
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Match.PlayedAt.Time().After(matches[i-1].Match.PlayedAt.Time()) {
			t.Error("matches are not sorted by most recent first")
		}
	}
}

func TestGetMatchesForPlayerAndTeam(t *testing.T) {
	back, players := createFixturedTestBack(t)
	base := time.Date(2024, 3, 1, 19, 0, 0, 0, time.UTC)

	first := settleFixtureMatch(t, back, players,
		[2]string{"Amandine", "Baptiste"}, [2]string{"Chloé", "Damien"}, false, base)
	settleFixtureMatch(t, back, players,
		[2]string{"Élise", "Florent"}, [2]string{"Chloé", "Damien"}, false, base.Add(time.Hour))

	matches, err := back.GetMatchesForPlayer(players["Amandine"].ID, MatchFilter{Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 || matches[0].Match.ID != first.Match.ID {
		t.Fatalf("expected exactly Amandine's match, got %d entries", len(matches))
	}

	// The reassembled match carries the rating transition of every
	// participant.
	change, ok := matches[0].Changes[players["Amandine"].ID]
	if !ok {
		t.Fatal("expected a rating change for Amandine")
	}
	if change.OldRating != 1200 || change.NewRating != 1225 {
		t.Errorf("unexpected change: %+v", change)
	}

	teamMatches, err := back.GetMatchesForTeam(first.Winner.ID, MatchFilter{Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(teamMatches) != 1 || teamMatches[0].Match.ID != first.Match.ID {
		t.Fatalf("expected exactly the winning team's match, got %d entries", len(teamMatches))
	}

	if _, err := back.GetMatchesForPlayer(players["Chloé"].ID, MatchFilter{Limit: 10}); err != nil {
		t.Fatal(err)
	}

	_, err = back.GetMatchesForTeam(first.Loser.ID, MatchFilter{Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
}

func TestGetMatchToleratesMissingLedger(t *testing.T) {
	back, players := createFixturedTestBack(t)

	result := settleFixtureMatch(t, back, players,
		[2]string{"Amandine", "Baptiste"}, [2]string{"Chloé", "Damien"}, false, time.Now())

	deleteLedgerRows(t, back, result.Match.ID)

	details, err := back.GetMatch(result.Match.ID)
	if err != nil {
		t.Fatal(err)
	}

	if len(details.Changes) != 0 {
		t.Errorf("expected no rating changes for a pruned ledger, got %d", len(details.Changes))
	}
	if len(details.Players) != 4 {
		t.Errorf("expected the four players regardless of the ledger, got %d", len(details.Players))
	}
	if details.Winner.ID != result.Winner.ID || details.Loser.ID != result.Loser.ID {
		t.Error("unexpected teams on the reassembled match")
	}
}

func TestGetLeaderboard(t *testing.T) {
	back, players := createFixturedTestBack(t)

	settleFixtureMatch(t, back, players,
		[2]string{"Amandine", "Baptiste"}, [2]string{"Chloé", "Damien"}, false, time.Now())

	leaderboard, err := back.GetLeaderboard(3)
	if err != nil {
		t.Fatal(err)
	}
	if len(leaderboard) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(leaderboard))
	}
	if leaderboard[0].Rating != 1225 {
		t.Errorf("expected a 1225-rated leader, got %d", leaderboard[0].Rating)
	}

	empty, err := back.GetLeaderboard(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(empty) != 0 {
		t.Errorf("expected an empty list for limit 0, got %d entries", len(empty))
	}
}

func TestGetMatchNotFound(t *testing.T) {
	back, _ := createFixturedTestBack(t)

	_, err := back.GetMatch(util.NewUUIDAsBlob())
	if !errors.Is(err, ErrNotFound("")) {
		t.Errorf("expected a not-found error, got %v", err)
	}
}
