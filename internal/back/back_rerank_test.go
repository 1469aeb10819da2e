package back

import (
	"testing"
	"time"
)

func TestRerankRebuildsStateFromSurvivingMatches(t *testing.T) {
	back, players := createFixturedTestBack(t)
	base := time.Date(2024, 3, 1, 19, 0, 0, 0, time.UTC)

	first := settleFixtureMatch(t, back, players,
		[2]string{"Amandine", "Baptiste"}, [2]string{"Chloé", "Damien"}, false, base)
	second := settleFixtureMatch(t, back, players,
		[2]string{"Chloé", "Damien"}, [2]string{"Amandine", "Baptiste"}, false, base.Add(time.Hour))

	// Deleting the first match leaves ratings that no surviving match
	// explains; Rerank is the repair path.
	if err := back.DeleteMatch(first.Match.ID); err != nil {
		t.Fatal(err)
	}
	if err := back.Rerank(); err != nil {
		t.Fatal(err)
	}

	// Replaying only the second match from scratch: an even 1200 vs 1200
	// game, Chloé and Damien win 25 points.
	for name, rating := range map[string]int{
		"Chloé": 1225, "Damien": 1225,
		"Amandine": 1175, "Baptiste": 1175,
	} {
		player, err := back.GetPlayerByName(name)
		if err != nil {
			t.Fatal(err)
		}
		if player.Rating != rating {
			t.Errorf("%s: expected rating %d after rerank, got %d", name, rating, player.Rating)
		}
		if player.MatchCount != 1 {
			t.Errorf("%s: expected 1 match after rerank, got %d", name, player.MatchCount)
		}
	}

	winner, err := back.GetTeamByID(second.Winner.ID)
	if err != nil {
		t.Fatal(err)
	}
	if winner.Rating != 1225 {
		t.Errorf("expected winning team rating 1225 after rerank, got %d", winner.Rating)
	}

	// Players untouched by any surviving match go back to the default.
	idle, err := back.GetPlayerByName("Élise")
	if err != nil {
		t.Fatal(err)
	}
	if idle.Rating != DefaultRating || idle.MatchCount != 0 {
		t.Errorf("expected an idle player reset to defaults, got %+v", idle)
	}

	// The rebuilt ledger only knows the surviving match.
	history, err := back.GetRatingHistory(players["Amandine"].ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 ledger row after rerank, got %d", len(history))
	}
	if history[0].MatchID != second.Match.ID {
		t.Errorf("ledger row points at match %s, expected %s", history[0].MatchID, second.Match.ID)
	}
	if history[0].OldRating != 1200 || history[0].NewRating != 1175 {
		t.Errorf("unexpected ledger row after rerank: %+v", history[0])
	}
}
