package back

import (
	"errors"
	"math"
	"testing"
)

func TestTeamRatingIsCommutative(t *testing.T) {
	for _, pair := range [][2]int{{0, 0}, {1200, 1200}, {900, 2000}, {1175, 1226}} {
		a, err := TeamRating(pair[0], pair[1])
		if err != nil {
			t.Fatal(err)
		}
		b, err := TeamRating(pair[1], pair[0])
		if err != nil {
			t.Fatal(err)
		}

		if a != b {
			t.Errorf("TeamRating(%d, %d) = %d but TeamRating(%d, %d) = %d",
				pair[0], pair[1], a, pair[1], pair[0], b)
		}
	}

	if _, err := TeamRating(-1, 1200); !errors.Is(err, ErrValidation("")) {
		t.Errorf("expected a validation error, got %v", err)
	}
}

func TestWinProbabilityIsSymmetric(t *testing.T) {
	for _, pair := range [][2]int{{1200, 1200}, {900, 2000}, {0, 3000}, {1500, 1501}} {
		pAB, err := WinProbability(pair[0], pair[1])
		if err != nil {
			t.Fatal(err)
		}
		pBA, err := WinProbability(pair[1], pair[0])
		if err != nil {
			t.Fatal(err)
		}

		if sum := pAB + pBA; math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("WinProbability(%d,%d) + WinProbability(%d,%d) = %f, expected 1",
				pair[0], pair[1], pair[1], pair[0], sum)
		}
	}

	p, err := WinProbability(1337, 1337)
	if err != nil {
		t.Fatal(err)
	}
	if p != 0.5 {
		t.Errorf("expected 0.5 for equal ratings, got %f", p)
	}

	if _, err := WinProbability(1200, -1); !errors.Is(err, ErrValidation("")) {
		t.Errorf("expected a validation error, got %v", err)
	}
}

func TestKFactorTiers(t *testing.T) {
	cases := []struct {
		rating, k int
	}{
		{0, kFactorFast},
		{900, kFactorFast},
		{1200, kFactorFast},
		{ratingTierMid - 1, kFactorFast},
		{ratingTierMid, kFactorMid},
		{ratingTierSlow - 1, kFactorMid},
		{ratingTierSlow, kFactorSlow},
		{2800, kFactorSlow},
	}

	for _, v := range cases {
		k, err := KFactor(v.rating)
		if err != nil {
			t.Fatal(err)
		}
		if k != v.k {
			t.Errorf("KFactor(%d) = %d, expected %d", v.rating, k, v.k)
		}
	}

	if _, err := KFactor(-42); !errors.Is(err, ErrValidation("")) {
		t.Errorf("expected a validation error, got %v", err)
	}
}

func TestRatingDelta(t *testing.T) {
	// A winner never loses points when it was not the favorite.
	for _, p := range []float64{0, 0.25, 0.5} {
		delta, err := RatingDelta(1200, p, 1)
		if err != nil {
			t.Fatal(err)
		}
		if delta < 0 {
			t.Errorf("winner delta for probability %f is negative: %d", p, delta)
		}
	}

	// At the same win probability the 900-rated player moves further than
	// the 2000-rated one, their K-factors differ.
	lowWinner, err := RatingDelta(900, 0.5, 1)
	if err != nil {
		t.Fatal(err)
	}
	highWinner, err := RatingDelta(2000, 0.5, 1)
	if err != nil {
		t.Fatal(err)
	}
	if lowWinner <= highWinner {
		t.Errorf("expected the 900-rated winner (%d) to gain more than the 2000-rated one (%d)",
			lowWinner, highWinner)
	}

	if _, err := RatingDelta(1200, 1.5, 1); !errors.Is(err, ErrValidation("")) {
		t.Errorf("expected a validation error for probability out of range, got %v", err)
	}
	if _, err := RatingDelta(1200, 0.5, 0.5); !errors.Is(err, ErrValidation("")) {
		t.Errorf("expected a validation error for a draw result, got %v", err)
	}
	if _, err := RatingDelta(-1, 0.5, 1); !errors.Is(err, ErrValidation("")) {
		t.Errorf("expected a validation error for a negative rating, got %v", err)
	}
}
