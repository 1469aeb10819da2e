package back

import (
	"math"
)

// DefaultRating is the rating every player starts with.
const DefaultRating = 1200

// K-factor tiers: fresh ratings move fast, established ones are stable.
const (
	kFactorFast = 50 // below ratingTierMid
	kFactorMid  = 40 // below ratingTierSlow
	kFactorSlow = 30

	ratingTierMid  = 1500
	ratingTierSlow = 2000
)

// TeamRating is the rating a pairing starts with, the rounded mean of its
// two members' current ratings.
func TeamRating(a, b int) (int, error) {
	if a < 0 || b < 0 {
		return 0, ErrValidation("a rating cannot be negative")
	}

	return int(math.Round(float64(a+b) / 2.0)), nil
}

// WinProbability is the expected chance that a side rated a beats a side
// rated b, on the usual logistic curve with a 400-point scale.
func WinProbability(a, b int) (float64, error) {
	if a < 0 || b < 0 {
		return 0, ErrValidation("a rating cannot be negative")
	}

	return 1.0 / (1.0 + math.Pow(10, float64(b-a)/400.0)), nil
}

func KFactor(rating int) (int, error) {
	if rating < 0 {
		return 0, ErrValidation("a rating cannot be negative")
	}

	switch {
	case rating < ratingTierMid:
		return kFactorFast, nil
	case rating < ratingTierSlow:
		return kFactorMid, nil
	default:
		return kFactorSlow, nil
	}
}

// RatingDelta is the signed rating change for one entity given its own
// rating, its side's win probability, and the result (1 win, 0 loss).
func RatingDelta(rating int, probability float64, result float64) (int, error) {
	if probability < 0 || probability > 1 {
		return 0, ErrValidation("probability must be in [0,1]")
	}
	if result != 0 && result != 1 {
		return 0, ErrValidation("result must be exactly 0 or 1")
	}

	k, err := KFactor(rating)
	if err != nil {
		return 0, err
	}

	return int(math.Round(float64(k) * (result - probability))), nil
}
