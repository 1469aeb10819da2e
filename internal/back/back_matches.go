package back

import (
	"kicker/internal/util"

	"github.com/jmoiron/sqlx"
)

// MatchDetails is a match reassembled for display: both team rows, the
// four player rows, and the rating changes recorded at settlement time.
// Changes may be empty for matches whose ledger rows were deleted or
// predate tracking, that is not an error.
type MatchDetails struct {
	Match   Match
	Winner  Team
	Loser   Team
	Players map[util.UUIDAsBlob]Player
	Changes map[util.UUIDAsBlob]RatingChange
}

func (b *Back) GetMatch(id util.UUIDAsBlob) (details MatchDetails, _ error) {
	if err := b.transaction(func(tx *sqlx.Tx) error {
		match, err := getMatchByID(tx, id)
		if err != nil {
			return err
		}

		all, err := assembleMatchDetails(tx, []Match{match})
		if err != nil {
			return err
		}
		details = all[0]

		return nil
	}); err != nil {
		return MatchDetails{}, err
	}

	return details, nil
}

func (b *Back) GetMatches(filter MatchFilter) ([]MatchDetails, error) {
	return b.listMatches(func(tx *sqlx.Tx) ([]Match, error) {
		return getMatches(tx, filter)
	})
}

func (b *Back) GetMatchesForTeam(teamID util.UUIDAsBlob, filter MatchFilter) ([]MatchDetails, error) {
	return b.listMatches(func(tx *sqlx.Tx) ([]Match, error) {
		if _, err := getTeamByID(tx, teamID); err != nil {
			return nil, err
		}

		return getMatchesForTeam(tx, teamID, filter)
	})
}

func (b *Back) GetMatchesForPlayer(playerID util.UUIDAsBlob, filter MatchFilter) ([]MatchDetails, error) {
	return b.listMatches(func(tx *sqlx.Tx) ([]Match, error) {
		if _, err := getPlayerByID(tx, playerID); err != nil {
			return nil, err
		}

		return getMatchesForPlayer(tx, playerID, filter)
	})
}

func (b *Back) listMatches(fetch func(*sqlx.Tx) ([]Match, error)) (details []MatchDetails, _ error) {
	if err := b.transaction(func(tx *sqlx.Tx) error {
		matches, err := fetch(tx)
		if err != nil {
			return err
		}

		details, err = assembleMatchDetails(tx, matches)

		return err
	}); err != nil {
		return nil, err
	}

	return details, nil
}

// assembleMatchDetails batch-loads the teams, players, and ledger rows of
// the given matches and stitches them back together per match.
func assembleMatchDetails(tx *sqlx.Tx, matches []Match) ([]MatchDetails, error) {
	teamIDs := make([]util.UUIDAsBlob, 0, len(matches)*2)
	matchIDs := make([]util.UUIDAsBlob, 0, len(matches))
	for k := range matches {
		teamIDs = append(teamIDs, matches[k].WinnerTeamID, matches[k].LoserTeamID)
		matchIDs = append(matchIDs, matches[k].ID)
	}

	teams, err := getTeamsByIDs(tx, teamIDs)
	if err != nil {
		return nil, err
	}

	playerIDs := make([]util.UUIDAsBlob, 0, len(teams)*2)
	for _, team := range teams {
		playerIDs = append(playerIDs, team.Player1ID, team.Player2ID)
	}
	players, err := getPlayersByIDs(tx, playerIDs)
	if err != nil {
		return nil, err
	}

	history, err := getRatingHistoryByMatchIDs(tx, matchIDs)
	if err != nil {
		return nil, err
	}

	details := make([]MatchDetails, 0, len(matches))
	for k := range matches {
		winner := teams[matches[k].WinnerTeamID]
		loser := teams[matches[k].LoserTeamID]

		matchPlayers := make(map[util.UUIDAsBlob]Player, 4)
		for _, id := range []util.UUIDAsBlob{
			winner.Player1ID, winner.Player2ID,
			loser.Player1ID, loser.Player2ID,
		} {
			if p, ok := players[id]; ok {
				matchPlayers[id] = p
			}
		}

		changes := make(map[util.UUIDAsBlob]RatingChange)
		for _, row := range history[matches[k].ID] {
			changes[row.OwnerID] = RatingChange{
				OldRating:  row.OldRating,
				NewRating:  row.NewRating,
				Difference: row.Difference,
			}
		}

		details = append(details, MatchDetails{
			Match:   matches[k],
			Winner:  winner,
			Loser:   loser,
			Players: matchPlayers,
			Changes: changes,
		})
	}

	return details, nil
}
