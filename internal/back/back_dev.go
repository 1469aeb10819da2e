package back

import (
	"time"

	"kicker/internal/util"
)

// LoadFixtures creates a small league for local development: eight
// players and a handful of settled matches.
func (b *Back) LoadFixtures() error {
	names := []string{
		"Amandine", "Baptiste", "Chloé", "Damien",
		"Élise", "Florent", "Gaëlle", "Hugo",
	}

	ids := make([]util.UUIDAsBlob, 0, len(names))
	for _, name := range names {
		player, err := b.RegisterPlayer(name)
		if err != nil {
			return err
		}
		ids = append(ids, player.ID)
	}

	playedAt := time.Now().Add(-72 * time.Hour)
	matches := []struct {
		winners, losers [2]util.UUIDAsBlob
		isFanny         bool
		notes           string
	}{
		{[2]util.UUIDAsBlob{ids[0], ids[1]}, [2]util.UUIDAsBlob{ids[2], ids[3]}, false, "opening game"},
		{[2]util.UUIDAsBlob{ids[4], ids[5]}, [2]util.UUIDAsBlob{ids[6], ids[7]}, true, ""},
		{[2]util.UUIDAsBlob{ids[0], ids[2]}, [2]util.UUIDAsBlob{ids[4], ids[6]}, false, ""},
		{[2]util.UUIDAsBlob{ids[1], ids[3]}, [2]util.UUIDAsBlob{ids[5], ids[7]}, false, "revenge"},
		{[2]util.UUIDAsBlob{ids[2], ids[3]}, [2]util.UUIDAsBlob{ids[0], ids[1]}, false, ""},
	}

	for k, v := range matches {
		if _, err := b.SettleMatch(
			v.winners, v.losers, v.isFanny,
			playedAt.Add(time.Duration(k)*6*time.Hour), v.notes,
		); err != nil {
			return err
		}
	}

	return nil
}
