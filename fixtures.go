package main

import (
	"kicker/internal/back"
	"kicker/internal/config"
)

func loadFixtures() error {
	conf, err := config.NewFromUserConfigDir()
	if err != nil {
		return err
	}

	b, err := back.New("sqlite3", conf.DBPath)
	if err != nil {
		return err
	}

	return b.LoadFixtures()
}
