package main

import (
	"kicker/internal/config"
	"log"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func migrateDatabase() error {
	conf, err := config.NewFromUserConfigDir()
	if err != nil {
		return err
	}

	migrator, err := migrate.New(
		"file://resources/migrations",
		"sqlite3://"+conf.DBPath,
	)
	if err != nil {
		return err
	}

	if err := migrator.Up(); err != nil {
		if err == migrate.ErrNoChange {
			log.Print("info: database already up to date")
			return nil
		}

		return err
	}

	log.Print("info: database migrated")

	srcErr, dbErr := migrator.Close()
	if srcErr != nil {
		return srcErr
	}

	return dbErr
}
