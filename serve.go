package main

import (
	"kicker/internal/back"
	"kicker/internal/config"
	"kicker/internal/web"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

func serve() error {
	conf, err := config.NewFromUserConfigDir()
	if err != nil {
		return err
	}

	b, err := back.New("sqlite3", conf.DBPath)
	if err != nil {
		return err
	}

	done := make(chan struct{})
	signaled := make(chan os.Signal, 1)
	signal.Notify(signaled, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup
	server := web.NewServer(b, conf.ListenAddr)
	go server.Serve(&wg, done)

	sig := <-signaled
	log.Printf("received signal %d", sig)
	close(done)
	wg.Wait()

	log.Print("shutdown complete")

	return nil
}

func rerank() error {
	conf, err := config.NewFromUserConfigDir()
	if err != nil {
		return err
	}

	b, err := back.New("sqlite3", conf.DBPath)
	if err != nil {
		return err
	}

	return b.Rerank()
}
