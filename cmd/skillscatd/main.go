// skillscatd runs the skillscat catalog pipeline workers: event discovery,
// queue consumers, and the scheduled tier and archive jobs.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/backrunner/skillscat/internal/config"
	"github.com/backrunner/skillscat/internal/log"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		os.Exit(1)
	}

	paths := config.GetPaths(cfg)
	if err := log.Init(paths.Logs); err != nil {
		os.Exit(1)
	}
	defer func() {
		_ = log.Close()
	}()

	if err := Execute(ctx, cfg); err != nil {
		log.Errorf("skillscatd: %v", err)
		os.Exit(1)
	}
}
