package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"blockfall/client"
	"blockfall/tetris"

	"github.com/eiannone/keyboard"
	"golang.org/x/term"
)

const (
	hideCursor = "\033[2J\033[?25l" // also clear screen
	showCursor = "\033[H\033[2J\033[?25h"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	seed := flag.Uint64("seed", 0, "spawner seed, 0 picks a random one")
	addr := flag.String("addr", "", "spectator relay address, games are published when set")
	watch := flag.String("watch", "", "session ID to spectate, requires -addr")
	logPath := flag.String("log", "", "log file, logs are discarded when empty")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("unable to load config: %v", err)
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}

	logger, closeLog, err := newLogger(*logPath)
	if err != nil {
		log.Fatalf("unable to open log file: %v", err)
	}
	defer closeLog()

	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		log.Fatal("blockfall needs an interactive terminal")
	}

	var remote *client.RemoteClient
	if *addr != "" {
		remote = client.NewRemoteClient(*addr, logger)
		defer remote.Close()
	}

	fmt.Print(hideCursor)
	defer fmt.Print(showCursor)

	if *watch != "" {
		if remote == nil {
			log.Fatal("-watch requires -addr")
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		if err := client.Spectate(ctx, logger, cfg, remote, *watch); err != nil {
			logger.Error("spectate failed", slog.String("error", err.Error()))
		}
		return
	}

	defer func() {
		if err := keyboard.Close(); err != nil {
			logger.Error("unable to close keyboard", slog.String("error", err.Error()))
		}
	}()
	c, err := client.New(logger, &client.Options{Config: cfg, Remote: remote})
	if err != nil {
		logger.Error("unable to start client", slog.String("error", err.Error()))
		return
	}
	c.Start()
}

func loadConfig(path string) (tetris.Config, error) {
	if path == "" {
		cfg := tetris.DefaultConfig()
		return cfg, cfg.Validate()
	}
	f, err := os.Open(path)
	if err != nil {
		return tetris.Config{}, err
	}
	defer f.Close()
	return tetris.LoadConfig(f)
}

func newLogger(path string) (*slog.Logger, func(), error) {
	if path == "" {
		return slog.New(slog.NewJSONHandler(io.Discard, nil)), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	l := slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return l, func() { f.Close() }, nil
}
