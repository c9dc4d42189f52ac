// Package main provides the CLI entry point for tomorrows-news.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Convl/tomorrows-news/internal/cache"
	"github.com/Convl/tomorrows-news/internal/config"
	"github.com/Convl/tomorrows-news/internal/domain"
	"github.com/Convl/tomorrows-news/internal/manager"
	"github.com/Convl/tomorrows-news/internal/poller"
	"github.com/Convl/tomorrows-news/internal/snapshot"
	"github.com/Convl/tomorrows-news/internal/status"
	"github.com/Convl/tomorrows-news/internal/stream"
	"github.com/Convl/tomorrows-news/internal/tui"
	"github.com/Convl/tomorrows-news/pkg/api"
)

// CLI structure
var CLI struct {
	Config string `help:"Configuration file path" default:""`
	Debug  bool   `help:"Enable debug logging" default:"false"`

	Dashboard struct{} `cmd:"" default:"1" help:"Open the topic monitoring dashboard."`

	Login struct {
		Username string `arg:"" help:"Account email."`
		Password string `help:"Password (prompted when omitted)."`
	} `cmd:"" help:"Log in and store the session token."`

	Logout struct{} `cmd:"" help:"Discard the stored session token."`

	Topics struct{} `cmd:"" help:"List topics."`

	Sources struct {
		Topic int `help:"Topic id" required:""`
	} `cmd:"" help:"List a topic's scraping sources with status."`

	Events struct {
		Topic int `help:"Topic id" required:""`
	} `cmd:"" help:"List a topic's extracted events."`
}

func main() {
	ctx := kong.Parse(&CLI)

	if CLI.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	} else {
		slog.SetLogLoggerLevel(slog.LevelWarn)
	}

	cfg, err := config.LoadConfig(CLI.Config)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	tokens := api.NewTokenStore(cfg.State.TokenPath)
	client := api.NewClient(api.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
	}, tokens)

	switch ctx.Command() {
	case "dashboard", "":
		runDashboard(cfg, client)

	case "login <username>":
		runLogin(client)

	case "logout":
		if err := client.Logout(); err != nil {
			slog.Error("Failed to discard token", "error", err)
			os.Exit(1)
		}
		fmt.Println("Logged out.")

	case "topics":
		listTopics(client)

	case "sources":
		listSources(client, CLI.Sources.Topic)

	case "events":
		listEvents(client, CLI.Events.Topic)

	default:
		panic(ctx.Command())
	}
}

func runLogin(client *api.Client) {
	password := CLI.Login.Password
	if password == "" {
		fmt.Print("Password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			slog.Error("Failed to read password", "error", err)
			os.Exit(1)
		}
		password = strings.TrimSpace(line)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := client.Login(ctx, CLI.Login.Username, password); err != nil {
		fmt.Fprintln(os.Stderr, api.FormatError(err))
		os.Exit(1)
	}
	fmt.Println("Logged in.")
}

// runDashboard wires the full client stack: cache, snapshot restore,
// mutation controllers, adaptive poller, push channel and the TUI.
func runDashboard(cfg *config.Config, client *api.Client) {
	// The alternate screen owns stdout/stderr, so logs go to a file
	// next to the snapshot.
	logger := slog.Default()
	stateDir := filepath.Dir(cfg.State.SnapshotPath)
	_ = os.MkdirAll(stateDir, 0o700)
	logPath := filepath.Join(stateDir, "dashboard.log")
	if logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600); err == nil {
		defer logFile.Close()
		level := slog.LevelInfo
		if CLI.Debug {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
	}

	store := cache.NewStore(logger)

	snap, err := snapshot.Open(cfg.State.SnapshotPath, logger)
	if err != nil {
		slog.Error("Failed to open snapshot store", "error", err)
		os.Exit(1)
	}
	defer snap.Close()
	if err := snap.Restore(store); err != nil {
		slog.Warn("Snapshot restore failed, starting cold", "error", err)
	}

	history := &manager.History{}
	topics := manager.NewTopicManager(client, store, history, logger)

	app := tui.NewApp(tui.Opts{
		Client:  client,
		Store:   store,
		History: history,
		Topics:  topics,
		Logger:  logger,
	})

	program := tea.NewProgram(app, tea.WithAltScreen())

	// Any 401 anywhere — fetch, mutation or stream — flips the session
	// banner; the dialogs never see authorization errors.
	client.SetAuthFailureHook(func() {
		program.Send(tui.SessionDeadMsg{})
	})

	bg := poller.New(client, store, logger, func() {
		program.Send(tui.CacheUpdatedMsg{})
		if err := snap.Capture(store); err != nil {
			logger.Debug("snapshot capture failed", "error", err)
		}
	})
	app.AttachPoller(bg)

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := bg.Run(runCtx); err != nil && runCtx.Err() == nil {
			logger.Error("poller stopped", "error", err)
		}
	}()

	sync := stream.NewSynchronizer(client, store, logger)
	go func() {
		err := sync.Run(runCtx)
		if runCtx.Err() != nil {
			return
		}
		if err != nil {
			program.Send(tui.SessionDeadMsg{})
		}
	}()

	if _, err := program.Run(); err != nil {
		slog.Error("Dashboard failed", "error", err)
		os.Exit(1)
	}
	cancel()

	// One last snapshot so the next start paints instantly.
	if err := snap.Capture(store); err != nil {
		logger.Debug("final snapshot capture failed", "error", err)
	}
}

func listTopics(client *api.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	topics, err := client.ListTopics(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, api.FormatError(err))
		os.Exit(1)
	}
	for _, topic := range topics {
		state := "active"
		if !topic.IsActive {
			state = "paused"
		}
		fmt.Printf("%4d  %-40s %s\n", topic.ID, topic.Name, state)
	}
}

func listSources(client *api.Client, topicID int) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sources, err := client.ListSources(ctx, topicID)
	if err != nil {
		fmt.Fprintln(os.Stderr, api.FormatError(err))
		os.Exit(1)
	}
	now := time.Now()
	for _, src := range sources {
		info := status.Derive(src, now)
		fmt.Printf("%4d  %-30s %-10s %s\n", src.ID, src.Name, info.State, info.Label)
	}
}

func listEvents(client *api.Client, topicID int) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	events, err := client.ListEvents(ctx, topicID)
	if err != nil {
		fmt.Fprintln(os.Stderr, api.FormatError(err))
		os.Exit(1)
	}
	domain.SortEvents(events)
	for _, event := range events {
		date := "undated"
		if event.EventDate != nil {
			date = event.EventDate.Format("2006-01-02")
		}
		fmt.Printf("%4d  %.1f  %-10s  %s\n", event.ID, event.Significance, date, event.Title)
	}
}
