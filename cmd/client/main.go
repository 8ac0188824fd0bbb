package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	apiclient "github.com/iudanet/notesync/internal/client/api"
	"github.com/iudanet/notesync/internal/client/batch"
	"github.com/iudanet/notesync/internal/client/cli"
	"github.com/iudanet/notesync/internal/client/conflict"
	"github.com/iudanet/notesync/internal/client/docs"
	"github.com/iudanet/notesync/internal/client/events"
	"github.com/iudanet/notesync/internal/client/idmap"
	"github.com/iudanet/notesync/internal/client/netmon"
	"github.com/iudanet/notesync/internal/client/session"
	"github.com/iudanet/notesync/internal/client/storage/boltdb"
	"github.com/iudanet/notesync/internal/client/syncqueue"
	"github.com/iudanet/notesync/internal/client/workspaces"
	"github.com/iudanet/notesync/internal/crdt"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Глобальные флаги
	showVersion := flag.Bool("version", false, "Show version information")
	serverURL := flag.String("server", "http://localhost:8080", "Server URL")
	dbPath := flag.String("db", "notesync-client.db", "Path to local database")
	offline := flag.Bool("offline", false, "Start in offline mode")
	verbose := flag.Bool("v", false, "Verbose logging")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		cli.PrintUsage()
		os.Exit(1)
	}
	command := args[0]

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx := context.Background()

	// Открываем BoltDB storage
	store, err := boltdb.New(ctx, *dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	app, err := buildApp(ctx, store, *serverURL, !*offline, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}

	app.Run(ctx, command, args[1:])
}

// buildApp собирает сервисы клиента поверх открытого хранилища
func buildApp(ctx context.Context, store *boltdb.Storage, serverURL string, online bool, logger *slog.Logger) (*cli.Cli, error) {
	bus := events.NewBus()
	monitor := netmon.New(logger)
	apiClient := apiclient.NewClient(serverURL, logger)
	normalizer := idmap.New(store, logger)

	// Часы устройства восстанавливают node id, выданный при первом login
	clock := crdt.NewLamportClock()
	if nodeID, err := store.GetNodeID(ctx); err == nil && nodeID != "" {
		clock = crdt.NewLamportClockWithNodeID(nodeID)
	}
	engine := crdt.NewEngineWithClock(logger, clock)

	sessionSvc := session.NewService(apiClient, store, store, serverURL, logger)
	detector := conflict.NewDetector(store, store, bus, logger)

	queue := syncqueue.NewManager(
		store, store, store, store,
		normalizer, apiClient, detector, monitor, bus,
		sessionSvc.Token, syncqueue.DefaultConfig(), logger,
	)
	resolver := conflict.NewResolver(store, store, store, queue, engine, bus, logger)
	batchCoord := batch.NewCoordinator(
		store, store, normalizer, apiClient, detector, bus, sessionSvc.Token, logger,
	)

	docsSvc := docs.NewService(store, queue, engine, logger)
	workspacesSvc := workspaces.NewService(store, store, queue, logger)

	// CLI живет один вызов команды: сеть проверяется один раз на старте
	if online {
		monitor.SetOnline(apiClient.Ping(ctx) == nil)
	}

	return cli.New(
		sessionSvc, docsSvc, workspacesSvc, queue, batchCoord,
		detector, resolver, monitor, engine, apiClient.Ping, serverURL, logger,
	), nil
}

func printVersion() {
	fmt.Printf("NoteSync Client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
