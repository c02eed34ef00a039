package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"notekeeper/internal/config"
	"notekeeper/internal/identity"
	"notekeeper/internal/notes"
	"notekeeper/internal/store"
)

// app holds the flags shared by every subcommand.
type app struct {
	verbose  bool
	caller   string
	backend  string
	path     string
	mongoURI string
	mongoDB  string

	log *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "notesctl",
		Short: "Manage notekeeper notes from the command line",
		Long: `notesctl operates directly on a notekeeper store on behalf of one principal.
Every command prints the affected notes as JSON.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if a.verbose {
				level = slog.LevelDebug
			}
			a.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")
	flags.StringVar(&a.caller, "as", os.Getenv("NOTEKEEPER_PRINCIPAL"), "Principal to act as")
	flags.StringVar(&a.backend, "backend", envOr("STORAGE_BACKEND", config.BackendFile), "Storage backend: file, sqlite or mongo")
	flags.StringVar(&a.path, "path", envOr("STORAGE_PATH", "data/notes.yaml"), "Store file for the file and sqlite backends")
	flags.StringVar(&a.mongoURI, "mongo-uri", envOr("MONGODB_URI", "mongodb://localhost:27017"), "MongoDB connection URI")
	flags.StringVar(&a.mongoDB, "mongo-db", envOr("MONGODB_DATABASE", "notekeeper"), "MongoDB database name")

	rootCmd.AddCommand(a.noteCommands()...)
	rootCmd.AddCommand(newTokenCmd(a))
	return rootCmd
}

// withService opens the configured store, runs fn and closes the store.
func (a *app) withService(cmd *cobra.Command, fn func(ctx context.Context, svc *notes.Service, caller identity.Principal) error) error {
	if a.caller == "" {
		return errors.New("no principal given, use --as")
	}
	if a.backend == config.BackendMemory {
		return errors.New("the memory backend does not persist between invocations")
	}

	cfg := &config.Config{
		Storage: config.Storage{Backend: a.backend, Path: a.path},
		Mongo:   config.Mongo{URI: a.mongoURI, Database: a.mongoDB},
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	repo, err := store.Open(ctx, cfg, a.log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := repo.Close(ctx); err != nil {
			a.log.Warn("failed to close store", "error", err)
		}
	}()

	svc := notes.NewService(repo, notes.WithLogger(a.log))
	return fn(ctx, svc, identity.Principal(a.caller))
}

func printJSON(cmd *cobra.Command, v any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
