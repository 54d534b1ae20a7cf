// Package main provides the penelope CLI entry point.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/richinex/penelope/chat"
	"github.com/richinex/penelope/cli"
	"github.com/richinex/penelope/config"
	"github.com/richinex/penelope/llm"
	"github.com/richinex/penelope/server"
	"github.com/richinex/penelope/storage"
)

var ownershipCheck bool

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "penelope",
		Short: "Persistent LLM chat with named conversations",
		Long: `A chat application that keeps per-user named conversations in a
document store and answers through a hosted completion API.

Two front ends:
- chat:  interactive terminal loop
- serve: JSON HTTP API`,
	}

	rootCmd.PersistentFlags().BoolVar(&ownershipCheck, "ownership-check", false,
		"Refuse to resume conversations owned by another email")

	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			settings, store, provider, err := setup(ctx)
			if err != nil {
				return err
			}
			defer store.Close(ctx)

			manager := newManager(settings, store, provider, settings.LLM.Model)
			return cli.NewRunner(manager, os.Stdin, os.Stdout).Run(ctx)
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			settings, store, provider, err := setup(ctx)
			if err != nil {
				return err
			}
			defer store.Close(ctx)

			// The HTTP chat path runs against the mini model variant.
			manager := newManager(settings, store, provider, settings.LLM.MiniModel)
			srv := server.New(manager, store, provider, chat.Params{
				Model:       settings.LLM.MiniModel,
				MaxTokens:   settings.LLM.MaxTokens,
				Temperature: settings.LLM.Temperature,
			})

			log.Printf("Server starting on %s", settings.Server.Addr)
			return srv.Router().Run(settings.Server.Addr)
		},
	}
}

// setup loads settings and opens the shared store handle and provider.
func setup(ctx context.Context) (config.Settings, storage.ConversationStore, llm.Provider, error) {
	settings, err := config.New()
	if err != nil {
		return config.Settings{}, nil, nil, err
	}

	apiKey, err := settings.LLM.APIKey()
	if err != nil {
		return config.Settings{}, nil, nil, err
	}
	provider, err := settings.LLM.Provider.New(apiKey)
	if err != nil {
		return config.Settings{}, nil, nil, err
	}

	store, err := openStore(ctx, settings.Store)
	if err != nil {
		return config.Settings{}, nil, nil, err
	}

	return settings, store, provider, nil
}

func openStore(ctx context.Context, cfg config.StoreConfig) (storage.ConversationStore, error) {
	switch cfg.Backend {
	case config.BackendMongo:
		return storage.OpenMongo(ctx, cfg.MongoURI, cfg.Database)
	case config.BackendSqlite:
		return storage.OpenSqlite(cfg.SqlitePath)
	default:
		return nil, fmt.Errorf("unknown store backend: %q", cfg.Backend)
	}
}

func newManager(settings config.Settings, store storage.ConversationStore, provider llm.Provider, model string) *chat.Manager {
	params := chat.Params{
		Model:       model,
		MaxTokens:   settings.LLM.MaxTokens,
		Temperature: settings.LLM.Temperature,
	}

	var opts []chat.Option
	if ownershipCheck {
		opts = append(opts, chat.WithOwnershipCheck())
	}
	return chat.NewManager(store, provider, params, opts...)
}
