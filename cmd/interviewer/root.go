package main

import (
	"context"
	"errors"
	"io/fs"
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/interviewer/internal/config"
	"github.com/zhouzirui/interviewer/internal/service/ai"
	"github.com/zhouzirui/interviewer/internal/service/session"
	"github.com/zhouzirui/interviewer/internal/storage"
	"github.com/zhouzirui/interviewer/pkg/console"
)

func newRootCmd() *cobra.Command {
	var envFile string

	rootCmd := &cobra.Command{
		Use:   "interviewer",
		Short: "Technical interview about the latest lecture summary",
		Long: `interviewer loads the most recent lecture summary from the document store,
asks an opening question about it, and then evaluates each answer with a
follow-up question until you type "exit" or "quit". Every answered turn is
appended to the conversation log.`,
		RunE:          runInterview,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadEnvFile(envFile, cmd.Flags().Changed("env-file"))
		},
	}

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Load environment variables from this file")
	rootCmd.AddCommand(newSummaryCmd())
	return rootCmd
}

// loadEnvFile loads .env values without overriding the process environment.
// A missing default file is not an error.
func loadEnvFile(path string, explicit bool) error {
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return nil
	}
	if explicit {
		return err
	}
	log.Printf("warning: failed to load %s: %v", path, err)
	return nil
}

func runInterview(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	store, err := storage.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore(store)

	completer, err := ai.NewCompleter(ctx, cfg.AI)
	if err != nil {
		return err
	}

	out := console.New(cmd.OutOrStdout())
	out.Banner()

	sess := session.New(session.Deps{
		Summaries: store,
		Turns:     store,
		Completer: completer,
		Presenter: out,
	})
	return sess.Run(ctx, cmd.InOrStdin())
}

func openStore(ctx context.Context) (storage.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Store.Validate(); err != nil {
		return nil, err
	}
	return storage.Open(ctx, cfg.Store)
}

func closeStore(store storage.Store) {
	if err := store.Close(context.Background()); err != nil {
		log.Printf("[storage] close failed: %v", err)
	}
}
