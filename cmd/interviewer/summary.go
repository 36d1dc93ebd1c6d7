package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/interviewer/internal/model/interview"
	"github.com/zhouzirui/interviewer/pkg/console"
)

func newSummaryCmd() *cobra.Command {
	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Inspect or seed lecture summaries",
	}
	summaryCmd.AddCommand(newSummaryLatestCmd(), newSummaryAddCmd())
	return summaryCmd
}

func newSummaryLatestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "latest",
		Short: "Show the summary the next interview will use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore(store)

			record, err := store.Latest(cmd.Context())
			if err != nil {
				return err
			}

			console.New(cmd.OutOrStdout()).Summary(record.ID, record.Text, record.CreatedAt.Format(time.RFC3339))
			return nil
		},
	}
}

func newSummaryAddCmd() *cobra.Command {
	var (
		id        string
		file      string
		createdAt string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Store a lecture summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			text, err := readSummaryText(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}

			record := interview.SummaryRecord{ID: id, Text: text}
			if createdAt != "" {
				ts, err := time.Parse(time.RFC3339, createdAt)
				if err != nil {
					return fmt.Errorf("invalid --created-at value %q: %w", createdAt, err)
				}
				record.CreatedAt = ts.UTC()
			}

			store, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore(store)

			if err := store.AddSummary(cmd.Context(), record); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored summary %s\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Source identifier, usually the lecture file name")
	cmd.Flags().StringVar(&file, "file", "-", "File holding the summary text, - for stdin")
	cmd.Flags().StringVar(&createdAt, "created-at", "", "Creation time (RFC3339), defaults to now")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func readSummaryText(stdin io.Reader, path string) (string, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read summary: %w", err)
	}

	text := strings.TrimSpace(string(raw))
	if text == "" {
		return "", fmt.Errorf("summary text is empty")
	}
	return text, nil
}
