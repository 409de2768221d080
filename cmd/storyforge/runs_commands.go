package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"storyforge/internal/runs"
)

func newRunsCommand(cmdCtx *commandContext) *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect recorded pipeline runs",
	}
	runsCmd.AddCommand(newRunsListCommand(cmdCtx))
	runsCmd.AddCommand(newRunsShowCommand(cmdCtx))
	return runsCmd
}

func newRunsListCommand(cmdCtx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openRunStore(cmdCtx)
			if err != nil {
				return err
			}
			defer store.Close()

			all, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(all) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
				return nil
			}

			rows := make([][]string, 0, len(all))
			for _, run := range all {
				rows = append(rows, []string{
					shortID(run.ID),
					string(run.Status),
					run.Topic,
					run.Title,
					strconv.Itoa(run.Segments),
					formatSeconds(run.VideoSeconds),
					run.CreatedAt.Local().Format("2006-01-02 15:04"),
				})
			}
			table := renderTable(
				[]string{"ID", "Status", "Topic", "Title", "Segments", "Duration", "Created"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			)
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list (0 for all)")
	return cmd
}

func newRunsShowCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openRunStore(cmdCtx)
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if run == nil {
				return fmt.Errorf("run %s not found", args[0])
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:        %s\n", run.ID)
			fmt.Fprintf(out, "Status:    %s\n", run.Status)
			fmt.Fprintf(out, "Topic:     %s\n", run.Topic)
			if run.Prompt != "" {
				fmt.Fprintf(out, "Prompt:    %s\n", run.Prompt)
			}
			if run.Title != "" {
				fmt.Fprintf(out, "Title:     %s\n", run.Title)
			}
			if run.VideoPath != "" {
				fmt.Fprintf(out, "Video:     %s (%s, %d segments)\n", run.VideoPath, formatSeconds(run.VideoSeconds), run.Segments)
			}
			if run.ThumbnailPath != "" {
				fmt.Fprintf(out, "Thumbnail: %s\n", run.ThumbnailPath)
			}
			if run.MetadataPath != "" {
				fmt.Fprintf(out, "Metadata:  %s\n", run.MetadataPath)
			}
			if run.ErrorMessage != "" {
				fmt.Fprintf(out, "Error:     %s\n", run.ErrorMessage)
			}
			fmt.Fprintf(out, "Created:   %s\n", run.CreatedAt.Local().Format(time.RFC1123))
			fmt.Fprintf(out, "Updated:   %s\n", run.UpdatedAt.Local().Format(time.RFC1123))
			return nil
		},
	}
}

func openRunStore(cmdCtx *commandContext) (*runs.Store, error) {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := runs.Open(filepath.Join(cfg.Paths.LogDir, "runs.db"))
	if err != nil {
		return nil, fmt.Errorf("open run ledger: %w", err)
	}
	return store, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatSeconds(seconds float64) string {
	if seconds <= 0 {
		return "-"
	}
	return (time.Duration(seconds * float64(time.Second))).Round(time.Second).String()
}
