package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"framecache/internal/journal"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var session string
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded eviction runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.requireJournal()
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.Recent(cmd.Context(), session, limit)
			if err != nil {
				return err
			}
			return printOrEncode(cmd, asJSON, nonEmpty(entries), printHistory)
		},
	}

	cmd.Flags().StringVar(&session, "session", "", "Only show runs from this session ID")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	cmd.AddCommand(newHistorySessionsCommand(ctx))
	cmd.AddCommand(newHistoryPruneCommand(ctx))
	return cmd
}

func newHistorySessionsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Summarize eviction runs per cache session",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.requireJournal()
			if err != nil {
				return err
			}
			defer store.Close()

			sessions, err := store.Sessions(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printOrEncode(cmd, asJSON, nonEmpty(sessions), printSessions)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of sessions to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newHistoryPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete eviction runs older than a cutoff",
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive (got %s)", olderThan)
			}
			store, err := ctx.requireJournal()
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.PruneBefore(cmd.Context(), time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s eviction runs older than %s\n", formatCount(removed), olderThan)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Age cutoff")
	return cmd
}

func printHistory(cmd *cobra.Command, entries []journal.Entry) {
	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No eviction runs recorded")
		return
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			fmt.Sprintf("%d", e.ID),
			formatTime(e.StartedAt),
			shortID(e.SessionID),
			strategyLabel(e.Strategy),
			formatCount(e.Passes),
			formatCount(e.Removed),
			formatBytes(e.FreedBytes()),
			formatBytes(e.MaxBytes),
			formatCount(e.CurrentFrame),
			yesNo(e.Satisfied),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"ID", "Started", "Session", "Strategy", "Passes", "Removed", "Freed", "Budget", "Playhead", "Under budget"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft},
	))
}

func printSessions(cmd *cobra.Command, sessions []journal.SessionSummary) {
	out := cmd.OutOrStdout()
	if len(sessions) == 0 {
		fmt.Fprintln(out, "No eviction runs recorded")
		return
	}
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, []string{
			s.SessionID,
			formatCount(s.Runs),
			formatCount(s.Removed),
			formatBytes(s.FreedBytes),
			formatCount(s.Unsatisfied),
			formatTime(s.FirstRun),
			formatTime(s.LastRun),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Session", "Runs", "Removed", "Freed", "Over budget", "First run", "Last run"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft, alignLeft},
	))
}
