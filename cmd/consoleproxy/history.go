package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cyberegoorg/consoleproxy/internal/logstore"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print console log lines from the log store",
	RunE: func(cmd *cobra.Command, args []string) error {
		session, _ := cmd.Flags().GetString("session")
		level, _ := cmd.Flags().GetString("level")
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		store, err := a.openStore(true)
		if err != nil {
			return err
		}
		defer store.Close()

		entries, err := store.Recent(cmd.Context(), logstore.Query{
			Session: session,
			Level:   level,
			Limit:   limit,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, e := range entries {
			fmt.Fprintln(out, formatEntry(e))
		}
		return nil
	},
}

func formatEntry(e logstore.Entry) string {
	return fmt.Sprintf("%s [%s] %s: %s (session %s)",
		e.ReceivedAt.Format(time.DateTime), e.Level, e.Origin, e.Message, e.Session)
}
