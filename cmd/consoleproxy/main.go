package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "consoleproxy",
	Short: "Talk to the remote console of a running engine",
	Long: `consoleproxy connects to the remote console of a running engine instance.

It streams the engine's log output, sends console commands with
arguments, and can keep a searchable history of everything it received.`,
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "consoleproxy.yaml", "Path to the YAML configuration file")
	pf.String("address", "", "Console host (overrides config)")
	pf.Int("port", 0, "Console port (overrides config)")
	pf.String("transport", "", "Transport: enet or websocket (overrides config)")
	pf.String("url", "", "WebSocket bridge URL for the websocket transport")
	pf.String("log-level", "", "Log level for consoleproxy's own diagnostics")

	tailCmd.Flags().String("filter", "", "Only print lines whose message matches this regular expression")
	tailCmd.Flags().String("min-level", "debug", "Only print lines at or above this level")
	tailCmd.Flags().Bool("store", false, "Persist received lines to the log store")
	tailCmd.Flags().Bool("reconnect", false, "Reconnect when the console goes away")

	sendCmd.Flags().Duration("linger", 0, "Keep printing console output this long after sending")

	shellCmd.Flags().Bool("store", false, "Persist received lines to the log store")

	historyCmd.Flags().String("session", "", "Only show lines from this session id")
	historyCmd.Flags().String("level", "", "Only show lines with this level")
	historyCmd.Flags().Int("limit", 50, "Number of lines to show (0 = all)")

	rootCmd.AddCommand(tailCmd, sendCmd, shellCmd, historyCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
