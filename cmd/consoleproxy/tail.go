package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cyberegoorg/consoleproxy/internal/logstore"
)

const (
	reconnectDelayMin = 500 * time.Millisecond
	reconnectDelayMax = 10 * time.Second
)

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Stream console log output",
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, _ := cmd.Flags().GetString("filter")
		minLevel, _ := cmd.Flags().GetString("min-level")
		forceStore, _ := cmd.Flags().GetBool("store")
		reconnect, _ := cmd.Flags().GetBool("reconnect")

		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		printer, err := newLinePrinter(os.Stdout, minLevel, filter)
		if err != nil {
			return err
		}
		store, err := a.openStore(forceStore)
		if err != nil {
			return err
		}
		if store != nil {
			defer store.Close()
		}

		ctx := cmd.Context()
		delay := reconnectDelayMin
		for {
			connected, err := a.tailOnce(ctx, printer, store)
			if err != nil {
				return err
			}
			if !reconnect || ctx.Err() != nil {
				return nil
			}
			if connected {
				delay = reconnectDelayMin
			}

			a.log.Info("console unavailable, retrying", "delay", delay)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(delay):
			}
			delay = min(delay*2, reconnectDelayMax)
		}
	},
}

// tailOnce runs one client until the console disconnects or ctx is done and
// reports whether the console ever accepted the connection.
func (a *app) tailOnce(ctx context.Context, printer *linePrinter, store *logstore.Store) (bool, error) {
	client, err := a.newClient()
	if err != nil {
		return false, err
	}

	var connected bool
	client.OnConnect(func() { connected = true })
	client.OnDisconnect(client.RequestDisconnect)
	if err := client.OnLog(printer.print); err != nil {
		return false, err
	}
	if store != nil {
		if err := client.OnLog(store.Subscriber(client.SessionID(), a.log)); err != nil {
			return false, err
		}
	}

	if err := client.Run(ctx); err != nil {
		return connected, err
	}
	return connected, nil
}
