package main

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
)

var sendCmd = &cobra.Command{
	Use:   "send <command> [key=value...]",
	Short: "Send one command to the console",
	Long: `Send one command to the console and disconnect.

Argument values that are valid JSON keep their type, anything else is sent
as a string:

  consoleproxy send lua_system.execute script='print("hello")'
  consoleproxy send renderer.resize width=1280 height=720 fullscreen=false`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		linger, _ := cmd.Flags().GetDuration("linger")

		cmdArgs, err := parseArgs(args[1:])
		if err != nil {
			return err
		}

		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		printer, err := newLinePrinter(os.Stdout, "debug", "")
		if err != nil {
			return err
		}

		client, err := a.newClient()
		if err != nil {
			return err
		}
		if err := client.OnLog(printer.print); err != nil {
			return err
		}

		var sent atomic.Bool
		var sendErr error
		client.OnConnect(func() {
			sendErr = client.Send(args[0], cmdArgs)
			sent.Store(true)
			if linger > 0 {
				time.AfterFunc(linger, client.RequestDisconnect)
			} else {
				client.RequestDisconnect()
			}
		})
		client.OnDisconnect(client.RequestDisconnect)

		timeout := a.cfg.Console.ConnectTimeout
		if timeout > 0 {
			timer := time.AfterFunc(timeout, func() {
				if !sent.Load() {
					client.RequestDisconnect()
				}
			})
			defer timer.Stop()
		}

		if err := client.Run(cmd.Context()); err != nil {
			return err
		}
		if !sent.Load() {
			if err := cmd.Context().Err(); err != nil {
				return err
			}
			return fmt.Errorf("console did not accept the connection within %s", timeout)
		}
		if sendErr != nil {
			return sendErr
		}
		a.log.Info("command sent", "name", args[0])
		return nil
	},
}
