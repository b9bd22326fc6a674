package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cyberegoorg/consoleproxy"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive console: one command per line",
	Long: `Read commands from standard input and send them to the console while
printing its log output. Each line is "name key=value ...". Type "quit" or
send EOF to disconnect.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		forceStore, _ := cmd.Flags().GetBool("store")

		a, err := setup(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		printer, err := newLinePrinter(os.Stdout, "debug", "")
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

		client, err := a.newClient()
		if err != nil {
			return err
		}
		if err := client.OnLog(printer.print); err != nil {
			return err
		}
		if store != nil {
			if err := client.OnLog(store.Subscriber(client.SessionID(), a.log)); err != nil {
				return err
			}
		}
		client.OnConnect(func() {
			fmt.Fprintln(cmd.ErrOrStderr(), "connected; type \"quit\" to leave")
		})
		client.OnDisconnect(client.RequestDisconnect)

		go readCommands(cmd.InOrStdin(), cmd.ErrOrStderr(), client)

		return client.Run(cmd.Context())
	},
}

// commandSender is the part of the client the shell drives.
type commandSender interface {
	Send(name string, args consoleproxy.Args) error
	Connected() bool
	RequestDisconnect()
}

// readCommands sends one command per input line until EOF or "quit", then
// requests a disconnect. Problems with a line are reported and skipped.
func readCommands(in io.Reader, errOut io.Writer, client commandSender) {
	defer client.RequestDisconnect()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "quit", "exit":
			return
		}

		name, args, err := parseLine(line)
		if err != nil {
			if !errors.Is(err, errEmptyLine) {
				fmt.Fprintln(errOut, "parse:", err)
			}
			continue
		}
		if !client.Connected() {
			fmt.Fprintln(errOut, "not connected, command dropped:", name)
			continue
		}
		if err := client.Send(name, args); err != nil {
			fmt.Fprintln(errOut, "send:", err)
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintln(errOut, "read input:", err)
	}
}
