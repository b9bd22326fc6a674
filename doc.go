// Package consoleproxy provides a client for the remote console of a running
// engine instance.
//
// The client keeps one reliable ENet connection to the console server,
// decodes the JSON messages it receives and dispatches them to callbacks
// registered by message type. It exposes three core operations:
//
//   - Handle: register handlers for inbound message types
//   - OnLog: subscribe to console log lines (level, origin, message)
//   - Send: serialize a named command with arguments and send it reliably
//
// Nothing blocks on the network. The connection is driven either by Run on a
// goroutine or by calling Tick once per frame of a host loop.
//
// Basic usage:
//
//	client, err := consoleproxy.NewClient(consoleproxy.Config{
//	    Address: "localhost",
//	    Port:    4447,
//	}, consoleproxy.WithLogger(slog.Default()))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	client.OnLog(func(level, where, msg string) {
//	    fmt.Printf("[%s] %s: %s\n", level, where, msg)
//	})
//	client.OnConnect(func() {
//	    client.Send("lua_system.execute", consoleproxy.Args{"script": "print('hi')"})
//	})
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer stop()
//	client.Run(ctx)
//
// # Wire format
//
// Inbound packets are UTF-8 JSON objects {"type": string, "data": object}.
// Outbound commands are {"name": string, "args": object} followed by a NUL
// byte, sent reliably on channel 0.
package consoleproxy
