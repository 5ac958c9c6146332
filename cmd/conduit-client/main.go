package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/urfave/cli/v2"

	"github.com/HMasataka/conduit/internal/logging"
	"github.com/HMasataka/conduit/pkg/transport/protocol"
)

func main() {
	app := &cli.App{
		Name:  "conduit-client",
		Usage: "send console commands to a conduit broker and print its output",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "server",
				Usage: "Broker websocket URL.",
				Value: "ws://localhost:8765/ws",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level. One of [debug,info,warn,error].",
				Value: "info",
			},
		},
		Action: func(ctx *cli.Context) error {
			logger := logging.NewWithWriter(logging.Config{
				Level:  ctx.String("log-level"),
				Format: "text",
			}, os.Stderr)

			serverURL, err := url.Parse(ctx.String("server"))
			if err != nil {
				return fmt.Errorf("invalid server URL: %w", err)
			}

			conn, _, err := websocket.DefaultDialer.Dial(serverURL.String(), nil)
			if err != nil {
				return fmt.Errorf("failed to connect: %w", err)
			}
			defer conn.Close()

			logger.Info("connected to broker", "server", serverURL.String())

			interrupt := make(chan os.Signal, 1)
			signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

			received := make(chan struct{})
			go func() {
				defer close(received)
				printMessages(conn, os.Stdout, os.Stderr, logger)
			}()

			lines := make(chan string)
			go func() {
				defer close(lines)
				scanner := bufio.NewScanner(os.Stdin)
				for scanner.Scan() {
					lines <- scanner.Text()
				}
			}()

			for {
				select {
				case line, ok := <-lines:
					if !ok {
						return closeConn(conn, received)
					}
					line = strings.TrimSpace(line)
					if line == "" {
						continue
					}
					if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
						return fmt.Errorf("send: %w", err)
					}
				case <-received:
					logger.Info("connection closed by broker")
					return nil
				case <-interrupt:
					return closeConn(conn, received)
				}
			}
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// printMessages writes every message from conn until the connection closes.
// Error replies go to errOut, acknowledgements and process output to out.
func printMessages(conn *websocket.Conn, out, errOut io.Writer, logger *logging.Logger) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("read error", "error", err)
			}
			return
		}
		w := out
		if protocol.Classify(string(message)) == protocol.KindError {
			w = errOut
		}
		fmt.Fprintln(w, string(message))
	}
}

func closeConn(conn *websocket.Conn, received <-chan struct{}) error {
	err := conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		return fmt.Errorf("close: %w", err)
	}

	select {
	case <-received:
	case <-time.After(time.Second):
	}
	return nil
}
