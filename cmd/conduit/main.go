package main

import (
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/HMasataka/conduit/internal/config"
	"github.com/HMasataka/conduit/internal/logging"
)

func main() {
	app := &cli.App{
		Name:  "conduit",
		Usage: "relay websocket commands to a server console and broadcast its output",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a JSON or YAML config file.",
			},
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address as host:port.",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level. One of [debug,info,warn,error].",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log format. One of [text,json,pretty].",
			},
			&cli.StringFlag{
				Name:  "command",
				Usage: "Child process command line, split on whitespace.",
			},
		},
		Action: func(ctx *cli.Context) error {
			cfg, err := config.Load(config.LoadOptions{Path: ctx.String("config")})
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if err := applyFlags(cfg, ctx); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			logger := logging.New(cfg.Logging)

			sigCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			b, err := newBroker(cfg, logger)
			if err != nil {
				return fmt.Errorf("starting broker: %w", err)
			}
			return b.run(sigCtx)
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

type flagSource interface {
	IsSet(name string) bool
	String(name string) string
}

// applyFlags overrides cfg with any flags given on the command line.
func applyFlags(cfg *config.Config, flags flagSource) error {
	if flags.IsSet("addr") {
		host, port, err := net.SplitHostPort(flags.String("addr"))
		if err != nil {
			return fmt.Errorf("parsing addr: %w", err)
		}
		n, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("parsing addr port %q: %w", port, err)
		}
		cfg.Server.Host = host
		cfg.Server.Port = n
	}
	if flags.IsSet("log-level") {
		cfg.Logging.Level = flags.String("log-level")
	}
	if flags.IsSet("log-format") {
		cfg.Logging.Format = flags.String("log-format")
	}
	if flags.IsSet("command") {
		cfg.Process.Command = strings.Fields(flags.String("command"))
	}
	return nil
}
