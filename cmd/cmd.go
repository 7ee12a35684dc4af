package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dstream/session-service/config"
	"github.com/urfave/cli/v2"
)

const (
	ServiceName      = "session-service"
	ServiceNamespace = "dstream"
)

func Run() error {
	app := &cli.App{
		Name:  ServiceName,
		Usage: "Session lifecycle worker for the dstream realtime platform",
		Commands: []*cli.Command{
			workerCmd(),
		},
	}

	return app.Run(os.Args)
}

func workerCmd() *cli.Command {
	return &cli.Command{
		Name:    "worker",
		Aliases: []string{"w"},
		Usage:   "Run the session lifecycle worker",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config_file",
				Usage: "Path to the configuration file",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			app := NewApp(cfg)

			if err := app.Start(c.Context); err != nil {
				return err
			}

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			<-stop

			slog.Info("Shutting down...")
			return app.Stop(context.Background())
		},
	}
}
