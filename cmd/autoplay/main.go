// Command autoplay plays the trail memory game against a running server.
// It watches each computer playback over the WebSocket stream, memorizes the
// trail and retraces it, so a run only ends in a loss if the server misbehaves.
// It is useful as a smoke test for deployments and for load testing.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/trailgame/transport/client"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		logrus.WithError(err).Fatal("Autoplay failed")
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "autoplay",
		Usage: "Play trail memory games automatically",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Value:   "http://localhost:8080",
				Usage:   "Game server base URL",
				Sources: cli.EnvVars("TRAILGAME_URL"),
			},
			&cli.StringFlag{
				Name:  "session",
				Usage: "Play on an existing session instead of creating one",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Config for the new session (server default when empty)",
			},
			&cli.IntFlag{
				Name:  "games",
				Value: 1,
				Usage: "Number of games to play",
			},
			&cli.DurationFlag{
				Name:  "step",
				Value: 50 * time.Millisecond,
				Usage: "Pause between entered cells",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Value: 30 * time.Minute,
				Usage: "Give up on a single game after this long",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the summary as JSON",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Bool("debug") {
				logrus.SetLevel(logrus.DebugLevel)
			}
			log := logrus.WithField("component", "autoplay")

			c := client.New(cmd.String("server"), client.WithLogger(log))
			summary, err := run(ctx, c, Options{
				SessionID: cmd.String("session"),
				ConfigID:  cmd.String("config"),
				Games:     int(cmd.Int("games")),
				Step:      cmd.Duration("step"),
				Timeout:   cmd.Duration("timeout"),
			}, log)
			if err != nil {
				return err
			}

			if cmd.Bool("json") {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}
			printSummary(summary)
			return nil
		},
	}
}

func printSummary(s *Summary) {
	fmt.Printf("\n=== Session %s ===\n", s.SessionID)
	longest := 0
	for i, r := range s.Results {
		status := "LOST"
		if r.Victory {
			status = "WON"
		}
		fmt.Printf("Game %d: %s with %d circles after %d rounds\n", i+1, status, r.TrailLength, r.Rounds)
		if r.TrailLength > longest {
			longest = r.TrailLength
		}
	}
	fmt.Printf("Wins: %d | Losses: %d | Longest trail: %d\n", s.Wins, s.Losses, longest)
}
