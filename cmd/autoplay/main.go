// Command autoplay drives a game session over the REST API with a simple
// shrine-seeking bot. It is useful for smoke testing a running server and for
// checking that a level can be completed within its turn limit.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/hexstones/game/engine"
)

// Report summarises a finished run.
type Report struct {
	SessionID  string
	Actions    int
	Turns      int
	Discovered int
	Shrines    int
	Collected  int
	GameOver   bool
	StopReason string
}

type playOptions struct {
	MaxActions int
	Delay      time.Duration
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand(logger).Run(ctx, os.Args); err != nil {
		logger.Error("autoplay failed", "error", err)
		os.Exit(1)
	}
}

func newCommand(logger *slog.Logger) *cli.Command {
	return &cli.Command{
		Name:  "autoplay",
		Usage: "Play a Hexstones session with a shrine-seeking bot",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "Server base URL", Sources: cli.EnvVars("HEXSTONES_API_URL")},
			&cli.StringFlag{Name: "config", Usage: "Configuration to start a new session with"},
			&cli.StringFlag{Name: "session", Usage: "Continue an existing session instead of creating one"},
			&cli.IntFlag{Name: "max-actions", Value: 1000, Usage: "Stop after this many actions"},
			&cli.DurationFlag{Name: "delay", Usage: "Pause between actions"},
			&cli.BoolFlag{Name: "reset", Usage: "Reset the session before playing"},
			&cli.BoolFlag{Name: "debug", Usage: "Log every decision"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Bool("debug") {
				logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
			}
			client := NewClient(strings.TrimRight(cmd.String("url"), "/"))

			var apPerTurn int
			if id := cmd.String("session"); id != "" {
				client.UseSession(id)
				info, err := client.GetSession(ctx)
				if err != nil {
					return err
				}
				apPerTurn = info.GameConfig.APPerTurn
				logger.Info("Continuing session", "session_id", id)
			} else {
				info, err := client.CreateSession(ctx, cmd.String("config"))
				if err != nil {
					return err
				}
				apPerTurn = info.GameConfig.APPerTurn
				logger.Info("Created session", "session_id", info.ID, "config", info.ConfigName)
			}
			if cmd.Bool("reset") {
				if _, err := client.Reset(ctx); err != nil {
					return err
				}
			}

			report, err := play(ctx, client, NewShrineStrategy(apPerTurn, logger), playOptions{
				MaxActions: int(cmd.Int("max-actions")),
				Delay:      cmd.Duration("delay"),
			}, logger)
			if report != nil {
				printReport(report)
			}
			return err
		},
	}
}

// play runs the strategy until it stops, the game ends or the action budget
// runs out.
func play(ctx context.Context, client *Client, strategy *ShrineStrategy, opts playOptions, logger *slog.Logger) (*Report, error) {
	report := &Report{SessionID: client.sessionID}

	state, err := client.GetState(ctx)
	if err != nil {
		return nil, err
	}

	for report.Actions < opts.MaxActions {
		if err := ctx.Err(); err != nil {
			report.StopReason = "interrupted"
			break
		}

		movable, err := client.Movable(ctx)
		if err != nil {
			return report, err
		}

		decision := strategy.NextMove(state, movable)
		logger.Debug("Decision", "kind", decision.Kind, "to", decision.To.String(), "reason", decision.Reason)
		if decision.Kind == DecideStop {
			report.StopReason = decision.Reason
			break
		}

		switch decision.Kind {
		case DecideMove:
			res, err := client.Move(ctx, decision.To)
			if err != nil {
				return report, err
			}
			if !res.Success {
				logger.Warn("Move refused", "to", decision.To.String(), "reason", res.ReasonCode, "message", res.Message)
			}
			if res.GameState != nil {
				state = res.GameState
			}
		case DecideEndTurn:
			res, err := client.EndTurn(ctx)
			if err != nil {
				return report, err
			}
			if !res.Success {
				return report, fmt.Errorf("end turn refused: %s", res.Message)
			}
			if res.GameState != nil {
				state = res.GameState
			}
		}
		report.Actions++

		if opts.Delay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(opts.Delay):
			}
		}
	}

	if report.StopReason == "" && report.Actions >= opts.MaxActions {
		report.StopReason = "action limit reached"
	}
	fillReport(report, state, strategy)
	return report, nil
}

func fillReport(report *Report, state *engine.GameState, strategy *ShrineStrategy) {
	report.Turns = state.Turn
	report.GameOver = state.GameOver
	report.Shrines = len(state.MegaTiles)
	report.Collected = strategy.Collected()
	for _, m := range state.MegaTiles {
		if m.Revealed {
			report.Discovered++
		}
	}
}

func printReport(r *Report) {
	fmt.Printf("\n=== Autoplay Report ===\n")
	fmt.Printf("Session:    %s\n", r.SessionID)
	fmt.Printf("Actions:    %d\n", r.Actions)
	fmt.Printf("Turns:      %d\n", r.Turns)
	fmt.Printf("Discovered: %d/%d shrines\n", r.Discovered, r.Shrines)
	fmt.Printf("Collected:  %d\n", r.Collected)
	if r.GameOver {
		fmt.Println("Result:     game over")
	}
	fmt.Printf("Stopped:    %s\n", r.StopReason)
}
