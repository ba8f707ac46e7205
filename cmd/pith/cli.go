package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/pithworks/pith/internal/errors"
	"github.com/pithworks/pith/internal/ops"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(env *ops.Env) *cli.App {
	app := &cli.App{
		Name:    "pith",
		Usage:   "Context compression engine",
		Version: Version,
		Commands: []*cli.Command{
			compressCmd(env),
			quotaCmd(env),
			statsCmd(env),
			feedbackCmd(env),
			tierCmd(env),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// compressCmd creates the compress command.
func compressCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:  "compress",
		Usage: "Compress context text (reads text from stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "agent", Aliases: []string{"a"}, Usage: "Agent identity for quota and learning (optional)"},
			&cli.StringFlag{Name: "strategy", Aliases: []string{"s"}, Usage: "Strategy hint: dedup|prune|summarize|hybrid"},
			&cli.StringFlag{Name: "session-id", Usage: "Session id (generated when omitted)"},
			&cli.BoolFlag{Name: "text-only", Usage: "Print only the compressed text, no JSON envelope"},
		},
		Action: func(c *cli.Context) error {
			if !stdinHasData() {
				return outputError(errors.NewInvalidRequest("text must be piped via stdin"))
			}
			text, err := readStdin()
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			if text == "" {
				return outputError(errors.NewInvalidRequest("text is required"))
			}

			output, err := ops.Compress(context.Background(), env, ops.CompressInput{
				Text:      text,
				AgentID:   c.String("agent"),
				Strategy:  c.String("strategy"),
				SessionID: c.String("session-id"),
			})
			if err != nil {
				return outputError(err)
			}

			if c.Bool("text-only") {
				fmt.Print(output.Text)
				return nil
			}
			return outputJSON(output)
		},
	}
}

// quotaCmd creates the quota command.
func quotaCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "quota",
		Usage:     "Show an agent's remaining daily allowance",
		ArgsUsage: "<agent-id>",
		Action: func(c *cli.Context) error {
			output, err := ops.Quota(context.Background(), env, ops.QuotaInput{
				AgentID: c.Args().First(),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// statsCmd creates the stats command.
func statsCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "stats",
		Usage:     "Show an agent's compression totals",
		ArgsUsage: "<agent-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "timeframe", Aliases: []string{"t"}, Value: "all", Usage: "Window: day|week|month|all"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Stats(context.Background(), env, ops.StatsInput{
				AgentID:   c.Args().First(),
				Timeframe: c.String("timeframe"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// feedbackCmd creates the feedback command.
func feedbackCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "feedback",
		Usage:     "Judge a past compression session",
		ArgsUsage: "<session-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "positive|negative (required)"},
			&cli.Float64Flag{Name: "score", Value: -1, Usage: "Quality score in [0,1] (optional)"},
			&cli.StringFlag{Name: "notes", Usage: "Free-text notes"},
		},
		Action: func(c *cli.Context) error {
			input := ops.FeedbackInput{
				SessionID: c.Args().First(),
				Type:      c.String("type"),
				Notes:     c.String("notes"),
			}
			if score := c.Float64("score"); score >= 0 {
				input.Score = &score
			}

			output, err := ops.Feedback(context.Background(), env, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// tierCmd creates the tier command.
func tierCmd(env *ops.Env) *cli.Command {
	return &cli.Command{
		Name:      "tier",
		Usage:     "Change an agent's subscription tier or daily limit",
		ArgsUsage: "<agent-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "tier", Usage: "free|pro"},
			&cli.IntFlag{Name: "limit", Value: 0, Usage: "Daily allowance override (negative = unlimited)"},
			&cli.StringFlag{Name: "paid-until", Usage: "RFC 3339 subscription expiry"},
		},
		Action: func(c *cli.Context) error {
			input := ops.SetTierInput{AgentID: c.Args().First()}

			if tier := c.String("tier"); tier != "" {
				input.Tier = &tier
			}
			if c.IsSet("limit") {
				limit := c.Int("limit")
				input.Limit = &limit
			}
			if raw := c.String("paid-until"); raw != "" {
				t, err := time.Parse(time.RFC3339, raw)
				if err != nil {
					return outputError(errors.NewInvalidRequest("paid-until must be an RFC 3339 timestamp"))
				}
				input.PaidUntil = &t
			}

			output, err := ops.SetTier(context.Background(), env, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// outputJSON writes indented JSON to stdout.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if pErr, ok := err.(*errors.PithError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", pErr.Code, pErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
