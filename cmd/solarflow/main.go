package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/solarflow/solarflow/internal/agent"
	"github.com/solarflow/solarflow/internal/audit"
	"github.com/solarflow/solarflow/internal/config"
	"github.com/solarflow/solarflow/internal/logging"
	"github.com/solarflow/solarflow/internal/models"
)

const version = "0.3.0"

var (
	flagUser       string
	flagLat        float64
	flagLon        float64
	flagCapacity   float64
	flagAuthorized bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "solarflow",
		Short:   "Conversational solar energy assistant",
		Version: version,
	}
	rootCmd.PersistentFlags().StringVar(&flagUser, "user", "default", "user id for memory scoping")
	rootCmd.PersistentFlags().Float64Var(&flagLat, "lat", 0, "latitude for weather enrichment")
	rootCmd.PersistentFlags().Float64Var(&flagLon, "lon", 0, "longitude for weather enrichment")
	rootCmd.PersistentFlags().Float64Var(&flagCapacity, "capacity", 0, "system capacity in kW")
	rootCmd.PersistentFlags().BoolVar(&flagAuthorized, "authorize-tools", false, "grant authorization to restricted tools")

	rootCmd.AddCommand(chatCmd(), askCmd(), toolsCmd(), metricsCmd(), auditCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup() (*app, context.Context, context.CancelFunc, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	log := logging.New(cfg.LogLevel, cfg.LogPretty)

	a, err := buildApp(cfg, log)
	if err != nil {
		return nil, nil, nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()
	return a, ctx, cancel, nil
}

func buildRequest(query string) *agent.Request {
	req := &agent.Request{
		UserID:     flagUser,
		Query:      query,
		CapacityKW: flagCapacity,
		Authorized: flagAuthorized,
	}
	if flagLat != 0 || flagLon != 0 {
		req.Location = &models.Location{Latitude: flagLat, Longitude: flagLon}
	}
	return req
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive assistant session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx, cancel, err := setup()
			if err != nil {
				return err
			}
			defer cancel()
			defer a.close()

			fmt.Printf("SolarFlow %s | user: %s | type 'exit' to quit\n\n", version, flagUser)

			scanner := bufio.NewScanner(os.Stdin)
			for {
				fmt.Print("You: ")
				if !scanner.Scan() {
					return scanner.Err()
				}
				query := strings.TrimSpace(scanner.Text())
				if query == "" {
					continue
				}
				if query == "exit" || query == "quit" {
					return nil
				}

				outcome, err := a.handle(ctx, buildRequest(query))
				if err != nil {
					fmt.Printf("\nerror: %v\n\n", err)
					continue
				}
				fmt.Printf("\nAssistant: %s\n", outcome.Response)
				if len(outcome.ToolCalls) > 0 {
					fmt.Printf("  [tools: %s]\n", strings.Join(outcome.ToolsUsed(), ", "))
				}
				fmt.Println()
			}
		},
	}
}

func askCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a single question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx, cancel, err := setup()
			if err != nil {
				return err
			}
			defer cancel()
			defer a.close()

			outcome, err := a.handle(ctx, buildRequest(strings.Join(args, " ")))
			if err != nil {
				return err
			}
			fmt.Println(outcome.Response)
			return nil
		},
	}
}

func toolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List registered tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, cancel, err := setup()
			if err != nil {
				return err
			}
			defer cancel()
			defer a.close()

			for _, d := range a.registry.List() {
				fmt.Printf("%s\n  %s\n  required: %s\n", d.Name, d.Description, strings.Join(d.Required, ", "))
				if len(d.Optional) > 0 {
					fmt.Printf("  optional: %s\n", strings.Join(d.Optional, ", "))
				}
				if d.RequiresAuthorization {
					fmt.Println("  requires authorization")
				}
			}
			return nil
		},
	}
}

func metricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "List the metric registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, cancel, err := setup()
			if err != nil {
				return err
			}
			defer cancel()
			defer a.close()

			reg := a.evaluator.Registry()
			for _, key := range reg.Keys() {
				def, _ := reg.Definition(key)
				if def.IsConstant {
					fmt.Printf("%s = %v %s\n", key, def.Value, def.Units)
				} else {
					fmt.Printf("%s = %s [%s]\n", key, def.Formula, def.Method)
				}
			}
			return nil
		},
	}
}

func auditCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show recent request audit entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, ctx, cancel, err := setup()
			if err != nil {
				return err
			}
			defer cancel()
			defer a.close()

			if a.audit == nil {
				return fmt.Errorf("audit log is not available")
			}
			entries, err := a.audit.Recent(ctx, limit)
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Printf("%s  user=%s  source=%s  tools=[%s]  %.0fms  ok=%v\n",
					e.Timestamp.Format(time.RFC3339), e.UserID, e.ContextSource,
					e.ToolsUsed, float64(e.Duration.Milliseconds()), e.Success)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of entries to show")
	return cmd
}

// handle runs one request through the engine and records the audit entry.
func (a *app) handle(ctx context.Context, req *agent.Request) (*agent.Outcome, error) {
	start := time.Now()
	outcome, err := a.engine.Handle(ctx, req)

	if a.audit != nil {
		entry := &audit.Entry{
			Timestamp: start,
			UserID:    req.UserID,
			Query:     req.Query,
			Duration:  time.Since(start),
			Success:   err == nil,
		}
		if err != nil {
			entry.Error = err.Error()
		} else {
			entry.ToolsUsed = strings.Join(outcome.ToolsUsed(), ",")
			entry.ContextSource = outcome.ContextSource
		}
		if auditErr := a.audit.Log(ctx, entry); auditErr != nil {
			a.log.Warn().Err(auditErr).Msg("audit write failed")
		}
	}
	return outcome, err
}
