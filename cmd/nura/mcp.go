package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"nura/go-api/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server",
	Long: `Start the Model Context Protocol (MCP) server on stdin/stdout so AI
assistants can read and log your nutrition data. It uses the same API URL,
token and timezone as the other commands.

AVAILABLE TOOLS:

  compute_targets   Calculate calorie and macro targets (offline)
  get_daily_stats   A day's consumption against targets and its flow score
  log_meal          Log a meal with calories and macros
  analyze_meal      AI estimate for a meal description, optionally logged
  get_progress      Streak, flow days and level
  get_active_plan   The active quarterly plan

AVAILABLE RESOURCES:

  nura://today      Today's stats, meals and daily log
  nura://progress   Progression and active plan`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		server := mcpserver.NewServer(newClient(), version)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return server.Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
