package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"tagscout/internal/daemonctl"
)

const (
	startWaitTimeout = 10 * time.Second
	stopGracePeriod  = 5 * time.Second
)

func newLifecycleCommands(ctx *commandContext) []*cobra.Command {
	var logLevel string
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the tagscout daemon in the background",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("resolve executable: %w", err)
			}
			result, err := daemonctl.EnsureStarted(cmd.Context(), client, exe,
				daemonctl.LaunchOptions{ConfigPath: ctx.configPath(), LogLevel: logLevel}, startWaitTimeout)
			if err != nil {
				return err
			}
			printStartResult(cmd, result)
			return nil
		},
	}
	startCmd.Flags().StringVar(&logLevel, "log-level", "", "Override logging.level for the launched daemon")

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the tagscout daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(cmd.Context(), client, cfg, stopGracePeriod)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			printStopResult(cmd, result)
			return nil
		},
	}

	restartCmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the tagscout daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("resolve executable: %w", err)
			}
			result, err := daemonctl.Restart(cmd.Context(), client, cfg, exe,
				daemonctl.LaunchOptions{ConfigPath: ctx.configPath(), LogLevel: logLevel},
				stopGracePeriod, startWaitTimeout)
			if err != nil {
				return err
			}
			if result.WasRunning {
				printStopResult(cmd, result.Stop)
			}
			printStartResult(cmd, result.Start)
			return nil
		},
	}
	restartCmd.Flags().StringVar(&logLevel, "log-level", "", "Override logging.level for the launched daemon")

	return []*cobra.Command{startCmd, stopCmd, restartCmd}
}

func printStartResult(cmd *cobra.Command, result daemonctl.StartResult) {
	stdout := cmd.OutOrStdout()
	switch result.State {
	case daemonctl.StartStateStarted:
		fmt.Fprintf(stdout, "Daemon started (pid %d)\n", result.Status.PID)
	case daemonctl.StartStateAlreadyRunning:
		fmt.Fprintf(stdout, "Daemon already running (pid %d)\n", result.Status.PID)
	}
}

func printStopResult(cmd *cobra.Command, result daemonctl.StopResult) {
	stdout := cmd.OutOrStdout()
	if result.ForcedKill {
		fmt.Fprintf(stdout, "Daemon did not exit in time; killed pid %d\n", result.PID)
		return
	}
	fmt.Fprintf(stdout, "Daemon stopped (pid %d)\n", result.PID)
}
