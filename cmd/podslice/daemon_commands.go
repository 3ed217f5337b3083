package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"podslice/internal/ipc"
	"podslice/internal/queue"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start job processing on the running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Start()
				if err != nil {
					return err
				}
				if resp.Started {
					fmt.Fprintln(cmd.OutOrStdout(), "Daemon started")
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
				}
				return nil
			})
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop job processing on the running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.Stop(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Daemon stopped")
				return nil
			})
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				colorize := shouldColorize(stdout)
				fmt.Fprintf(stdout, "Running: %s (pid %d)\n", colorizeReady(yesNo(status.Running), status.Running, colorize), status.PID)
				fmt.Fprintf(stdout, "Queue database: %s\n", status.QueueDBPath)
				fmt.Fprintf(stdout, "Lock file: %s\n", status.LockPath)
				fmt.Fprintln(stdout)

				if len(status.StageHealth) > 0 {
					rows := make([][]string, 0, len(status.StageHealth))
					for _, health := range status.StageHealth {
						detail := health.Detail
						if detail == "" && health.Ready {
							detail = "ready"
						}
						rows = append(rows, []string{health.Name, colorizeReady(yesNo(health.Ready), health.Ready, colorize), detail})
					}
					fmt.Fprintln(stdout, renderTable(
						[]string{"Stage", "Ready", "Detail"},
						rows,
						[]columnAlignment{alignLeft, alignLeft, alignLeft},
					))
				}

				rows := buildQueueStatsRows(status.QueueStats)
				if len(rows) == 0 {
					fmt.Fprintln(stdout, "Queue is empty")
					return nil
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"Stage", "Count"},
					rows,
					[]columnAlignment{alignLeft, alignRight},
				))
				return nil
			})
		},
	}

	return []*cobra.Command{startCmd, stopCmd, statusCmd}
}

// buildQueueStatsRows orders counters by pipeline position rather than
// alphabetically so the table reads queued-to-failed.
func buildQueueStatsRows(stats map[string]int) [][]string {
	if len(stats) == 0 {
		return nil
	}
	order := make(map[string]int, len(queue.AllStages())+1)
	for i, s := range queue.AllStages() {
		order[string(s)] = i
	}
	order[string(queue.StageFailed)] = len(order)

	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		oi, iok := order[names[i]]
		oj, jok := order[names[j]]
		if iok && jok {
			return oi < oj
		}
		if iok != jok {
			return iok
		}
		return names[i] < names[j]
	})

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		if stats[name] == 0 {
			continue
		}
		rows = append(rows, []string{name, fmt.Sprintf("%d", stats[name])})
	}
	return rows
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
