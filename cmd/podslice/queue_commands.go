package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"podslice/internal/ipc"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the job queue",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueDescribeCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueResubmitCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStages []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueList(ipc.QueueListRequest{Stages: listStages})
				if err != nil {
					return err
				}
				if len(resp.Jobs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				rows := make([][]string, 0, len(resp.Jobs))
				for _, job := range resp.Jobs {
					rows = append(rows, []string{
						strconv.FormatInt(job.ID, 10),
						job.SourceType,
						truncate(job.SourceRef, 48),
						job.Stage,
						job.ErrorClassification,
						job.CreatedAt,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Type", "Source", "Stage", "Error", "Created"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStages, "stage", "s", nil, "Filter by stage (repeatable)")
	return cmd
}

func newQueueDescribeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <id>",
		Short: "Show full details for one job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueDescribe(id)
				if err != nil {
					return err
				}
				printJob(cmd, resp.Job)
				return nil
			})
		},
	}
}

func printJob(cmd *cobra.Command, job ipc.Job) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Job %d\n", job.ID)
	fmt.Fprintf(out, "  Requested by: %s\n", job.RequestedBy)
	fmt.Fprintf(out, "  Source:       %s %s\n", job.SourceType, job.SourceRef)
	fmt.Fprintf(out, "  Stage:        %s\n", job.Stage)
	if job.TTSProvider != "" {
		fmt.Fprintf(out, "  TTS provider: %s\n", job.TTSProvider)
	}
	if len(job.StageAttempts) > 0 {
		fmt.Fprintf(out, "  Attempts:     %v\n", job.StageAttempts)
	}
	if job.NextAttemptAt != "" {
		fmt.Fprintf(out, "  Next attempt: %s\n", job.NextAttemptAt)
	}
	if job.ErrorClassification != "" {
		fmt.Fprintf(out, "  Error:        %s: %s\n", job.ErrorClassification, job.ErrorMessage)
	}
	if job.EpisodeTitle != "" {
		fmt.Fprintf(out, "  Title:        %s\n", job.EpisodeTitle)
	}
	if job.TranscriptChars > 0 {
		fmt.Fprintf(out, "  Transcript:   %d chars (%.1fs source)\n", job.TranscriptChars, job.SourceDurationSeconds)
	}
	if job.ScriptChars > 0 {
		fmt.Fprintf(out, "  Script:       %d chars\n", job.ScriptChars)
	}
	if job.AudioURI != "" {
		fmt.Fprintf(out, "  Audio:        %s (%.1fs)\n", job.AudioURI, job.AudioDurationSeconds)
	}
	fmt.Fprintf(out, "  Created:      %s\n", job.CreatedAt)
	fmt.Fprintf(out, "  Updated:      %s\n", job.UpdatedAt)
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var clearCompleted bool
	var clearFailed bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove terminal jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !clearCompleted && !clearFailed {
				return errors.New("specify --completed, --failed, or both")
			}
			return ctx.withClient(func(client *ipc.Client) error {
				out := cmd.OutOrStdout()
				if clearCompleted {
					resp, err := client.QueueClearCompleted()
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Cleared %d completed jobs\n", resp.Removed)
				}
				if clearFailed {
					resp, err := client.QueueClearFailed()
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Cleared %d failed jobs\n", resp.Removed)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clearCompleted, "completed", false, "Remove completed jobs")
	cmd.Flags().BoolVar(&clearFailed, "failed", false, "Remove failed jobs")
	return cmd
}

func newQueueResubmitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resubmit <id>",
		Short: "Clone a failed job into a fresh queued job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Resubmit(id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Job %d resubmitted as job %d\n", id, resp.Job.ID)
				return nil
			})
		},
	}
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Delete a terminal job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueRemove(id)
				if err != nil {
					return err
				}
				if !resp.Removed {
					fmt.Fprintf(cmd.OutOrStdout(), "Job %d not removed (missing or still in flight)\n", id)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Job %d removed\n", id)
				return nil
			})
		},
	}
}

func parseJobID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid job id %q", raw)
	}
	return id, nil
}

func truncate(value string, limit int) string {
	if limit <= 3 || len(value) <= limit {
		return value
	}
	return value[:limit-3] + "..."
}
