package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"podslice/internal/ipc"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var sourceType string
	var requestedBy string
	var voiceID string

	cmd := &cobra.Command{
		Use:   "submit <source-ref>",
		Short: "Submit an episode-generation job",
		Long: `Submit an episode-generation job.

For video sources the reference is the media URL. For news sources it is
"topic|url[,url...]", for example "ai-safety|https://a.example/x,https://b.example/y".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Submit(ipc.SubmitRequest{
					SourceType:  strings.ToLower(strings.TrimSpace(sourceType)),
					SourceRef:   args[0],
					RequestedBy: requestedBy,
					VoiceID:     voiceID,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Job %d queued\n", resp.JobID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&sourceType, "type", "t", "video", "Source type: video or news")
	cmd.Flags().StringVarP(&requestedBy, "requested-by", "u", "", "Owner identifier recorded on the job")
	cmd.Flags().StringVar(&voiceID, "voice", "", "Voice to synthesize with (defaults to tts.default_voice)")
	_ = cmd.MarkFlagRequired("requested-by")
	return cmd
}
