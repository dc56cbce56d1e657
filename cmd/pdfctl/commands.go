package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"pdf-ai-pipeline/internal/usecase"
)

var (
	enqPDFID    int64
	enqPath     string
	enqCallback string
	enqProvider string
	enqMode     string
)

var enqueueCmd = &cobra.Command{
	Use:   "enqueue",
	Short: "Submit a summarization job",
	RunE: func(cmd *cobra.Command, args []string) error {
		jobs, closeFn, err := openJobs(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		job, err := jobs.Submit(cmd.Context(), usecase.JobRequest{
			PDFID:       enqPDFID,
			StoragePath: enqPath,
			CallbackURL: enqCallback,
			LLMProvider: enqProvider,
			Mode:        enqMode,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "enqueued job_id=%s pdf_id=%d provider=%s mode=%s\n",
			job.ID, job.PDFID, job.Provider, job.Mode)
		return nil
	},
}

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print pending and in-flight job counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		jobs, closeFn, err := openJobs(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		s, err := jobs.Stats(cmd.Context())
		if err != nil {
			return err
		}
		if statsJSON {
			b, _ := json.MarshalIndent(s, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "pending=%d in_flight=%d\n", s.Pending, s.InFlight)
		return nil
	},
}

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Requeue claimed jobs that were never acked",
	Long: "Moves jobs left in flight by crashed workers back to pending. " +
		"Run it only while no workers are consuming the queue.",
	RunE: func(cmd *cobra.Command, args []string) error {
		jobs, closeFn, err := openJobs(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		n, err := jobs.Recover(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "requeued=%d\n", n)
		return nil
	},
}

func init() {
	enqueueCmd.Flags().Int64Var(&enqPDFID, "pdf-id", 0, "caller's PDF identifier (required)")
	enqueueCmd.Flags().StringVar(&enqPath, "path", "", "storage path or gs://bucket/object (required)")
	enqueueCmd.Flags().StringVar(&enqCallback, "callback", "", "webhook URL for the result (required)")
	enqueueCmd.Flags().StringVar(&enqProvider, "provider", "cloud", "llm provider (cloud|local)")
	enqueueCmd.Flags().StringVar(&enqMode, "mode", "pro", "tier preference (flash|pro)")
	_ = enqueueCmd.MarkFlagRequired("pdf-id")
	_ = enqueueCmd.MarkFlagRequired("path")
	_ = enqueueCmd.MarkFlagRequired("callback")

	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "JSON output")

	rootCmd.AddCommand(enqueueCmd, statsCmd, recoverCmd)
}
