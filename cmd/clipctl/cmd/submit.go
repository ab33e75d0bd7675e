package cmd

import (
	"time"

	"github.com/spf13/cobra"
)

var submitCmd = &cobra.Command{
	Use:   "submit [video_url]",
	Short: "Submit a video for clipping",
	Long: `Queue a YouTube video for clipping. The server answers immediately with a job id;
use --wait to poll until the job finishes and print the published clips.

Example:
  clipctl submit https://youtu.be/dQw4w9WgXcQ
  clipctl submit https://www.youtube.com/watch?v=dQw4w9WgXcQ --wait --timeout 2h`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		wait, _ := flags.GetBool("wait")
		interval, _ := flags.GetDuration("interval")
		timeout, _ := flags.GetDuration("timeout")

		client := newClient()
		res, err := client.Submit(args[0])
		if err != nil {
			cmd.Printf("Submit failed: %v\n", err)
			return err
		}
		cmd.Printf("✓ Job submitted!\nJob ID: %s\n", res.JobID)

		if !wait {
			return nil
		}

		job, err := client.WaitForJob(res.JobID, interval, timeout, func(j *Job) {
			cmd.Printf("  %s\n", colorizeStatus(j.Status))
		})
		if err != nil {
			cmd.Printf("Wait failed: %v\n", err)
			return err
		}
		printJob(cmd, job)
		return jobError(job)
	},
}

func init() {
	flags := submitCmd.Flags()
	flags.BoolP("wait", "w", false, "Wait until the job finishes")
	flags.Duration("interval", 2*time.Second, "Polling interval while waiting")
	flags.Duration("timeout", time.Hour, "Give up waiting after this long (0 waits forever)")

	rootCmd.AddCommand(submitCmd)
}
