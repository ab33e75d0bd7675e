package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codebuildervaibhav/topic-clipper/internal/types"
)

// Job is the job record returned by the server
type Job = types.Job

var statusCmd = &cobra.Command{
	Use:   "status [job_id]",
	Short: "Get status of a job",
	Long:  `Show the current stage of a job and, once it has completed, the published clips.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		job, err := newClient().Job(args[0])
		if err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.StatusCode == 404 {
				cmd.Printf("Job %s not found\n", args[0])
			} else {
				cmd.Printf("Status failed: %v\n", err)
			}
			return err
		}
		printJob(cmd, job)
		return nil
	},
}

func printJob(cmd *cobra.Command, job *Job) {
	cmd.Printf("%s %sJob Details%s\n", statusIcon(job.Status), colorBold, colorReset)
	cmd.Println("──────────────────────────────")
	cmd.Printf("%sID:%s          %s\n", colorDim, colorReset, job.ID)
	cmd.Printf("%sSource:%s      %s\n", colorDim, colorReset, job.SourceURL)
	cmd.Printf("%sStatus:%s      %s\n", colorDim, colorReset, colorizeStatus(job.Status))
	if !job.CreatedAt.IsZero() {
		cmd.Printf("%sCreated:%s     %s\n", colorDim, colorReset, job.CreatedAt.Format("Mon, 02 Jan 2006 15:04:05 MST"))
	}
	if job.Error != "" {
		cmd.Printf("%sError:%s       %s%s%s\n", colorDim, colorReset, colorRed, job.Error, colorReset)
	}
	if job.Status == types.StatusCompleted {
		cmd.Printf("%sClips:%s       %d\n", colorDim, colorReset, len(job.Clips))
		for i, c := range job.Clips {
			cmd.Printf("  %d. %s\n     %s\n", i+1, c.Title, c.URL)
		}
	}
}

// jobError turns a failed job into a non-zero exit
func jobError(job *Job) error {
	if job.Status == types.StatusFailed {
		return fmt.Errorf("job %s failed: %s", job.ID, job.Error)
	}
	return nil
}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

func statusIcon(status types.JobStatus) string {
	switch {
	case status == types.StatusCompleted:
		return colorGreen + "✓" + colorReset
	case status == types.StatusFailed:
		return colorRed + "✗" + colorReset
	case status == types.StatusQueued:
		return colorCyan + "◯" + colorReset
	case status.Valid():
		return colorYellow + "⏳" + colorReset
	default:
		return "•"
	}
}

func colorizeStatus(status types.JobStatus) string {
	icon := statusIcon(status)
	switch {
	case status == types.StatusCompleted:
		return icon + " " + colorGreen + string(status) + colorReset
	case status == types.StatusFailed:
		return icon + " " + colorRed + string(status) + colorReset
	case status == types.StatusQueued:
		return icon + " " + colorCyan + string(status) + colorReset
	case status.Valid():
		return icon + " " + colorYellow + string(status) + colorReset
	default:
		return string(status)
	}
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
