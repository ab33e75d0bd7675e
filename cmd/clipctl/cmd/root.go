package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// DefaultServerURL is used when neither --url nor CLIPPER_URL is set
const DefaultServerURL = "http://localhost:3000"

var serverURL string

var rootCmd = &cobra.Command{
	Use:   "clipctl",
	Short: "clipctl is a command line client for the topic clip server",
	Long: `clipctl talks to the clip server, which downloads a YouTube video, transcribes it,
splits the transcript into topics and publishes one short clip per topic.

Common workflows:

  Submit a video and wait for the clips:
    clipctl submit https://www.youtube.com/watch?v=dQw4w9WgXcQ --wait

  Check a job:
    clipctl status <job-id>

  List jobs and published clips:
    clipctl list
    clipctl clips --limit 20

  Authorize Google Drive publishing (run once on the server host):
    clipctl drive-auth

Configuration:
  CLIPPER_URL    Server URL (default: http://localhost:3000)`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func defaultURL() string {
	if u := os.Getenv("CLIPPER_URL"); u != "" {
		return u
	}
	return DefaultServerURL
}

func newClient() *ClipClient {
	return NewClipClient(serverURL)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "url", defaultURL(), "clip server URL (env CLIPPER_URL)")
}
