package cmd

import (
	"github.com/spf13/cobra"

	"github.com/codebuildervaibhav/topic-clipper/internal/timecode"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List jobs known to the server",
	Long:  `List every job the running server knows about, newest first. Jobs are kept in memory and disappear when the server restarts.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		jobs, err := newClient().Jobs()
		if err != nil {
			cmd.Printf("List failed: %v\n", err)
			return err
		}
		if len(jobs) == 0 {
			cmd.Println("No jobs")
			return nil
		}
		for _, j := range jobs {
			cmd.Printf("%s  %-28s  %d clips  %s\n", j.ID, colorizeStatus(j.Status), len(j.Clips), j.SourceURL)
		}
		return nil
	},
}

var clipsCmd = &cobra.Command{
	Use:   "clips",
	Short: "List published clips",
	Long:  `List the most recently published clips from the server's clip catalog.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		clips, err := newClient().Clips(limit)
		if err != nil {
			cmd.Printf("Clips failed: %v\n", err)
			return err
		}
		if len(clips) == 0 {
			cmd.Println("No clips published yet")
			return nil
		}
		for _, c := range clips {
			cmd.Printf("%s  %s  (%s)\n  %s\n", c.CreatedAt.Local().Format("2006-01-02 15:04"), c.Title,
				clipRange(c.StartSeconds, c.EndSeconds), c.URL)
		}
		return nil
	},
}

func clipRange(start, end int) string {
	if start < 0 || end < 0 {
		return "?"
	}
	return timecode.ToDisplay(start) + "-" + timecode.ToDisplay(end)
}

func init() {
	clipsCmd.Flags().IntP("limit", "n", 50, "Maximum number of clips to show")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(clipsCmd)
}
