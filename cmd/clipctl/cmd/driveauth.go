package cmd

import (
	"bufio"
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codebuildervaibhav/topic-clipper/internal/storage"
)

var driveAuthCmd = &cobra.Command{
	Use:   "drive-auth",
	Short: "Authorize Google Drive publishing",
	Long: `Run the OAuth consent flow for Google Drive and cache the token the server uses
to upload clips. Open the printed link, approve access and paste the code back.

Example:
  clipctl drive-auth --credentials config/credentials.json --token config/token.json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		credentials, _ := flags.GetString("credentials")
		tokenFile, _ := flags.GetString("token")
		code, _ := flags.GetString("code")

		config, err := storage.OAuthConfig(credentials)
		if err != nil {
			cmd.Printf("Error: %v\n", err)
			return err
		}

		if code == "" {
			cmd.Printf("Go to the following link in your browser:\n%v\n", storage.AuthCodeURL(config))
			cmd.Print("Enter authorization code: ")

			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				cmd.Println()
				return errors.New("unable to read authorization code")
			}
			code = strings.TrimSpace(line)
		}

		if err := storage.ExchangeAndSaveToken(context.Background(), config, code, tokenFile); err != nil {
			cmd.Printf("Error: %v\n", err)
			return err
		}
		cmd.Printf("✓ Token saved to %s\n", tokenFile)
		return nil
	},
}

func init() {
	flags := driveAuthCmd.Flags()
	flags.String("credentials", "config/credentials.json", "OAuth client credentials file")
	flags.String("token", "config/token.json", "Where to store the OAuth token")
	flags.String("code", "", "Authorization code (skips the prompt)")

	rootCmd.AddCommand(driveAuthCmd)
}
