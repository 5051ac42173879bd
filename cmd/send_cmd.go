package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/wamux/pkg/protocol"
)

func sendCmd() *cobra.Command {
	var (
		server     string
		secretCode string
		number     string
		imageURL   string
	)

	cmd := &cobra.Command{
		Use:   "send [text...]",
		Short: "Send a message through a connected session",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			c := &apiClient{baseURL: server}

			var resp protocol.SendResponse
			err := c.post("/v1/send", protocol.SendRequest{
				SecretCode: secretCode,
				Number:     number,
				Text:       strings.Join(args, " "),
				ImageURL:   imageURL,
			}, false, &resp)
			if err != nil {
				fail(err)
			}

			fmt.Printf("Sent to %s (checked: %s)\n", resp.SentTo, strings.Join(resp.CandidatesChecked, ", "))
		},
	}

	cmd.Flags().StringVar(&server, "server", "http://localhost:3335", "gateway base URL")
	cmd.Flags().StringVar(&secretCode, "code", "", "session secret code (required)")
	cmd.Flags().StringVar(&number, "to", "", "recipient number (required)")
	cmd.Flags().StringVar(&imageURL, "image", "", "image URL to attach")
	cmd.MarkFlagRequired("code")
	cmd.MarkFlagRequired("to")

	return cmd
}
