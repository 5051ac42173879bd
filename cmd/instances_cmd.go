package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/wamux/pkg/protocol"
)

var (
	serverURL string
	adminUser string
	adminPass string
)

func instancesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "instances",
		Short: "Manage gateway sessions (create, list, disconnect)",
	}

	cmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:3335", "gateway base URL")
	cmd.PersistentFlags().StringVar(&adminUser, "admin-user", "admin", "admin username")
	cmd.PersistentFlags().StringVar(&adminPass, "admin-pass", "", "admin password")

	cmd.AddCommand(instancesCreateCmd())
	cmd.AddCommand(instancesListCmd())
	cmd.AddCommand(instancesDisconnectCmd())

	return cmd
}

func client() *apiClient {
	return &apiClient{baseURL: serverURL, adminUser: adminUser, adminPass: adminPass}
}

func instancesCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create a new session and print its secret code",
		Run: func(cmd *cobra.Command, args []string) {
			var resp protocol.CreateInstanceResponse
			if err := client().post("/v1/instances", nil, true, &resp); err != nil {
				fail(err)
			}
			fmt.Printf("Secret code: %s\nStatus:      %s\n", resp.SecretCode, resp.Status)
		},
	}
}

func instancesListCmd() *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all sessions",
		Run: func(cmd *cobra.Command, args []string) {
			var resp struct {
				Instances []protocol.SessionInfo `json:"instances"`
			}
			if err := client().get("/v1/instances", true, &resp); err != nil {
				fail(err)
			}

			if jsonOutput {
				json.NewEncoder(os.Stdout).Encode(resp.Instances)
				return
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SECRET CODE\tSTATUS\tACTIVE\tUPDATED")
			for _, inst := range resp.Instances {
				fmt.Fprintf(w, "%s\t%s\t%v\t%s\n", inst.SecretCode, inst.Status, inst.IsActive, inst.UpdatedAt)
			}
			w.Flush()
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func instancesDisconnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect [secret-code]",
		Short: "Log a session out and discard its credentials",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			var resp struct {
				Status string `json:"status"`
			}
			if err := client().post("/v1/disconnect/"+args[0], nil, false, &resp); err != nil {
				fail(err)
			}
			fmt.Println("Status:", resp.Status)
		},
	}
}
