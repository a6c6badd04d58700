package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/vanishhq/vanish/internal/domain"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new ephemeral room",
	Long: `Create asks the server for a fresh room and prints its id together
with the shareable link. The room disappears as soon as the last
participant leaves.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := http.Post(serverURL+"/api/rooms", "application/json", nil)
		if err != nil {
			return fmt.Errorf("failed to reach server: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("server returned %s", resp.Status)
		}

		var room domain.Room
		if err := json.NewDecoder(resp.Body).Decode(&room); err != nil {
			return fmt.Errorf("failed to decode server response: %w", err)
		}

		fmt.Printf("Room created: %s\n", room.ID)
		fmt.Printf("Share link:   %s/room/%s\n", serverURL, room.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createCmd)
}
