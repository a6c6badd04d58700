package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/spf13/cobra"
	"github.com/vanishhq/vanish/internal/domain"
	"github.com/vanishhq/vanish/internal/ids"
)

var joinCmd = &cobra.Command{
	Use:   "join <room-id-or-link>",
	Short: "Join a room and chat from the terminal",
	Long: `Join connects to a room and bridges it to the terminal: incoming
messages are printed, and every line typed on stdin is sent to the
room. The argument may be a raw room id or a full share link.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		roomID, ok := ids.ExtractRoomID(args[0])
		if !ok {
			return fmt.Errorf("%q is not a room id or share link", args[0])
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		wsURL := strings.Replace(serverURL, "http", "ws", 1) + "/ws"
		conn, _, err := websocket.Dial(ctx, wsURL, nil)
		if err != nil {
			return fmt.Errorf("failed to connect to %s: %w", wsURL, err)
		}
		defer conn.Close(websocket.StatusNormalClosure, "client exiting")

		join, err := json.Marshal(map[string]string{"type": "join_room", "roomId": roomID})
		if err != nil {
			return err
		}
		if err := conn.Write(ctx, websocket.MessageText, join); err != nil {
			return fmt.Errorf("failed to join room: %w", err)
		}

		done := make(chan error, 1)
		go func() {
			done <- printEvents(cmd.Context(), conn)
		}()

		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			frame, err := json.Marshal(map[string]string{"type": "send_message", "content": line})
			if err != nil {
				return err
			}
			if err := conn.Write(cmd.Context(), websocket.MessageText, frame); err != nil {
				return fmt.Errorf("failed to send message: %w", err)
			}
		}

		conn.Close(websocket.StatusNormalClosure, "client exiting")
		return <-done
	},
}

// printEvents reads server events until the connection closes and
// renders them for the terminal.
func printEvents(ctx context.Context, conn *websocket.Conn) error {
	for {
		_, frame, err := conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				return nil
			}
			return fmt.Errorf("connection lost: %w", err)
		}

		var head struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(frame, &head); err != nil {
			continue
		}

		switch head.Type {
		case "joined_room":
			var ev struct {
				User domain.User `json:"user"`
				Room domain.Room `json:"room"`
			}
			if err := json.Unmarshal(frame, &ev); err == nil {
				fmt.Printf("Joined room %s as %s\n", ev.Room.ID, ev.User.Name)
			}
		case "messages_history":
			var ev struct {
				Messages []domain.Message `json:"messages"`
			}
			if err := json.Unmarshal(frame, &ev); err == nil {
				for _, msg := range ev.Messages {
					printMessage(msg)
				}
			}
		case "users_list":
			var ev struct {
				Users []domain.User `json:"users"`
			}
			if err := json.Unmarshal(frame, &ev); err == nil {
				names := make([]string, 0, len(ev.Users))
				for _, u := range ev.Users {
					names = append(names, u.Name)
				}
				fmt.Printf("Online: %s\n", strings.Join(names, ", "))
			}
		case "new_message":
			var ev struct {
				Message domain.Message `json:"message"`
			}
			if err := json.Unmarshal(frame, &ev); err == nil {
				printMessage(ev.Message)
			}
		case "user_joined", "user_left":
			var ev struct {
				Message domain.Message `json:"message"`
			}
			if err := json.Unmarshal(frame, &ev); err == nil {
				fmt.Printf("* %s\n", ev.Message.Content)
			}
		case "error":
			var ev struct {
				Message string `json:"message"`
			}
			if err := json.Unmarshal(frame, &ev); err == nil {
				fmt.Fprintf(os.Stderr, "server error: %s\n", ev.Message)
			}
		}
	}
}

func printMessage(msg domain.Message) {
	fmt.Printf("[%s] %s: %s\n", msg.Timestamp.Local().Format("15:04"), msg.AuthorName, msg.Content)
}
