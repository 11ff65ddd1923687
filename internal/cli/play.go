package cli

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcoot/tictacmatch-go/internal/model"
)

func newPlayCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Join the matchmaking queue and play a game",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cfg.ServerURL, name)
		},
	}

	cmd.Flags().StringVar(&name, "name", "anonymous", "Display name")

	return cmd
}

func runPlay(serverURL, name string) error {
	client, err := Dial(serverURL)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	if err := client.Send(model.Inbound{Type: model.InboundJoinQueue, Name: name}); err != nil {
		return err
	}
	fmt.Println("Waiting for an opponent...")

	var myID model.ConnID
	stdin := bufio.NewScanner(os.Stdin)

	for {
		event, err := client.Next()
		if err != nil {
			return fmt.Errorf("connection lost: %w", err)
		}

		switch event.Type {
		case model.OutboundConnected:
			myID = event.ConnID

		case model.OutboundQueueSize:
			if event.QueueSize != nil {
				fmt.Printf("Players in queue: %d\n", *event.QueueSize)
			}

		case model.OutboundGameFound:
			fmt.Println("Opponent found, joining game...")
			if err := client.Send(model.Inbound{Type: model.InboundJoinGame, SessionID: event.SessionID}); err != nil {
				return err
			}

		case model.OutboundGameUpdate:
			if event.Session == nil {
				continue
			}
			renderSession(event.Session, myID)
			if event.Session.Status == model.StatusFinished {
				return nil
			}
			if event.Session.CurrentTurn == myID {
				pos, err := promptMove(stdin)
				if err != nil {
					return err
				}
				if err := client.Send(model.Inbound{
					Type:      model.InboundMakeMove,
					SessionID: event.Session.ID,
					Position:  pos,
				}); err != nil {
					return err
				}
			}

		case model.OutboundError:
			fmt.Printf("Error: %s\n", event.Reason)
		}
	}
}

// renderSession prints the board and game status. Empty cells show their
// position index so a move can be picked at a glance.
func renderSession(session *model.SessionSnapshot, myID model.ConnID) {
	fmt.Println()
	for row := 0; row < 3; row++ {
		cells := make([]string, 3)
		for col := 0; col < 3; col++ {
			pos := row*3 + col
			if session.Board[pos] == model.MarkerNone {
				cells[col] = strconv.Itoa(pos)
			} else {
				cells[col] = string(session.Board[pos])
			}
		}
		fmt.Println(" " + strings.Join(cells, " | "))
		if row < 2 {
			fmt.Println("---+---+---")
		}
	}
	fmt.Println()

	switch {
	case session.Status == model.StatusFinished && session.Winner == "":
		fmt.Println("Game over: draw")
	case session.Status == model.StatusFinished && session.Winner == myID:
		fmt.Println("Game over: you win!")
	case session.Status == model.StatusFinished:
		fmt.Println("Game over: you lose")
	case session.CurrentTurn == myID:
		fmt.Println("Your turn")
	default:
		fmt.Println("Waiting for opponent's move...")
	}
}

func promptMove(stdin *bufio.Scanner) (int, error) {
	for {
		fmt.Print("Position (0-8): ")
		if !stdin.Scan() {
			return 0, fmt.Errorf("stdin closed")
		}
		pos, err := strconv.Atoi(strings.TrimSpace(stdin.Text()))
		if err != nil || pos < 0 || pos >= model.BoardSize {
			fmt.Println("Enter a number between 0 and 8")
			continue
		}
		return pos, nil
	}
}
