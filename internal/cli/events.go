package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func newConnectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Open an interactive websocket session",
		Long: `Connect to the server's websocket endpoint, send commands read from
stdin and print every event the server pushes.

` + commandHelp + `

Press Ctrl+C or close stdin to disconnect.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Token == "" {
				return fmt.Errorf("no token; run 'duoplay player token' first")
			}
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runSession(ctx, os.Stdin, NewOutput(cfg.Output))
		},
	}

	return cmd
}

// ServerEvent is a message pushed by the server
type ServerEvent struct {
	Type      string          `json:"type"`
	RequestID string          `json:"requestId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

func runSession(ctx context.Context, in io.Reader, out *Output) error {
	conn, err := client.Dial(ctx, cfg.WebSocketURL())
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	out.PrintMessage("Connected to " + cfg.WebSocketURL())

	readErr := make(chan error, 1)
	go func() {
		view := &boardView{}
		for {
			var evt ServerEvent
			if err := conn.ReadJSON(&evt); err != nil {
				readErr <- err
				return
			}
			out.PrintEvent(evt, view)
		}
	}()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return closeSession(conn, out)
		case err := <-readErr:
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				out.PrintMessage("Server closed the connection")
				return nil
			}
			return fmt.Errorf("connection lost: %w", err)
		case line, ok := <-lines:
			if !ok {
				return closeSession(conn, out)
			}
			msg, err := ParseCommand(line)
			if errors.Is(err, ErrEmptyCommand) {
				continue
			}
			if err != nil {
				out.PrintError(err)
				continue
			}
			if cfg.Verbose {
				fmt.Fprintf(os.Stderr, "> %s\n", msg)
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return fmt.Errorf("send failed: %w", err)
			}
		}
	}
}

func closeSession(conn *websocket.Conn, out *Output) error {
	deadline := time.Now().Add(time.Second)
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	out.PrintMessage("Disconnected")
	return nil
}
