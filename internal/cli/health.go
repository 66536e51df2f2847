package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	var checkWS bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		Long: `Check server health. With --ws the websocket endpoint is also
exercised with a ping round trip, which needs a token.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result HealthResult

			if err := client.Get("/api/v1/health", &result); err != nil {
				return err
			}
			if checkWS {
				result.WebSocket = "ok"
				if err := pingWebSocket(cmd.Context()); err != nil {
					result.WebSocket = err.Error()
				}
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&checkWS, "ws", false, "Also check the websocket endpoint")

	return cmd
}

func pingWebSocket(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	conn, err := client.Dial(ctx, cfg.WebSocketURL())
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	msg, err := ParseCommand("ping")
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		return fmt.Errorf("send failed: %w", err)
	}

	deadline, _ := ctx.Deadline()
	_ = conn.SetReadDeadline(deadline)
	for {
		var evt ServerEvent
		if err := conn.ReadJSON(&evt); err != nil {
			return fmt.Errorf("no pong: %w", err)
		}
		if evt.Type == "pong" {
			return nil
		}
	}
}
