package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mcoot/duoplay/internal/dependencies/clock"
	"github.com/mcoot/duoplay/internal/model"
	"github.com/mcoot/duoplay/internal/services/auth"
)

func newPlayerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "player",
		Short: "Player identity commands",
	}

	cmd.AddCommand(newPlayerTokenCmd())
	cmd.AddCommand(newPlayerMeCmd())
	cmd.AddCommand(newPlayerPresenceCmd())

	return cmd
}

func newPlayerTokenCmd() *cobra.Command {
	var name, id string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development token signed with the server secret",
		Long: `Mint a token locally using the shared auth secret (--secret or
DUOPLAY_AUTH_SECRET) and save it to the token file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Secret == "" {
				return fmt.Errorf("--secret or DUOPLAY_AUTH_SECRET is required")
			}
			if id == "" {
				id = uuid.NewString()
			}

			svc, err := auth.New(clock.New(), auth.Config{Secret: cfg.Secret, TokenDuration: ttl})
			if err != nil {
				return err
			}
			token, identity, expires, err := svc.Issue(model.Identity{UserID: model.UserID(id), DisplayName: name})
			if err != nil {
				return err
			}

			if err := cfg.SaveToken(token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			out := NewOutput(cfg.Output)
			out.Print(TokenResult{
				Identity:  Identity{UserID: string(identity.UserID), DisplayName: identity.DisplayName},
				Token:     token,
				ExpiresAt: expires,
			})
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name (required)")
	cmd.Flags().StringVar(&id, "id", "", "User ID (default: random)")
	cmd.Flags().StringVar(&cfg.Secret, "secret", cfg.Secret, "Auth secret (env: DUOPLAY_AUTH_SECRET)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newPlayerMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the identity behind the current token",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Identity
			if err := client.Get("/api/v1/players/me", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newPlayerPresenceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presence <user-id>",
		Short: "Show a player's last known presence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Presence
			if err := client.Get("/api/v1/players/"+args[0]+"/presence", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
