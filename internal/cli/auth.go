package cli

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/carsound-ops/api/internal/auth"
	"github.com/carsound-ops/api/internal/config"
	"github.com/carsound-ops/api/internal/enum"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// TokenCmd mints an access token for local development and scripts.
func TokenCmd() *cobra.Command {
	var (
		name string
		role string
		ttl  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a signed access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			role = strings.ToUpper(role)
			if !enum.ValidUserRole(role) {
				return fmt.Errorf("unknown role %q (want ADMIN, CASHIER or SALES)", role)
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if ttl == 0 {
				ttl = cfg.TokenTTL
			}

			token, err := auth.GenerateToken(cfg.JWTSecret, uuid.New(), name, role, ttl)
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name carried in the token")
	cmd.Flags().StringVar(&role, "role", enum.UserRoleAdmin, "ADMIN, CASHIER or SALES")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (default: TOKEN_TTL)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

// HashPinCmd prints the bcrypt hash to put in CONFIRM_PIN_HASH. The PIN is
// read from stdin so it stays out of shell history.
func HashPinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-pin",
		Short: "Hash a confirmation PIN read from stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			pin, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && pin == "" {
				return fmt.Errorf("failed to read pin: %w", err)
			}
			hash, err := auth.HashPin(strings.TrimSpace(pin))
			if err != nil {
				return fmt.Errorf("failed to hash pin: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
