package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fieldaccess/internal/auth"
	"fieldaccess/internal/config"
)

func newTokenCmd() *cobra.Command {
	var (
		subject string
		roles   []string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access token signed with the configured secret.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("ttl") && cfg.TokenTTL > 0 {
				ttl = time.Duration(cfg.TokenTTL) * time.Second
			}

			token, err := auth.GenerateAccessToken(subject, roles, cfg.JWTSecret, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "sub", "cli", "token subject")
	cmd.Flags().StringSliceVar(&roles, "role", nil, "role claim (repeatable)")
	cmd.Flags().DurationVar(&ttl, "ttl", auth.DefaultTokenTTL, "token lifetime (default token_ttl from config)")
	return cmd
}
