// Package token holds the command that mints ops API bearer tokens.
package token

import (
	"fmt"

	"github.com/spf13/cobra"

	"vossync/internal/infrastructure/auth"
	"vossync/internal/infrastructure/config"
)

var (
	env      string
	operator string
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the ops API",
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "default", "Environment")
	cmd.Flags().StringVarP(&operator, "operator", "o", "", "Operator name embedded in the token (required)")
	_ = cmd.MarkFlagRequired("operator")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	svc := auth.NewTokenService(cfg.Auth.JWT.Secret, cfg.Auth.JWT.AccessExpMinutes)
	token, exp, err := svc.Generate(operator)
	if err != nil {
		return err
	}

	fmt.Println(token)
	fmt.Printf("expires %s\n", exp.Format("2006-01-02 15:04:05 MST"))
	return nil
}
