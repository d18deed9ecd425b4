package main

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/schoolhub/core/auth"
)

func (cli *commandLine) tokenCommand() *cobra.Command {
	var subject, name, email string
	var roles []string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an API token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			claims, err := auth.NewClaims(cli.conf, subject, name, email, roles)
			if err != nil {
				return errors.Wrap(err, "building claims")
			}
			token, err := auth.GenerateToken(cli.conf, claims)
			if err != nil {
				return errors.Wrap(err, "generating token")
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "The token holder's ID (required)")
	cmd.Flags().StringVar(&name, "name", "", "The token holder's display name")
	cmd.Flags().StringVar(&email, "email", "", "The token holder's email")
	cmd.Flags().StringSliceVar(&roles, "role", []string{auth.RoleStaff}, "Granted roles: "+strings.Join(auth.AllRoles, ", "))
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}
