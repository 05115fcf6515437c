package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/core/domain"
	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/core/service"
	mongodb "github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/infrastructure/db/mongo"
	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/pkg/logger"
)

var (
	usernameFlag string
	passwordFlag string
	roleFlag     string
	stdinFlag    bool
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage accounts in the credential store",
}

var usersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an account with any role",
	RunE: func(cmd *cobra.Command, args []string) error {
		if usernameFlag == "" {
			return fmt.Errorf("--username flag is required")
		}
		if !domain.ValidRole(roleFlag) {
			return fmt.Errorf("invalid --role %q (valid: %s, %s)", roleFlag, domain.RoleAdmin, domain.RoleUser)
		}

		password := passwordFlag
		if stdinFlag {
			scanner := bufio.NewScanner(os.Stdin)
			fmt.Fprint(os.Stderr, "Enter password: ")
			if scanner.Scan() {
				password = strings.TrimRight(scanner.Text(), "\r\n")
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
		}
		if password == "" {
			return fmt.Errorf("password is required (use --password or --stdin)")
		}

		ctx := cmd.Context()
		client, db, err := connectStore(ctx)
		if err != nil {
			return err
		}
		defer func() {
			_ = client.Disconnect(context.Background())
		}()

		auth := service.NewAuthService(mongodb.NewAuthRepository(db), nil, true, logger.Get())
		user, err := auth.Provision(ctx, usernameFlag, password, roleFlag)
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "created user %q with role %q\n", user.Username, user.Role)
		return nil
	},
}

func init() {
	usersCreateCmd.Flags().StringVar(&usernameFlag, "username", "", "Username of the account (required)")
	usersCreateCmd.Flags().StringVar(&passwordFlag, "password", "", "Password (use --stdin to avoid shell history)")
	usersCreateCmd.Flags().StringVar(&roleFlag, "role", domain.RoleUser, "Role: admin or user")
	usersCreateCmd.Flags().BoolVar(&stdinFlag, "stdin", false, "Read the password from stdin")

	usersCmd.AddCommand(usersCreateCmd)
}
