// cmd/catalogctl/commands.go
// This file contains the catalogctl subcommands. Each one validates its
// flags before it opens a connection.
package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aoideee/locallibrary/internal/data"
	"github.com/aoideee/locallibrary/internal/validator"
)

type connectFunc func() (*backend, func(), error)

func migrateCmd(connect connectFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, closeFn, err := connect()
			if err != nil {
				return err
			}
			defer closeFn()

			applied, err := b.migrate(cmd.Context())
			if err != nil {
				return err
			}
			for _, name := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", name)
			}
			return nil
		},
	}
}

// newUser is validated before an account is created.
type newUser struct {
	Username string `form:"username" validate:"required,max=150"`
	Email    string `form:"email" validate:"omitempty,email"`
	Password string `form:"password" validate:"required,min=8"`
}

func createUserCmd(connect connectFunc) *cobra.Command {
	var (
		input newUser
		staff bool
	)

	cmd := &cobra.Command{
		Use:   "createuser",
		Short: "Create a library account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := validator.New()
			v.CheckStruct(input)
			v.Check(!strings.ContainsAny(input.Username, " /"), "username", "Usernames may not contain spaces or slashes.")
			v.Check(validator.NotBlank(input.Password), "password", "This field is required.")
			if !v.Valid() {
				return validationError(v)
			}

			b, closeFn, err := connect()
			if err != nil {
				return err
			}
			defer closeFn()

			id, err := b.models.Users.Insert(cmd.Context(), input.Username, input.Email, input.Password, staff)
			if err != nil {
				if errors.Is(err, data.ErrDuplicateUsername) {
					return fmt.Errorf("username %q is already taken", input.Username)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (id %d)\n", input.Username, id)
			return nil
		},
	}
	cmd.Flags().StringVar(&input.Username, "username", "", "Login name")
	cmd.Flags().StringVar(&input.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&input.Password, "password", "", "Password (at least 8 characters)")
	cmd.Flags().BoolVar(&staff, "staff", false, "Allow the account to edit the catalog")
	return cmd
}

func grantCmd(connect connectFunc) *cobra.Command {
	var username, permission string

	cmd := &cobra.Command{
		Use:   "grant",
		Short: "Grant a permission to an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" {
				return errors.New("--username is required")
			}
			if permission != data.PermissionMarkReturned {
				return fmt.Errorf("unknown permission %q", permission)
			}

			b, closeFn, err := connect()
			if err != nil {
				return err
			}
			defer closeFn()

			user, err := b.models.Users.GetByUsername(cmd.Context(), username)
			if err != nil {
				if errors.Is(err, data.ErrRecordNotFound) {
					return fmt.Errorf("no user named %q", username)
				}
				return err
			}
			if err := b.models.Users.Grant(cmd.Context(), user.ID, permission); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "granted %s to %s\n", permission, username)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "Account to grant the permission to")
	cmd.Flags().StringVar(&permission, "permission", data.PermissionMarkReturned, "Permission codename")
	return cmd
}

func pruneSessionsCmd(connect connectFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "prune-sessions",
		Short: "Delete expired login sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, closeFn, err := connect()
			if err != nil {
				return err
			}
			defer closeFn()

			n, err := b.sessions.DeleteExpired(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d expired sessions\n", n)
			return nil
		},
	}
}

// validationError flattens field errors into one message, sorted by field.
func validationError(v *validator.Validator) error {
	fields := make([]string, 0, len(v.Errors))
	for field, msg := range v.Errors {
		fields = append(fields, fmt.Sprintf("%s: %s", field, msg))
	}
	sort.Strings(fields)
	return errors.New(strings.Join(fields, "; "))
}
