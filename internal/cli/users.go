package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/saverpwd/internal/cryptox"
	"github.com/dmitrijs2005/saverpwd/internal/services"
)

func newUserAddCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "uadd",
		Short: "Add a new user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, err := rt.username()
			if err != nil {
				return err
			}
			pw := rt.password
			if pw == "" {
				b, err := GetNewPassword("Password", rt.io.Err)
				if err != nil {
					return err
				}
				defer cryptox.Wipe(b)
				pw = string(b)
			}
			if err := rt.app.Users.AddUser(cmd.Context(), user, pw); err != nil {
				return err
			}
			fmt.Fprintf(rt.out(), "User %q created.\n", user)
			return nil
		},
	}
}

func newUserUpdateCommand(rt *runtime) *cobra.Command {
	var newUsername, newPassword string

	cmd := &cobra.Command{
		Use:   "uupdate",
		Short: "Change a user's name and/or password",
		Long: `Change a user's name and/or password. Every secret of the user is
re-encrypted with the new credentials; on any failure nothing changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, pw, err := rt.login(cmd.Context())
			if err != nil {
				return err
			}

			var in services.UserUpdate
			if cmd.Flags().Changed("new-username") {
				in.NewUsername = &newUsername
			}
			if cmd.Flags().Changed("new-password") {
				in.NewPassword = &newPassword
			}
			if in.NewUsername == nil && in.NewPassword == nil {
				name, err := GetSimpleText(rt.in, "New username (Enter keeps the old one)", rt.io.Err)
				if err != nil && !errors.Is(err, io.EOF) {
					return err
				}
				if name != "" {
					in.NewUsername = &name
				}

				b, err := GetNewPassword("New password (Enter keeps the old one)", rt.io.Err)
				if err != nil {
					return err
				}
				if len(b) > 0 {
					np := string(b)
					in.NewPassword = &np
				}
				cryptox.Wipe(b)
			}

			if err := rt.app.Users.UpdateUser(cmd.Context(), user, pw, in); err != nil {
				return err
			}
			fmt.Fprintf(rt.out(), "User %q updated.\n", user)
			return nil
		},
	}
	cmd.Flags().StringVar(&newUsername, "new-username", "", "new username")
	cmd.Flags().StringVar(&newPassword, "new-password", "", "new password")
	return cmd
}

func newUserDeleteCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "udelete",
		Short: "Delete a user with all of their units and categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, _, err := rt.login(cmd.Context())
			if err != nil {
				return err
			}
			if err := rt.confirm(fmt.Sprintf("Delete user %q and everything they store?", user)); err != nil {
				return err
			}
			if err := rt.app.Users.DeleteUser(cmd.Context(), user); err != nil {
				return err
			}
			fmt.Fprintf(rt.out(), "User %q deleted.\n", user)
			return nil
		},
	}
}

func newUserShowCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "ushow",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := rt.app.Users.ListUsers(cmd.Context())
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Fprintln(rt.out(), "No users found.")
				return nil
			}
			for _, n := range names {
				fmt.Fprintln(rt.out(), n)
			}
			return nil
		},
	}
}
