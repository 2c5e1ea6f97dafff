package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/iliyamo/reading-list/internal/model"
	"github.com/iliyamo/reading-list/internal/repository"
)

func newUserCommand(envFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Administer user accounts",
		Args:  cobra.NoArgs,
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "set-role <email> <user|admin>",
			Short: "Change a user's role",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				email, role := args[0], args[1]
				if !model.ValidRole(role) {
					return fmt.Errorf("unknown role %q", role)
				}
				return updateUser(cmd, *envFile, email, func(users *repository.UserRepo) error {
					return users.SetRole(cmd.Context(), email, role)
				})
			},
		},
		&cobra.Command{
			Use:   "set-active <email> <true|false>",
			Short: "Enable or disable a user",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				email := args[0]
				active, err := strconv.ParseBool(args[1])
				if err != nil {
					return fmt.Errorf("invalid active flag %q", args[1])
				}
				return updateUser(cmd, *envFile, email, func(users *repository.UserRepo) error {
					return users.SetActive(cmd.Context(), email, active)
				})
			},
		},
	)
	return cmd
}

func updateUser(cmd *cobra.Command, envFile, email string, fn func(*repository.UserRepo) error) error {
	cfg, _, err := bootstrap(envFile)
	if err != nil {
		return err
	}
	db, err := openDB(cmd.Context(), cfg, false)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := fn(repository.NewUserRepo(db)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("no user with email %q", email)
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "updated %s\n", email)
	return nil
}
