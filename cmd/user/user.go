// Package user manages reviewer accounts.
package user

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/scil-audit/scil-go/internal/conf"
	"github.com/scil-audit/scil-go/internal/datastore"
)

// Command creates the user command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage reviewer accounts",
	}
	cmd.AddCommand(addCommand(settings))
	return cmd
}

func addCommand(settings *conf.Settings) *cobra.Command {
	var fullName, password string
	var entitlements []string

	cmd := &cobra.Command{
		Use:   "add [username]",
		Short: "Create or update a reviewer account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(settings, args[0], fullName, password, entitlements)
		},
	}

	cmd.Flags().StringVar(&fullName, "name", "", "Reviewer's full name")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	cmd.Flags().StringSliceVar(&entitlements, "entitlements", []string{"TODOS"},
		"Entitlement tokens (TODOS, TODOS LOS ENTES, TODOS LOS MUNICIPIOS or entity labels)")

	return cmd
}

func runAdd(settings *conf.Settings, username, fullName, password string, entitlements []string) error {
	if password == "" {
		return fmt.Errorf("a password is required")
	}

	store := datastore.New(settings)
	if store == nil {
		return fmt.Errorf("no database backend enabled in configuration")
	}
	if err := store.Open(); err != nil {
		return fmt.Errorf("opening datastore: %w", err)
	}
	defer func() { _ = store.Close() }()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	u := &datastore.User{
		FullName:     fullName,
		Username:     strings.ToLower(strings.TrimSpace(username)),
		PasswordHash: string(hash),
		Entitlements: strings.Join(entitlements, ","),
	}
	if err := store.SaveUser(u); err != nil {
		return fmt.Errorf("saving user: %w", err)
	}

	fmt.Printf("user %s saved with entitlements %s\n", u.Username, u.Entitlements)
	return nil
}
