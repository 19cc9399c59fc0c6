package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	infraRepo "github.com/BruksfildServices01/viewing-scheduler/internal/infra/repository"
	"github.com/BruksfildServices01/viewing-scheduler/internal/models"
)

func newCreateAdminCmd() *cobra.Command {
	var email, password, firstName, lastName string

	c := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account, or promote an existing user to admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return errors.New("--email is required")
			}

			_, log, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync()

			u := &models.User{FirstName: firstName, LastName: lastName, Email: email}
			if password != "" {
				hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
				if err != nil {
					return fmt.Errorf("hash password: %w", err)
				}
				u.PasswordHash = string(hashed)
			}

			user, created, err := infraRepo.NewGormUsers(db).EnsureAdmin(context.Background(), u)
			if err != nil {
				return err
			}
			if created && password == "" {
				log.Warn("admin created without a password, it cannot log in until one is set")
			}

			verb := "promoted"
			if created {
				verb = "created"
			}
			fmt.Fprintf(os.Stdout, "admin %s %s (%s)\n", verb, user.Email, user.ID)
			return nil
		},
	}

	c.Flags().StringVar(&email, "email", "", "admin email")
	c.Flags().StringVar(&password, "password", "", "password for a new account")
	c.Flags().StringVar(&firstName, "first-name", "Admin", "first name for a new account")
	c.Flags().StringVar(&lastName, "last-name", "User", "last name for a new account")
	return c
}
