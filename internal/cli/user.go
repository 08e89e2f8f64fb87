package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"life-os/internal/database"
)

func newUserCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts in the local database",
	}
	cmd.AddCommand(newUserAddCmd(opts), newUserLinkCmd(opts), newUserListCmd(opts))
	return cmd
}

func newUserAddCmd(opts *options) *cobra.Command {
	var password, name string
	cmd := &cobra.Command{
		Use:   "add <email>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sm, cfg, done, err := opts.openServices()
			if err != nil {
				return err
			}
			defer done()

			session, err := sm.Auth.Signup(context.Background(), args[0], password, name)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✅ Created %s (%s)\n", session.User.Email, session.User.ID)
			if len(cfg.Auth.Secret) > 0 {
				fmt.Fprintf(out, "token: %s\n", session.Token)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (min 8 characters)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "full name")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newUserLinkCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "link <email> <chat-id>",
		Short: "Bind a Telegram chat to an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			chatID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid chat id %q", args[1])
			}

			sm, _, done, err := opts.openServices()
			if err != nil {
				return err
			}
			defer done()

			ctx := context.Background()
			users := sm.Repository().Users
			user, err := users.GetByEmail(ctx, args[0])
			if errors.Is(err, database.ErrNotFound) {
				return fmt.Errorf("no account for %s", args[0])
			}
			if err != nil {
				return err
			}
			if err := users.LinkTelegram(ctx, user.ID, chatID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "🔗 Chat %d linked to %s\n", chatID, user.Email)
			return nil
		},
	}
}

func newUserListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sm, _, done, err := opts.openServices()
			if err != nil {
				return err
			}
			defer done()

			users, err := sm.Repository().Users.List(context.Background())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(users) == 0 {
				fmt.Fprintln(out, "No accounts.")
				return nil
			}
			for _, u := range users {
				chat := "-"
				if u.TelegramChatID != nil {
					chat = strconv.FormatInt(*u.TelegramChatID, 10)
				}
				fmt.Fprintf(out, "%s\t%s\t%s\tchat %s\n", u.ID, u.Email, u.FullName, chat)
			}
			return nil
		},
	}
}

func newTokenCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "token <email>",
		Short: "Mint an API token for an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sm, cfg, done, err := opts.openServices()
			if err != nil {
				return err
			}
			defer done()
			if err := cfg.Validate(); err != nil {
				return err
			}

			user, err := sm.Repository().Users.GetByEmail(context.Background(), args[0])
			if errors.Is(err, database.ErrNotFound) {
				return fmt.Errorf("no account for %s", args[0])
			}
			if err != nil {
				return err
			}
			token, err := sm.Auth.IssueToken(user)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}
