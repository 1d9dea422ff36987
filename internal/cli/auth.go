package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/dori/tasktrackr/internal/model"
	"github.com/spf13/cobra"
)

func newLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		Example: `  tasktrackr login --email jotaro@jojo.com
  tasktrackr --mode demo login --email dio@jojo.com --password theworld`,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			var err error
			if email, err = promptIfEmpty(cmd.OutOrStdout(), in, "Email", email); err != nil {
				return err
			}
			if password, err = promptIfEmpty(cmd.OutOrStdout(), in, "Password", password); err != nil {
				return err
			}

			a, err := openApp(nil)
			if err != nil {
				return err
			}
			defer a.Close()

			user, err := a.Auth.Login(cmd.Context(), email, password)
			if err != nil {
				a.Notifier.SendLoginResult("Login Failed", err.Error(), true)
				return fmt.Errorf("login failed: %w", err)
			}
			a.Notifier.SendLoginResult("ORA ORA! Welcome back!", "Successfully logged in, Stand User!", false)

			fmt.Fprintln(cmd.OutOrStdout(), "ORA ORA! Welcome back!")
			printUser(cmd.OutOrStdout(), user)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	return cmd
}

func newSignupCmd() *cobra.Command {
	var email, password, username string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account with a random Stand",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			var err error
			if username, err = promptIfEmpty(cmd.OutOrStdout(), in, "Username", username); err != nil {
				return err
			}
			if email, err = promptIfEmpty(cmd.OutOrStdout(), in, "Email", email); err != nil {
				return err
			}
			if password, err = promptIfEmpty(cmd.OutOrStdout(), in, "Password", password); err != nil {
				return err
			}

			a, err := openApp(nil)
			if err != nil {
				return err
			}
			defer a.Close()

			user, err := a.Auth.Signup(cmd.Context(), email, password, username)
			if err != nil {
				a.Notifier.SendLoginResult("Signup Failed", err.Error(), true)
				return fmt.Errorf("signup failed: %w", err)
			}
			a.Notifier.SendLoginResult("MUDA MUDA! Stand User Created!", "Your JoJo character has been assigned!", false)

			fmt.Fprintln(cmd.OutOrStdout(), "MUDA MUDA! Stand User Created!")
			printUser(cmd.OutOrStdout(), user)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "password, at least 6 characters")
	cmd.Flags().StringVar(&username, "username", "", "display name, at least 2 characters")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(nil)
			if err != nil {
				return err
			}
			defer a.Close()

			a.Auth.Restore(cmd.Context())
			a.Auth.Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Za Warudo... logged out")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(nil)
			if err != nil {
				return err
			}
			defer a.Close()

			user := a.Auth.Restore(cmd.Context())
			if user == nil {
				return fmt.Errorf("not logged in")
			}
			printUser(cmd.OutOrStdout(), user)
			return nil
		},
	}
}

func printUser(w io.Writer, u *model.User) {
	stand := u.StandName
	if stand == "" {
		stand = "Unknown Stand"
	}
	fmt.Fprintf(w, "%s %s <%s>\n", u.AvatarEmoji, u.DisplayName(), u.Email)
	fmt.Fprintf(w, "🌟 Stand: %s 🌟\n", stand)
}

// promptIfEmpty asks for a value on the command's input when the flag was not given
func promptIfEmpty(w io.Writer, in *bufio.Reader, label, value string) (string, error) {
	if value != "" {
		return value, nil
	}
	fmt.Fprintf(w, "%s: ", label)
	line, err := in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimSpace(line), nil
}
