package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	loginEmail    string
	loginPassword string
	registerName  string
)

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to MovieHub",
	Long: `Authenticate against the MovieHub server with email and password.
The access token is persisted and reused by subsequent commands until it
expires or you log out.`,
	RunE: runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)

	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "account email")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "account password (prompted if omitted)")
}

func runLogin(cmd *cobra.Command, args []string) error {
	email, password, err := resolveCredentials()
	if err != nil {
		return err
	}

	if err := sess.Login(cmd.Context(), email, password); err != nil {
		return err
	}

	identity, _ := sess.Identity()
	fmt.Printf("Logged in as %s <%s>\n", identity.DisplayName, identity.Email)
	if sess.IsAdmin() {
		fmt.Println("Administrator access enabled.")
	}

	return nil
}

// registerCmd represents the register command
var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a MovieHub account",
	Long: `Create a new MovieHub account and log in with it.

If login fails after the account was created (for example the server
rejects the fresh session), the account still exists; retry with
'moviehub login'.`,
	RunE: runRegister,
}

func init() {
	rootCmd.AddCommand(registerCmd)

	registerCmd.Flags().StringVarP(&registerName, "name", "n", "", "display name")
	registerCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "account email")
	registerCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "account password (prompted if omitted)")
}

func runRegister(cmd *cobra.Command, args []string) error {
	if registerName == "" {
		return fmt.Errorf("a display name is required (--name)")
	}

	email, password, err := resolveCredentials()
	if err != nil {
		return err
	}

	if err := sess.Register(cmd.Context(), registerName, email, password); err != nil {
		return err
	}

	fmt.Printf("Welcome, %s! You are now logged in.\n", registerName)
	return nil
}

// logoutCmd represents the logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out of MovieHub",
	Long: `End the current session. The server-side logout is best-effort; the
local credential is always removed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sess.Logout(cmd.Context())
		fmt.Println("Logged out.")
		return nil
	},
}

// whoamiCmd represents the whoami command
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := restoreSession(cmd); err != nil {
			return err
		}

		identity, ok := sess.Identity()
		if !ok {
			fmt.Println("Not logged in.")
			return nil
		}

		fmt.Printf("%s <%s>\n", identity.DisplayName, identity.Email)
		fmt.Printf("Role: %s\n", identity.Role)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}

// resolveCredentials collects email and password from flags, prompting
// for the password on a terminal when it was not provided.
func resolveCredentials() (string, string, error) {
	email := strings.TrimSpace(loginEmail)
	if email == "" {
		return "", "", fmt.Errorf("an email is required (--email)")
	}

	password := loginPassword
	if password == "" {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return "", "", fmt.Errorf("a password is required (--password)")
		}
		fmt.Print("Password: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return "", "", fmt.Errorf("failed to read password: %w", err)
		}
		password = string(raw)
	}

	if password == "" {
		return "", "", fmt.Errorf("password must not be empty")
	}

	return email, password, nil
}
