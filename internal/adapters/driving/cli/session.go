package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Log in to the verification service",
	Long: `Log in with a username or e-mail address. The password is read from the
terminal without echo, or from the first line of standard input when it is
not a terminal.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session and remove stored credentials",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	if sessionService == nil {
		return unavailable("session service")
	}

	in := bufio.NewReader(cmd.InOrStdin())

	var username string
	if len(args) == 1 {
		username = args[0]
	} else {
		cmd.Print("Username: ")
		line, err := readLine(in)
		if err != nil {
			return fmt.Errorf("failed to read username: %w", err)
		}
		username = line
	}

	cmd.Print("Password: ")
	password, err := readPassword(cmd, in)
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	if err := sessionService.Login(cmd.Context(), username, password); err != nil {
		return fmt.Errorf("failed to log in: %w", err)
	}

	cmd.Printf("Logged in as %s\n", username)
	return nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	if sessionService == nil {
		return unavailable("session service")
	}

	if err := sessionService.Logout(cmd.Context()); err != nil {
		return fmt.Errorf("failed to log out: %w", err)
	}

	cmd.Println("Logged out")
	return nil
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	if sessionService == nil {
		return unavailable("session service")
	}

	info, err := sessionService.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}

	if !info.Authenticated {
		cmd.Println("Not logged in")
		return nil
	}
	if info.Claims == nil {
		cmd.Println("Logged in")
		return nil
	}

	c := info.Claims
	if c.Email != "" {
		cmd.Printf("Logged in as %s <%s>\n", c.Username, c.Email)
	} else {
		cmd.Printf("Logged in as %s\n", c.Username)
	}
	if c.UserID != "" {
		cmd.Printf("  User ID:  %s\n", c.UserID)
	}
	if !c.ExpiresAt.IsZero() {
		note := ""
		if c.Expired(time.Now()) {
			note = " (expired, renewed on next request)"
		}
		cmd.Printf("  Access:   until %s%s\n", c.ExpiresAt.Local().Format("2006-01-02 15:04:05"), note)
	}
	return nil
}

// readPassword reads without echo when stdin is a terminal.
func readPassword(cmd *cobra.Command, in *bufio.Reader) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		cmd.Println()
		if err != nil {
			return "", err
		}
		return string(password), nil
	}
	return readLine(in)
}

func readLine(in *bufio.Reader) (string, error) {
	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
