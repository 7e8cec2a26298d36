package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/FooBarWidget/social-schools-photos-downloader/pkg/auth"
	"github.com/FooBarWidget/social-schools-photos-downloader/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Social Schools credentials",
	Long: `Manage stored Social Schools credentials.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (SSPD_EMAIL / SSPD_PASSWORD)

They are only used to prefill the interactive login form; the login
itself always happens in the visible browser window.`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [email]",
	Short: "Store account credentials",
	Long: `Store Social Schools account credentials in the system keychain or an
encrypted file. You will be prompted for the email (if not provided)
and the password.`,
	Example: `  # Interactive login
  sspd auth login

  # Login with email
  sspd auth login parent@example.com`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout <email>",
	Short: "Remove stored credentials",
	Args:  cobra.ExactArgs(1),
	Run:   runLogout,
}

// listCmd represents the auth list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored accounts",
	Run:   runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
}

func runLogin(cmd *cobra.Command, args []string) {
	reader := bufio.NewReader(os.Stdin)

	var email string
	if len(args) == 1 {
		email = args[0]
	} else {
		fmt.Print("Email: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			ui.PrintError("could not read email: %v", err)
			os.Exit(1)
		}
		email = strings.TrimSpace(line)
	}
	if email == "" {
		ui.PrintError("email must not be empty")
		os.Exit(1)
	}

	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		ui.PrintError("could not read password: %v", err)
		os.Exit(1)
	}
	if len(password) == 0 {
		ui.PrintError("password must not be empty")
		os.Exit(1)
	}

	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("could not open credential store: %v", err)
		os.Exit(1)
	}

	account := &auth.Account{Email: email, Password: string(password)}
	if err := manager.Store(account); err != nil {
		ui.PrintError("could not store credentials: %v", err)
		os.Exit(1)
	}

	ui.PrintSuccess("Credentials stored for " + email)
}

func runLogout(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("could not open credential store: %v", err)
		os.Exit(1)
	}

	if err := manager.Delete(args[0]); err != nil {
		ui.PrintError("could not remove credentials: %v", err)
		os.Exit(1)
	}
	ui.PrintSuccess("Credentials removed for " + args[0])
}

func runList(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("could not open credential store: %v", err)
		os.Exit(1)
	}

	accounts, err := manager.List()
	if err != nil {
		ui.PrintError("could not list accounts: %v", err)
		os.Exit(1)
	}
	if len(accounts) == 0 {
		ui.PrintInfo("No stored accounts", "use 'sspd auth login' to add one")
		return
	}

	for _, account := range accounts {
		line := account.Email
		if !account.LastModified.IsZero() {
			line += "  (updated " + account.LastModified.Format("2006-01-02") + ")"
		}
		fmt.Println(line)
	}
}
