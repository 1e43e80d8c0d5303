package main

import (
	"fmt"
	"os"
	"time"

	"go-lancers-scout/internal/apperr"
	"go-lancers-scout/internal/browser"
	"go-lancers-scout/internal/models"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in through a browser window and save the session",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Delete the saved session",
	RunE:  runLogout,
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Show which services have a saved session",
	RunE:  runSessions,
}

var importCookiesCmd = &cobra.Command{
	Use:   "import-cookies <export.json>",
	Short: "Create a session from a browser extension cookie export",
	Args:  cobra.ExactArgs(1),
	RunE:  runImportCookies,
}

var (
	sessionService string
	loginTimeout   time.Duration
)

func init() {
	for _, c := range []*cobra.Command{loginCmd, logoutCmd, importCookiesCmd} {
		c.Flags().StringVarP(&sessionService, "service", "s", string(models.ServiceLancers), "Service: lancers or crowdworks")
	}
	loginCmd.Flags().DurationVar(&loginTimeout, "timeout", 5*time.Minute, "How long to wait for the login to finish")

	rootCmd.AddCommand(loginCmd, logoutCmd, sessionsCmd, importCookiesCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	service, err := parseService(sessionService)
	if err != nil {
		return err
	}
	store, err := browser.NewSessionStore(cfg.SessionDir)
	if err != nil {
		return err
	}

	ok, err := store.Login(cmd.Context(), service, loginTimeout)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Authentication("login to %s was not completed within %s", service, loginTimeout)
	}
	fmt.Fprintf(os.Stdout, "✅ Logged in to %s\n", service)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	service, err := parseService(sessionService)
	if err != nil {
		return err
	}
	store, err := browser.NewSessionStore(cfg.SessionDir)
	if err != nil {
		return err
	}

	removed, err := store.Logout(service)
	if err != nil {
		return err
	}
	if removed {
		fmt.Fprintf(os.Stdout, "🗑️ Removed %s session\n", service)
	} else {
		fmt.Fprintf(os.Stdout, "ℹ️ No %s session to remove\n", service)
	}
	return nil
}

func runSessions(cmd *cobra.Command, args []string) error {
	store, err := browser.NewSessionStore(cfg.SessionDir)
	if err != nil {
		return err
	}

	sessions := store.ListSessions()
	for _, service := range models.Services {
		switch {
		case !sessions[service]:
			fmt.Fprintf(os.Stdout, "❌ %-10s no session\n", service)
		case store.VerifySession(service):
			fmt.Fprintf(os.Stdout, "✅ %-10s logged in\n", service)
		default:
			fmt.Fprintf(os.Stdout, "⚠️ %-10s session file has no %s cookies\n", service, service)
		}
	}
	return nil
}

func runImportCookies(cmd *cobra.Command, args []string) error {
	service, err := parseService(sessionService)
	if err != nil {
		return err
	}
	store, err := browser.NewSessionStore(cfg.SessionDir)
	if err != nil {
		return err
	}

	n, err := store.ImportCookies(service, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "🍪 Imported %d cookies for %s\n", n, service)
	return nil
}
