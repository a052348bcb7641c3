// Package cli implements the docverify command line on top of the driving ports.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docverify/internal/core/domain"
	"github.com/custodia-labs/docverify/internal/core/ports/driving"
	"github.com/custodia-labs/docverify/internal/logger"
)

// version is set at build time with -ldflags.
var version = "dev"

// Global flags.
var (
	verbose   bool
	configDir string
	ephemeral bool
)

// Options carries the global flags the wiring depends on.
type Options struct {
	// ConfigDir overrides ~/.docverify. Credentials go to its data/ subdirectory.
	ConfigDir string
	// Ephemeral keeps configuration and credentials in memory only.
	Ephemeral bool
}

// Services holds the ports the commands drive. Any field may be nil when the
// wiring could only build part of the graph.
type Services struct {
	Session    driving.SessionService
	Documents  driving.DocumentService
	Reconciler driving.Reconciler
	Settings   driving.SettingsService
}

// Wiring builds the services after flags are parsed. The returned cleanup runs
// when the command finishes. On error, the partial services are still used so
// that commands such as "config set" can repair a broken configuration.
type Wiring func(opts Options) (*Services, func(), error)

var (
	sessionService  driving.SessionService
	documentService driving.DocumentService
	reconciler      driving.Reconciler
	settingsService driving.SettingsService

	wiring    Wiring
	cleanup   func()
	wiringErr error
)

// errSessionExpired is what every command reports once the session is gone.
var errSessionExpired = errors.New("session expired, run docverify login")

var rootCmd = &cobra.Command{
	Use:   "docverify",
	Short: "Verify identity documents with the document verification service",
	Long: `docverify uploads identity document images to the verification service,
tracks their analysis and reports whether each document is verified,
suspicious or still pending.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		return configure()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Configuration directory (default ~/.docverify)")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "Keep configuration and credentials in memory only")
}

// SetServices installs the services directly, bypassing the wiring.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	sessionService = s.Session
	documentService = s.Documents
	reconciler = s.Reconciler
	settingsService = s.Settings
}

// SetWiring registers the function that builds the services once flags are known.
func SetWiring(w Wiring) {
	wiring = w
}

// Execute runs the root command and releases whatever the wiring opened.
func Execute(ctx context.Context) error {
	defer func() {
		if cleanup != nil {
			cleanup()
			cleanup = nil
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

func configure() error {
	if wiring == nil {
		return nil
	}

	svcs, done, err := wiring(Options{ConfigDir: configDir, Ephemeral: ephemeral})
	cleanup = done
	wiringErr = err
	if err != nil {
		logger.Debug("wiring incomplete: %v", err)
	}
	SetServices(svcs)
	return nil
}

// unavailable reports a service the wiring could not build.
func unavailable(name string) error {
	if wiringErr != nil {
		return fmt.Errorf("%s not configured: %w", name, wiringErr)
	}
	return fmt.Errorf("%s not configured", name)
}

// commandError wraps a service failure for display.
func commandError(action string, err error) error {
	if errors.Is(err, domain.ErrAuthExpired) || errors.Is(err, domain.ErrNotAuthenticated) {
		return errSessionExpired
	}
	return fmt.Errorf("failed to %s: %w", action, err)
}
