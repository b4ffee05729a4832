package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/moviehub/cli/api"
	"github.com/moviehub/cli/catalog"
	"github.com/moviehub/cli/config"
	"github.com/moviehub/cli/credentials"
	"github.com/moviehub/cli/session"
)

var (
	cfgFile   string
	cfg       *config.Config
	logger    zerolog.Logger
	credStore *credentials.Store
	client    *api.Client
	sess      *session.Manager
	engine    *catalog.Engine

	version   = "dev"
	buildTime = "unknown"
)

// SetVersion sets the version information from build flags
func SetVersion(v, bt string) {
	version = v
	buildTime = bt
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "moviehub",
	Short: "A terminal client for the MovieHub movie catalog",
	Long: `moviehub is a CLI client for the MovieHub catalog service. It lets you
browse, search, sort and filter the movie collection, and manage it if
your account has the ADMIN role. Authentication is handled transparently:
the access token is persisted across runs and refreshed when it expires.`,
	PersistentPreRunE: initializeApp,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if api.IsAuthExpired(err) {
			fmt.Fprintln(os.Stderr, "Run 'moviehub login' to start a new session.")
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
}

// initializeApp initializes the configuration, logger and clients
func initializeApp(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger = setupLogger(cfg.Logging)

	credPath := cfg.Auth.CredentialsFile
	if credPath == "" {
		credPath, err = credentials.DefaultPath()
		if err != nil {
			return err
		}
	}

	credStore, err = credentials.NewStore(credPath)
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}

	client, err = api.NewClient(cfg.Server.URL, credStore, logger,
		api.WithTimeout(cfg.Server.Timeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create MovieHub client: %w", err)
	}

	sess = session.NewManager(client, credStore, logger)
	// Let the request layer flip the session when an expiry is
	// unrecoverable mid-command.
	client.SetSessionExpiredHook(sess.Expire)

	engine = catalog.NewEngine(client, cfg.Catalog.PageSize, logger)

	return nil
}

// restoreSession settles the session from the persisted credential.
// Commands that only need best-effort identity ignore the error.
func restoreSession(cmd *cobra.Command) error {
	return sess.Restore(cmd.Context())
}

// setupLogger configures the zerolog logger
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Configure output format
	if cfg.Format == "json" {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	// Console format; color only when stderr is a terminal
	useColor := cfg.Color && isatty.IsTerminal(os.Stderr.Fd())
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !useColor,
	}

	return zerolog.New(output).With().Timestamp().Logger()
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	// No config or clients needed
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("moviehub %s (built %s)\n", version, buildTime)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
