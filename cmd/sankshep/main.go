package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Shhrii/Sankshep-App/internal/config"
	"github.com/Shhrii/Sankshep-App/internal/debuglog"
	"github.com/Shhrii/Sankshep-App/internal/identity"
	"github.com/Shhrii/Sankshep-App/internal/publishing"
	"github.com/Shhrii/Sankshep-App/internal/storage"
	"github.com/Shhrii/Sankshep-App/internal/tui"
	"github.com/Shhrii/Sankshep-App/internal/validation"
)

// Version is the version of the application, set at build time
var Version = "dev"

type options struct {
	configPath string
	dbPath     string
	logLevel   string
	quiet      bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.New(color.FgHiRed).Sprintf("Error: %v", err))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           tui.AppName,
		Short:         tui.Tagline,
		Long:          "Summarized Ayurveda research for doctors and everyone else, in your terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to configuration file")
	flags.StringVar(&opts.dbPath, "db", "", "path to database file (overrides config)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: off, error, warn, info, debug")
	root.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "skip startup banner")

	root.AddCommand(
		newVersionCmd(),
		newGenerateConfigCmd(),
		newRouteCmd(opts),
		newFeedCmd(opts),
		newSignupCmd(opts),
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newUsersCmd(opts),
	)
	return root
}

func runTUI(opts *options) error {
	if !opts.quiet {
		tui.ShowBanner(Version)
	}

	e, err := openEnv(opts)
	if err != nil {
		return err
	}
	defer e.Close()

	tui.ApplyTheme(e.cfg.UI.Colors)

	app := tui.NewApp(e.cfg, e.ids, e.client)
	defer app.Close()

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running ui: %w", err)
	}
	return nil
}

// env holds everything the commands share. Close releases it in reverse
// order of construction.
type env struct {
	cfg      *config.Config
	store    *storage.Store
	provider *identity.LocalProvider
	ids      *identity.Store
	client   *publishing.Client
}

func openEnv(opts *options) (*env, error) {
	paths := validation.NewFileValidator()

	configPath := opts.configPath
	if configPath != "" {
		var err error
		if configPath, err = paths.ValidateFile(configPath); err != nil {
			return nil, fmt.Errorf("config path: %w", err)
		}
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if opts.dbPath != "" {
		cfg.Database.Path = opts.dbPath
	}
	if cfg.Database.Path, err = paths.ValidateFile(cfg.Database.Path); err != nil {
		return nil, fmt.Errorf("database path: %w", err)
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if cfg.Log.File != "" && cfg.Log.File != debuglog.ConsolePath {
		if cfg.Log.File, err = paths.ValidateFile(cfg.Log.File); err != nil {
			return nil, fmt.Errorf("log file: %w", err)
		}
	}

	if err := debuglog.Setup(debuglog.ParseLogLevel(cfg.Log.Level), cfg.Log.File); err != nil {
		return nil, err
	}
	debuglog.Infof("Starting %s %s", tui.AppName, Version)

	client, err := publishing.NewClient(publishing.Options{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.HTTPTimeout,
		UserAgent: cfg.API.UserAgent,
		RateLimit: cfg.API.RateLimit,
		Burst:     cfg.API.Burst,
	})
	if err != nil {
		_ = debuglog.Close()
		return nil, err
	}

	store, err := storage.NewStoreWithTimeout(cfg.Database.Path, cfg.Database.Timeout)
	if err != nil {
		_ = debuglog.Close()
		return nil, err
	}

	provider := identity.NewLocalProvider(store)
	return &env{
		cfg:      cfg,
		store:    store,
		provider: provider,
		ids:      identity.NewStore(provider, store),
		client:   client,
	}, nil
}

func (e *env) Close() {
	e.provider.Close()
	if err := e.store.Close(); err != nil {
		debuglog.Warnf("Closing database: %v", err)
	}
	_ = debuglog.Close()
}
