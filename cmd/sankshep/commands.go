package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Shhrii/Sankshep-App/internal/config"
	"github.com/Shhrii/Sankshep-App/internal/feed"
	"github.com/Shhrii/Sankshep-App/internal/identity"
	"github.com/Shhrii/Sankshep-App/internal/nav"
	"github.com/Shhrii/Sankshep-App/internal/session"
	"github.com/Shhrii/Sankshep-App/internal/tui"
)

var (
	errNotSignedIn = errors.New("not signed in; log in or pass --category")
	errNoPassword  = errors.New("password required; pass --password or run in a terminal")
)

var (
	titleColor = color.New(color.FgHiCyan, color.Bold)
	okColor    = color.New(color.FgGreen)
	mutedColor = color.New(color.FgHiBlack)
	warnColor  = color.New(color.FgYellow)
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", tui.AppName, Version)
			fmt.Fprintln(out, tui.Tagline)
			fmt.Fprintf(out, "Golang: %s\n", runtime.Version())
		},
	}
}

func newGenerateConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate-config [path]",
		Short: "Write the default configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultConfigPath()
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.GenerateDefaultConfig(path); err != nil {
				return fmt.Errorf("failed to generate config: %w", err)
			}
			okColor.Fprintf(cmd.OutOrStdout(), "Generated default configuration at: %s\n", path)
			return nil
		},
	}
}

func defaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", tui.AppName, "config.toml")
}

func newRouteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "route",
		Short: "Resolve the stored session and print where the app would start",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, opts, func(ctx context.Context, e *env) error {
				history := nav.NewHistory(nav.AuthLoading)
				decision := session.NewResolver(e.ids, history).Resolve(ctx)

				who := "signed out"
				if sess, err := e.ids.CurrentSession(ctx); err == nil && sess.SignedIn {
					who = "signed in as " + sess.Email
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", titleColor.Sprint(decision), mutedColor.Sprintf("(%s)", who))
				return nil
			})
		},
	}
}

func newFeedCmd(opts *options) *cobra.Command {
	var (
		category string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Fetch a feed and print its post summaries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, opts, func(ctx context.Context, e *env) error {
				name := category
				if name == "" {
					var err error
					if name, err = sessionCategory(ctx, e); err != nil {
						return err
					}
				}

				fetcher := feed.NewFetcher(e.client, nil, feed.Options{
					SummaryWords: e.cfg.Feed.SummaryWords,
					Retries:      e.cfg.Feed.Retries,
					RetryDelay:   e.cfg.Feed.RetryDelay,
				})
				defer fetcher.Close()

				vm := fetcher.Fetch(ctx, name)
				if vm.Status == feed.Failed {
					return errors.New(vm.Message)
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(vm.Posts)
				}
				printPosts(cmd.OutOrStdout(), vm)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "category name (defaults to the signed-in role's feed)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print posts as JSON")
	return cmd
}

// sessionCategory picks the feed the signed-in role's home screen shows.
func sessionCategory(ctx context.Context, e *env) (string, error) {
	sess, err := e.ids.CurrentSession(ctx)
	if err != nil {
		return "", err
	}
	if !sess.SignedIn {
		return "", errNotSignedIn
	}
	switch session.Decide(sess.SignedIn, sess.Role).Screen() {
	case nav.DoctorHome:
		return e.cfg.Feed.DoctorCategory, nil
	case nav.NonDoctorHome:
		return e.cfg.Feed.NonDoctorCategory, nil
	}
	return "", errNotSignedIn
}

func printPosts(w io.Writer, vm feed.FeedViewModel) {
	titleColor.Fprintf(w, "%s feed", vm.Category)
	mutedColor.Fprintf(w, " • %d posts\n\n", len(vm.Posts))
	for _, p := range vm.Posts {
		fmt.Fprintf(w, "%s\n", color.New(color.Bold).Sprint(p.Title))
		var meta []string
		if !p.PublishedAt.IsZero() {
			meta = append(meta, p.PublishedAt.Format("Jan 2, 2006"))
		}
		if p.HasSource() {
			meta = append(meta, p.SourceTag+" "+p.SourceURL)
		}
		if len(meta) > 0 {
			mutedColor.Fprintln(w, strings.Join(meta, " • "))
		}
		if p.Summary != "" {
			fmt.Fprintln(w, p.Summary)
		}
		fmt.Fprintln(w)
	}
}

func newSignupCmd(opts *options) *cobra.Command {
	var reg identity.Registration
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, opts, func(ctx context.Context, e *env) error {
				if reg.Password == "" {
					var err error
					if reg.Password, err = readPassword(cmd, "Password: "); err != nil {
						return err
					}
				}
				return runFlow(cmd, e, "Signed up", func(f *session.Flows) (session.Decision, error) {
					return f.SignUp(ctx, reg)
				})
			})
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&reg.FullName, "name", "", "full name")
	flags.StringVar(&reg.Email, "email", "", "email address")
	flags.StringVar(&reg.Phone, "phone", "", "phone number")
	flags.StringVar(&reg.Password, "password", "", "password (prompted when omitted)")
	flags.BoolVar(&reg.IsDoctor, "doctor", false, "register as a doctor")
	flags.StringVar(&reg.Practice, "practice", "", "place of practice (doctors)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLoginCmd(opts *options) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, opts, func(ctx context.Context, e *env) error {
				if password == "" {
					var err error
					if password, err = readPassword(cmd, "Password: "); err != nil {
						return err
					}
				}
				return runFlow(cmd, e, "Signed in", func(f *session.Flows) (session.Decision, error) {
					return f.SignIn(ctx, email, password)
				})
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out of the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, opts, func(ctx context.Context, e *env) error {
				history := nav.NewHistory(nav.AuthLoading)
				if err := session.NewFlows(e.ids, history).Logout(ctx); err != nil {
					return err
				}
				okColor.Fprintf(cmd.OutOrStdout(), "Logged out %s\n", mutedColor.Sprintf("(%s)", history.Current().Screen))
				return nil
			})
		},
	}
}

func newUsersCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List accounts registered on this machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, opts, func(_ context.Context, e *env) error {
				profiles, err := e.provider.Users()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(profiles) == 0 {
					warnColor.Fprintln(out, "No accounts yet.")
					return nil
				}
				for _, p := range profiles {
					role := identity.RoleFor(p.IsDoctor)
					fmt.Fprintf(out, "%s  %s %s\n", p.Email, titleColor.Sprint(role), mutedColor.Sprint(p.FullName))
				}
				return nil
			})
		},
	}
}

// withEnv opens the shared environment for one command and cancels the
// context on SIGINT or SIGTERM.
func withEnv(cmd *cobra.Command, opts *options, fn func(context.Context, *env) error) error {
	e, err := openEnv(opts)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return fn(ctx, e)
}

func runFlow(cmd *cobra.Command, e *env, verb string, run func(*session.Flows) (session.Decision, error)) error {
	history := nav.NewHistory(nav.AuthLoading)
	decision, err := run(session.NewFlows(e.ids, history))
	if err != nil {
		return err
	}
	okColor.Fprintf(cmd.OutOrStdout(), "%s → %s\n", verb, titleColor.Sprint(decision))
	return nil
}

func readPassword(cmd *cobra.Command, prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errNoPassword
	}
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(b), nil
}
