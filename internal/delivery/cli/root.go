package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"quickResume/config"
	"quickResume/internal/delivery/httpapi"
	"quickResume/internal/domain"
	"quickResume/internal/logging"
)

// Build information, set by main
var (
	Version = "dev"
	Commit  = "none"
)

type rootOptions struct {
	configFile string
	logLevel   string
	logFormat  string
	backend    string

	cfg *config.Config
	app *App
}

type viewFlags struct {
	filter string
	games  bool
}

func (f *viewFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.filter, "filter", "f", "", "Only show processes whose name or window title contains this text")
	cmd.Flags().BoolVarP(&f.games, "games", "g", false, "Only show processes classified as games")
}

func (f *viewFlags) filterValue() domain.Filter {
	return domain.Filter{Query: f.filter, GamesOnly: f.games}
}

// NewRootCommand builds the quickresume command tree
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "quickresume",
		Short:         "Suspend and resume processes",
		Long:          "quickresume lists running processes and suspends or resumes them by name or PID.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.app != nil {
				return opts.app.Close()
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configFile, "config", "", "Config file (default: quickresume.yaml in the user config dir or current dir)")
	pf.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&opts.logFormat, "log-format", "", "Log format: text or json")
	pf.StringVar(&opts.backend, "backend", "", "Backend: native or script")

	root.AddCommand(
		newListCommand(opts),
		newActionCommand(opts, "suspend", "Suspend every process matching a name or PID", (*ProcessCLI).SuspendProcess),
		newActionCommand(opts, "resume", "Resume every process matching a name or PID", (*ProcessCLI).ResumeProcess),
		newWatchCommand(opts),
		newServeCommand(opts),
		newConfigCommand(opts),
		newVersionCommand(),
	)

	return root
}

// Execute runs the command tree and returns the process exit code
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		var resultErr *ResultError
		if !errors.As(err, &resultErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		return 1
	}
	return 0
}

// setup loads configuration and initializes logging. Commands that need the
// process backend additionally call wire.
func (o *rootOptions) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return err
	}

	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Log.Format = o.logFormat
	}
	if o.backend != "" {
		cfg.Backend = o.backend
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	logging.Init(cfg.Log.Format, cfg.Log.Level, cmd.ErrOrStderr())
	o.cfg = cfg
	return nil
}

func (o *rootOptions) wire() (*App, error) {
	if o.app != nil {
		return o.app, nil
	}
	app, err := NewApp(o.cfg)
	if err != nil {
		return nil, err
	}
	o.app = app
	return app, nil
}

func (o *rootOptions) processCLI(out io.Writer) (*ProcessCLI, *App, error) {
	app, err := o.wire()
	if err != nil {
		return nil, nil, err
	}
	return NewProcessCLI(app.Service, out), app, nil
}

func newListCommand(opts *rootOptions) *cobra.Command {
	var flags viewFlags
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List running and suspended processes",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := opts.processCLI(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return c.ListProcesses(cmd.Context(), flags.filterValue(), asJSON)
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the view as JSON")
	return cmd
}

func newActionCommand(opts *rootOptions, name, short string, action func(*ProcessCLI, context.Context, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <name|pid>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := opts.processCLI(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return action(c, cmd.Context(), args[0])
		},
	}
}

func newWatchCommand(opts *rootOptions) *cobra.Command {
	var flags viewFlags

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Continuously show processes, refreshing on every reconciliation tick",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, app, err := opts.processCLI(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			app.Warmup(ctx)
			go app.Service.Reconciler().Run(ctx)
			return c.Watch(ctx, flags.filterValue())
		},
	}
	flags.register(cmd)
	return cmd
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the process façade over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.wire()
			if err != nil {
				return err
			}
			if listen == "" {
				listen = opts.cfg.Server.Listen
			}

			ctx := cmd.Context()
			app.Warmup(ctx)
			go app.Service.Reconciler().Run(ctx)

			fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s (Ctrl+C to stop)\n", listen)
			return httpapi.NewServer(app.Service).ListenAndServe(ctx, listen)
		},
	}
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "Listen address (default from server.listen)")
	return cmd
}

func newConfigCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := opts.cfg.Settings()
			if key, ok := settings["classifier"].(map[string]any); ok {
				if k, _ := key["rawg_api_key"].(string); k != "" {
					key["rawg_api_key"] = "********"
				}
			}

			data, err := yaml.Marshal(settings)
			if err != nil {
				return fmt.Errorf("failed to render config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		// version needs no configuration
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "quickresume %s (commit %s)\n", Version, Commit)
		},
	}
}
