// Command rl is the redline issue tracker CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/steveyegge/redline/internal/config"
	"github.com/steveyegge/redline/internal/debug"
	"github.com/steveyegge/redline/internal/idgen"
	"github.com/steveyegge/redline/internal/storage"
	"github.com/steveyegge/redline/internal/storage/factory"
	"github.com/steveyegge/redline/internal/telemetry"
	"github.com/steveyegge/redline/internal/types"
	"github.com/steveyegge/redline/internal/ui"
)

var (
	// Version is the current version of rl (overridden by ldflags at build time)
	Version = "0.3.0"
	// Build can be set via ldflags at compile time
	Build = "dev"
)

// skipStore marks commands that run without opening the database.
const skipStore = "rl/skip-store"

// app carries the state shared by every command of one invocation.
type app struct {
	// flags
	configPath string
	dbPath     string
	backend    string
	actorFlag  string
	jsonOutput bool
	verbose    bool
	quiet      bool
	noPager    bool

	cfg   *config.Config
	store storage.Storage
	clock types.Clock
	ids   idgen.Generator

	stdin          io.Reader
	stdinIsTTY     func() bool
	stdout, stderr io.Writer

	telemetry *telemetry.Provider
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{
		clock:  types.SystemClock{},
		ids:    idgen.Random{},
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		stdinIsTTY: func() bool {
			f, ok := stdin.(*os.File)
			return ok && term.IsTerminal(int(f.Fd()))
		},
	}
}

func (a *app) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rl",
		Short:         "rl - Redmine-style issue tracker",
		Long:          `Track projects, issues, time and comments from the command line.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default: "+config.DefaultConfigPath+" when present)")
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "SQLite database path (overrides storage.sqlite.path)")
	root.PersistentFlags().StringVar(&a.backend, "backend", "", "Storage backend: sqlite or mysql (overrides storage.backend)")
	root.PersistentFlags().StringVar(&a.actorFlag, "actor", "", "Acting user, by email or id (default: $RL_ACTOR, config actor)")
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "Output in JSON format")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose/debug output")
	root.PersistentFlags().BoolVarP(&a.quiet, "quiet", "q", false, "Suppress non-essential output (errors only)")
	root.PersistentFlags().BoolVar(&a.noPager, "no-pager", false, "Never pipe listings through a pager")

	root.AddGroup(&cobra.Group{ID: "tracking", Title: "Tracking:"})
	root.AddGroup(&cobra.Group{ID: "data", Title: "Data:"})
	root.AddGroup(&cobra.Group{ID: "setup", Title: "Setup & Configuration:"})

	root.AddCommand(
		a.newIssueCmd(),
		a.newProjectCmd(),
		a.newUserCmd(),
		a.newTimeCmd(),
		a.newCommentCmd(),
		a.newExportCmd(),
		a.newImportCmd(),
		a.newValidateCmd(),
		a.newSeedCmd(),
		a.newConfigCmd(),
		a.newVersionCmd(),
	)
	return root
}

// setup runs before every command: it resolves configuration, logging and
// colour, then opens the store unless the command opts out.
func (a *app) setup(cmd *cobra.Command) error {
	debug.SetVerbose(a.verbose)
	debug.SetQuiet(a.quiet)
	ui.ConfigureColor()

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.backend != "" {
		cfg.Storage.Backend = a.backend
	}
	if a.dbPath != "" {
		cfg.Storage.SQLite.Path = a.dbPath
	}
	if cfg.Output.JSON && !cmd.Flags().Changed("json") {
		a.jsonOutput = true
	}
	a.cfg = cfg

	if skipsStore(cmd) {
		return nil
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	tel, err := telemetry.Init(ctx, telemetry.Settings{
		Enabled:  cfg.Telemetry.Enabled,
		Stdout:   cfg.Telemetry.Stdout,
		Endpoint: cfg.Telemetry.Endpoint,
		Output:   a.stderr,
	}, "rl", Version)
	if err != nil {
		debug.Logf("telemetry disabled: %v\n", err)
	}
	a.telemetry = tel

	store, err := factory.New(ctx, cfg.Storage, debug.Logger())
	if err != nil {
		return err
	}
	a.store = a.telemetry.WrapStorage(store)
	debug.Logf("opened %s storage\n", cfg.Storage.Backend)
	return nil
}

func skipsStore(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[skipStore] == "true" {
			return true
		}
	}
	return false
}

// close releases what setup acquired. Safe to call when setup never ran.
func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			debug.Logf("close store: %v\n", err)
		}
		a.store = nil
	}
	if err := a.telemetry.Shutdown(context.Background()); err != nil {
		debug.Logf("telemetry shutdown: %v\n", err)
	}
	a.telemetry = nil
}

// execute runs one command line and returns the process exit code.
func (a *app) execute(ctx context.Context, args []string) int {
	root := a.newRootCmd()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	a.close()
	if err == nil {
		return 0
	}
	return a.reportError(err)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := newApp(os.Stdin, os.Stdout, os.Stderr).execute(ctx, os.Args[1:])
	cancel()
	os.Exit(code)
}

// currentUser resolves the acting user from --actor, then config/RL_ACTOR.
func (a *app) currentUser(ctx context.Context) (*types.User, error) {
	ref := a.actorFlag
	if ref == "" && a.cfg != nil {
		ref = a.cfg.Actor
	}
	if ref == "" {
		return nil, withHint(errors.New("no acting user"),
			"pass --actor <email>, set RL_ACTOR, or set actor in "+config.DefaultConfigPath)
	}
	user, err := a.resolveUser(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("resolving actor: %w", err)
	}
	return user, nil
}
