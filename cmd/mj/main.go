// Command mj is the command-line front end of the mini-jira issue engine.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/andreisalomia/mini-jira/internal/config"
	"github.com/andreisalomia/mini-jira/internal/engine"
	"github.com/andreisalomia/mini-jira/internal/identity"
	"github.com/andreisalomia/mini-jira/internal/logging"
	"github.com/andreisalomia/mini-jira/internal/storage/factory"
	"github.com/andreisalomia/mini-jira/internal/telemetry"
	"github.com/andreisalomia/mini-jira/internal/types"
	"github.com/andreisalomia/mini-jira/internal/ui"
	"github.com/andreisalomia/mini-jira/internal/validation"
)

// cli holds the flag values and lazily opened collaborators of one
// invocation.
type cli struct {
	out    io.Writer
	errOut io.Writer

	// Persistent flags
	jsonOutput     bool
	token          string
	dbPath         string
	storageBackend string
	verbose        bool

	log    *slog.Logger
	engine *engine.Engine
	dir    *identity.StaticDirectory
	tokens *identity.TokenProvider
}

func newCLI(out, errOut io.Writer) *cli {
	return &cli{out: out, errOut: errOut, log: logging.Discard()}
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "mj",
		Short:         "mj - issue lifecycle tracker",
		Long:          `Track issues through OPEN → IN_PROGRESS → DONE with an append-only audit trail.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
	}

	root.PersistentFlags().BoolVar(&c.jsonOutput, "json", false, "Output in JSON format")
	root.PersistentFlags().StringVar(&c.token, "token", "", "Bearer token (default: $MJ_TOKEN)")
	root.PersistentFlags().StringVar(&c.dbPath, "db", "", "Database path (default: .minijira/minijira.db)")
	root.PersistentFlags().StringVar(&c.storageBackend, "storage", "", "Storage backend: sqlite or memory")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable verbose/debug output")

	root.AddGroup(
		&cobra.Group{ID: "issues", Title: "Working With Issues:"},
		&cobra.Group{ID: "setup", Title: "Setup & Configuration:"},
	)
	root.AddCommand(
		c.createCmd(),
		c.showCmd(),
		c.listCmd(),
		c.updateCmd(),
		c.deleteCmd(),
		c.commentsCmd(),
		c.auditCmd(),
		c.tokenCmd(),
		c.configCmd(),
		c.versionCmd(),
	)
	return root
}

// setup runs before every command: config, logging, styling, telemetry.
// Collaborators that touch disk are opened on first use by open.
func (c *cli) setup(cmd *cobra.Command) error {
	if err := config.Initialize(); err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("db") {
		config.Set(config.KeyDB, c.dbPath)
	}
	if flags.Changed("storage") {
		config.Set(config.KeyStorage, c.storageBackend)
	}
	if flags.Changed("token") {
		config.Set(config.KeyToken, c.token)
	}
	if !flags.Changed("json") {
		c.jsonOutput = config.GetBool(config.KeyJSON)
	}

	level := config.GetString(config.KeyLogLevel)
	if c.verbose {
		level = "debug"
	}
	log, err := logging.New(level, config.GetString(config.KeyLogFormat), c.errOut)
	if err != nil {
		return err
	}
	c.log = log

	ui.ApplyColorProfile()
	if err := telemetry.Init(cmd.Context(), "mj", Version); err != nil {
		WarnError(c.errOut, "telemetry disabled: %v", err)
	}
	return nil
}

// teardown runs after every command, including failed ones.
func (c *cli) teardown(ctx context.Context) {
	if c.engine != nil {
		if err := c.engine.Close(); err != nil {
			c.log.Warn("closing store", "error", err)
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	telemetry.Shutdown(shutdownCtx)
}

// loadDirectory reads the user/project directory named by config.
func (c *cli) loadDirectory() (*identity.StaticDirectory, error) {
	if c.dir != nil {
		return c.dir, nil
	}
	path := config.GetString(config.KeyDirectory)
	dir, err := identity.LoadDirectory(path)
	if err != nil {
		return nil, fmt.Errorf("loading directory %s: %w", path, err)
	}
	c.dir = dir
	return dir, nil
}

func (c *cli) tokenProvider() (*identity.TokenProvider, error) {
	if c.tokens != nil {
		return c.tokens, nil
	}
	dir, err := c.loadDirectory()
	if err != nil {
		return nil, err
	}
	tp, err := identity.NewTokenProvider(config.GetString(config.KeyAuthSecret), identity.WithDirectory(dir))
	if err != nil {
		return nil, err
	}
	c.tokens = tp
	return tp, nil
}

// open returns the engine, opening the configured store on first use.
func (c *cli) open(ctx context.Context) (*engine.Engine, error) {
	if c.engine != nil {
		return c.engine, nil
	}
	dir, err := c.loadDirectory()
	if err != nil {
		return nil, err
	}
	backend, path := config.GetString(config.KeyStorage), config.GetString(config.KeyDB)
	store, err := factory.New(ctx, backend, path)
	if err != nil {
		return nil, types.Wrap(types.ReasonStorageUnavailable, err, "opening %s store", backend)
	}
	c.log.Debug("store opened", "backend", backend, "path", path)
	c.engine = engine.New(telemetry.WrapStorage(store), dir,
		engine.WithLogger(c.log),
		engine.WithIDPrefix(config.GetString(config.KeyIssuePrefix)),
	)
	return c.engine, nil
}

// authenticate resolves the caller from --token / MJ_TOKEN and opens the
// engine.
func (c *cli) authenticate(ctx context.Context) (*engine.Engine, *types.User, error) {
	token := config.GetString(config.KeyToken)
	if token == "" {
		return nil, nil, types.Errorf(types.ReasonUnauthenticated,
			"no token (pass --token or set MJ_TOKEN; mint one with 'mj token <user-id>')")
	}
	tp, err := c.tokenProvider()
	if err != nil {
		return nil, nil, err
	}
	caller, err := tp.ResolveCaller(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	eng, err := c.open(ctx)
	if err != nil {
		return nil, nil, err
	}
	c.log.Debug("caller resolved", "user", caller.ID)
	return eng, caller, nil
}

// issueIDArgs accepts between min and max (min >= 1) positional args, the
// first of which must be an issue ID of the form prefix-hash.
func issueIDArgs(min, max int) cobra.PositionalArgs {
	return cobra.MatchAll(cobra.RangeArgs(min, max), func(_ *cobra.Command, args []string) error {
		_, err := validation.IDFormat(args[0])
		return err
	})
}

// run executes one invocation and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	c := newCLI(stdout, stderr)
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	defer c.teardown(ctx)
	if err := root.ExecuteContext(ctx); err != nil {
		c.reportError(err)
		return 1
	}
	return 0
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}
