package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/LeJamon/gorebase/internal/config"
	"github.com/LeJamon/gorebase/internal/crypto"
	"github.com/LeJamon/gorebase/internal/di"
	"github.com/LeJamon/gorebase/internal/registry"
)

// Version is the rebased release, set at build time with -ldflags.
var Version = "0.1.0-dev"

// errNoIdentity is returned by commands that sign requests when no seed is configured.
var errNoIdentity = errors.New("no identity: pass --seed or set identity.seed")

// app holds the global flags and the services built from them.
type app struct {
	configFile string
	debug      bool
	seed       string
	storage    string
	path       string

	cfg       *config.Config
	log       *zap.Logger
	container *di.Container
	provider  *di.Provider
}

// NewRootCmd builds the rebased command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "rebased",
		Short: "rebased - elastic/base share accounting",
		Long: `rebased keeps rebase ledgers: pools of a fluctuating quantity (elastic)
owned proportionally through share handles (base). Accruing or slashing the
pool changes what every share is worth without touching the shares.`,
		Version:           Version,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configFile, "conf", "", "configuration file path (default: ./rebased.toml if present)")
	flags.BoolVar(&a.debug, "debug", false, "enable debug logging")
	flags.StringVar(&a.seed, "seed", "", "hex seed of the identity that signs requests")
	flags.StringVar(&a.storage, "storage", "", "storage backend (overrides storage.backend)")
	flags.StringVar(&a.path, "path", "", "storage path or DSN (overrides storage.path)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newKeygenCmd(),
		newConfigCmd(),
		newRebaseCmd(a),
		newShareCmd(a),
		newConvertCmd(),
		newSimulateCmd(a),
	)
	a.closeAfter(rootCmd)
	return rootCmd
}

// closeAfter makes every command in the tree release its services when it
// returns. Cobra skips post-run hooks once RunE fails, so the release cannot
// live there.
func (a *app) closeAfter(c *cobra.Command) {
	if run := c.RunE; run != nil {
		c.RunE = func(cmd *cobra.Command, args []string) error {
			err := run(cmd, args)
			if terr := a.teardown(); terr != nil {
				return errors.Join(err, terr)
			}
			return err
		}
	}
	for _, sub := range c.Commands() {
		a.closeAfter(sub)
	}
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads the configuration, applies flag overrides and builds the logger
// and the service container. Storage is opened only when a command needs it.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(a.configFile)
	if err != nil {
		return err
	}
	if a.storage != "" {
		cfg.Storage.Backend = a.storage
	}
	if a.path != "" {
		cfg.Storage.Path = a.path
	}
	if a.seed != "" {
		cfg.Identity.Seed = a.seed
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return err
	}

	log, err := newLogger(cfg.Log, a.debug, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = log
	a.container = di.New()
	a.provider = di.NewProvider(a.container, cfg, log)
	a.provider.RegisterAll()

	log.Debug("configuration loaded",
		zap.String("file", cfg.GetConfigPath()),
		zap.String("backend", cfg.Storage.Backend),
	)
	if !cfg.Storage.Persistent() {
		log.Warn("storage is not persistent; state is lost on exit", zap.String("backend", cfg.Storage.Backend))
	}
	return nil
}

// teardown closes the services opened by setup. It is safe to call twice.
func (a *app) teardown() error {
	if a.container == nil {
		return nil
	}
	err := a.container.Close()
	a.container = nil
	_ = a.log.Sync()
	return err
}

func (a *app) registry() (*registry.Registry, error) {
	return a.provider.Registry()
}

func (a *app) identity() (*crypto.Identity, error) {
	if a.cfg.Identity.Seed == "" {
		return nil, errNoIdentity
	}
	seed, err := crypto.ParseSeed(a.cfg.Identity.Seed)
	if err != nil {
		return nil, err
	}
	return crypto.NewIdentityFromSeed(seed)
}

// execute signs q with the configured identity and applies it.
func (a *app) execute(ctx context.Context, q registry.Request) (registry.Result, error) {
	id, err := a.identity()
	if err != nil {
		return registry.Result{}, err
	}
	reg, err := a.registry()
	if err != nil {
		return registry.Result{}, err
	}
	q.Sequence, err = reg.Sequence(ctx, id.AccountID())
	if err != nil {
		return registry.Result{}, err
	}
	req, err := registry.Sign(id, q)
	if err != nil {
		return registry.Result{}, err
	}
	return reg.Execute(ctx, req)
}
