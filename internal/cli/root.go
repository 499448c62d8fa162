// Package cli wires the dumpkeeper commands.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/raoulx24/dumpkeeper/internal/config"
	"github.com/raoulx24/dumpkeeper/internal/logging"
	"github.com/raoulx24/dumpkeeper/internal/metrics"
	"github.com/raoulx24/dumpkeeper/internal/service"
	"github.com/raoulx24/dumpkeeper/internal/storage"
)

func Execute() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
	envFile    string
}

// app is everything a command needs after the config has been read.
type app struct {
	cfg config.Config
	log logging.Logger
	svc *service.Service
}

func (o *rootOptions) loadConfig() (config.Config, error) {
	if err := config.LoadEnvFile(o.envFile); err != nil {
		return config.Config{}, err
	}
	return config.Load(o.configPath)
}

func (o *rootOptions) load(stderr io.Writer, m metrics.Metrics) (*app, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	return build(cfg, stderr, m)
}

func build(cfg config.Config, stderr io.Writer, m metrics.Metrics) (*app, error) {
	log := logging.New(cfg.Logging, stderr)
	svc, err := service.New(cfg, storage.NewRegistry(cfg), log, m)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, log: log, svc: svc}, nil
}

// resolveTarget picks the named storage, or the only one when name is empty.
func (a *app) resolveTarget(name string) (string, error) {
	if name != "" {
		return name, nil
	}
	targets := a.svc.Targets()
	if len(targets) == 1 {
		return targets[0], nil
	}
	return "", fmt.Errorf("several storages configured, choose one with --storage: %v", targets)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "dumpkeeper",
		Short:        "Keep database dumps tidy with calendar based retention",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "config.yaml", "path to the config file")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the config is expanded")

	cmd.AddCommand(listCmd(opts), cleanupCmd(opts), placeCmd(opts), serveCmd(opts))
	return cmd
}

// isConfigError reports failures that abort before any dump is touched.
func isConfigError(err error) bool {
	return errors.Is(err, config.ErrInvalid) ||
		errors.Is(err, storage.ErrTargetNotFound) ||
		errors.Is(err, storage.ErrDiskMisconfigured)
}
