// Command solarops runs the solar operations coordinator: an HTTP server with
// a live change stream, plus one-shot commands over the same store.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kuhu42/solar-back-sub001/internal/config"
)

type rootOptions struct {
	configFile string
	envFile    string
	storage    string
	asJSON     bool
	trace      bool
	stderr     io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{stderr: stderr}
	root := &cobra.Command{
		Use:   "solarops",
		Short: "Solar installation operations coordinator",
		Long: `solarops tracks solar projects from lead to commissioning: pipeline stages,
installer assignment, complaint escalation, attendance and quotations.

Configuration comes from an optional YAML file (--config), an optional .env
file and SOLAROPS_* environment variables, e.g. SOLAROPS_STORAGE_DRIVER=postgres.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the environment")
	root.PersistentFlags().StringVar(&opts.storage, "storage", "", "storage driver override (memory, sqlite, postgres)")
	root.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "output JSON")
	root.PersistentFlags().BoolVar(&opts.trace, "trace", false, "write a JSON span per operation to stderr")

	root.AddCommand(serveCmd(opts))
	root.AddCommand(seedCmd(opts))
	root.AddCommand(projectsCmd(opts))
	root.AddCommand(projectCmd(opts))
	root.AddCommand(complaintCmd(opts))
	root.AddCommand(attendanceCmd(opts))
	root.AddCommand(quoteCmd(opts))
	return root
}

func (o *rootOptions) load() (config.Config, *slog.Logger, error) {
	overrides := map[string]any{}
	if o.storage != "" {
		overrides["storage.driver"] = o.storage
	}
	cfg, err := config.Load(config.Options{ConfigFile: o.configFile, EnvFile: o.envFile, Overrides: overrides})
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, cfg.NewLogger(), nil
}

// withApp loads configuration, opens the app and closes it after fn.
func (o *rootOptions) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) (err error) {
	cfg, logger, err := o.load()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	var trace io.Writer
	if o.trace {
		trace = o.stderr
	}
	a, err := openApp(ctx, cfg, logger, trace)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(ctx, a)
}
