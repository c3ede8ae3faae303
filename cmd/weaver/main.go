package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ravi-parthasarathy/weaver/internal/env"
	"github.com/ravi-parthasarathy/weaver/pkg/catalog"
	"github.com/ravi-parthasarathy/weaver/pkg/graph"
	"github.com/ravi-parthasarathy/weaver/pkg/session"
)

func main() {
	if err := env.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "error: read .env: %v\n", err)
		os.Exit(1)
	}
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", session.Message(err))
		os.Exit(1)
	}
}

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	catalogPath string
	configPath  string
	logLevel    string
	logFormat   string
}

func rootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "weaver",
		Short: "Weaver: component graph editor",
		Long: `Weaver edits graphs of typed components connected by data flows.

Component types come from a catalog file (JSON or HCL). A graph lives in a
directory as nodes.json and flows.json; every editing command loads it,
applies one change and saves it back.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return initLogger(opts.logLevel, opts.logFormat)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.catalogPath, "catalog", env.String("WEAVER_CATALOG", "components.json"), "component catalog file (.json or .hcl)")
	pf.StringVar(&opts.configPath, "config", env.String("WEAVER_CONFIG", ""), "run config file (optional)")
	pf.StringVar(&opts.logLevel, "log-level", env.String("WEAVER_LOG_LEVEL", "warn"), "log level: debug, info, warn or error")
	pf.StringVar(&opts.logFormat, "log-format", env.String("WEAVER_LOG_FORMAT", "text"), "log format: text or json")

	root.AddCommand(typesCmd(opts))
	root.AddCommand(newCmd())
	root.AddCommand(addCmd(opts))
	root.AddCommand(configureCmd(opts))
	root.AddCommand(connectCmd(opts))
	root.AddCommand(disconnectCmd(opts))
	root.AddCommand(deleteCmd(opts))
	root.AddCommand(applyCmd(opts))
	root.AddCommand(lintCmd(opts))
	root.AddCommand(graphCmd(opts))
	root.AddCommand(bundleCmd(opts))
	root.AddCommand(configCmd())
	return root
}

// initLogger installs the default slog logger. Text output goes through
// charmbracelet/log; json uses the standard JSON handler.
func initLogger(level, format string) error {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return fmt.Errorf("unknown log level %q: use debug, info, warn or error", level)
	}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "text":
		handler = log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Level:           log.Level(lvl),
		})
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	default:
		return fmt.Errorf("unknown log format %q: use text or json", format)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

// newSession loads the catalog and config and returns a session with an
// empty graph.
func (o *globalOptions) newSession() (*session.Session, error) {
	cat, err := catalog.Load(o.catalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	cfg, err := session.LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	return session.New(graph.NewModel(cat, nil), cfg), nil
}

// open returns a session holding the graph stored in dir.
func (o *globalOptions) open(dir string) (*session.Session, error) {
	s, err := o.newSession()
	if err != nil {
		return nil, err
	}
	if err := s.Load(dir); err != nil {
		return nil, err
	}
	return s, nil
}

// edit loads the graph in dir, applies the intents built by build in order
// and saves the result. Nothing is written unless every intent succeeds.
func (o *globalOptions) edit(cmd *cobra.Command, dir string, build func(*session.Session) ([]session.Intent, error)) error {
	s, err := o.open(dir)
	if err != nil {
		return err
	}
	intents, err := build(s)
	if err != nil {
		return err
	}

	var effects []session.Effect
	for _, intent := range intents {
		eff, err := s.Apply(intent)
		if err != nil {
			return err
		}
		effects = append(effects, eff...)
	}
	if err := s.Save(dir); err != nil {
		return err
	}
	printEffects(cmd.OutOrStdout(), effects)
	return nil
}

func printEffects(w io.Writer, effects []session.Effect) {
	if len(effects) == 0 {
		fmt.Fprintln(w, "no change")
		return
	}
	for _, e := range effects {
		fmt.Fprintln(w, e)
	}
}
