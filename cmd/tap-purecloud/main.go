package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/tap-purecloud/pkg/connector/sources/purecloud"
)

var version = "0.1.0"

// syncFlags overrides config file settings from the command line
type syncFlags struct {
	configFile  string
	stateFile   string
	logLevel    string
	metricsAddr string
	trace       bool
	output      string
	compression string
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tap-purecloud",
		Short: "Singer tap for Genesys Cloud (PureCloud)",
		Long: `tap-purecloud extracts users, routing, workforce management and analytics
data from a Genesys Cloud organization and writes it as a Singer stream.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "tap-purecloud v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(newDiscoverCmd())
	root.AddCommand(newSyncCmd())
	return root
}

func newDiscoverCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Print the stream catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeCatalog(cmd.OutOrStdout(), format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "Catalog format (json, yaml)")
	return cmd
}

func writeCatalog(w io.Writer, format string) error {
	doc := purecloud.Discover()
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown catalog format %q", format)
	}
}

func newSyncCmd() *cobra.Command {
	flags := &syncFlags{}
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run a sync and write the Singer stream",
		Long: `Run a sync from the configured start date, or the date stored in state,
through today. SCHEMA, RECORD and STATE messages go to stdout unless --output
is given.

Example:
  tap-purecloud sync -c config.json -s state.json > out.jsonl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), flags, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&flags.configFile, "config", "c", "", "Path to the JSON or YAML config file (required)")
	_ = cmd.MarkFlagRequired("config")
	cmd.Flags().StringVarP(&flags.stateFile, "state", "s", "", "Path to the state file (overrides the state section)")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	cmd.Flags().BoolVar(&flags.trace, "trace", false, "Export trace spans to stderr")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Write the Singer stream to this file instead of stdout")
	cmd.Flags().StringVar(&flags.compression, "compression", "", "Output file compression (none, gzip, zstd)")
	return cmd
}
