package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aleksaelezovic/xmpkit/internal/config"
	"github.com/aleksaelezovic/xmpkit/pkg/xmp"
)

var rootCmd = &cobra.Command{
	Use:   "xmptool",
	Short: "Inspect, edit and store XMP metadata packets",
	Long: `xmptool reads XMP packets (RDF/XML), prints and edits their properties,
reformats them and keeps them in a local packet store.

Namespaces may be given as a URI or as a registered prefix such as "dc".

Configuration is read from xmptool.yaml in the --config directory.
XMPTOOL_STORE and XMPTOOL_LOG_LEVEL override it, from the environment or
from a .env file in the same directory.

Exit Codes:
  0  - Success
  1  - General error
  2  - Invalid metadata or options`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

var rootFlags struct {
	configDir string
	verbose   bool
	noColor   bool
}

// app holds what setup prepares for the subcommands.
var app struct {
	cfg *config.Config
	log *slog.Logger
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// ExitCode maps a command error to a process exit code.
func ExitCode(err error) int {
	var xe *xmp.Error
	switch {
	case err == nil:
		return 0
	case errors.As(err, &xe):
		return 2
	default:
		return 1
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlags.configDir, "config", ".", "Directory containing xmptool.yaml")
	rootCmd.PersistentFlags().BoolVarP(&rootFlags.verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&rootFlags.noColor, "no-color", false, "Disable colored output")
}

func setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(rootFlags.configDir)
	switch {
	case errors.Is(err, config.ErrConfigNotFound):
		cfg = config.Default()
	case err != nil:
		return err
	}
	if err := cfg.ApplyEnv(rootFlags.configDir); err != nil {
		return err
	}

	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	if rootFlags.verbose {
		level = slog.LevelDebug
	}

	app.cfg = cfg
	app.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}

func parseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if name == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return level, fmt.Errorf("invalid log_level %q", name)
	}
	return level, nil
}

// resolveNamespace accepts either a namespace URI or a registered prefix.
func resolveNamespace(reg *xmp.Registry, ns string) (string, error) {
	prefix := strings.TrimSuffix(ns, ":")
	if strings.ContainsAny(prefix, ":/") {
		return ns, nil
	}
	uri, ok := reg.NamespaceURI(prefix)
	if !ok {
		return "", fmt.Errorf("unknown namespace prefix %q", ns)
	}
	return uri, nil
}

// readPacket parses the named file, or stdin for "-".
func readPacket(cmd *cobra.Command, path string) (*xmp.Meta, error) {
	opts := app.cfg.ParseOptions()
	opts.Logger = app.log
	if path == "-" {
		return xmp.ParseReader(cmd.InOrStdin(), opts)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return xmp.Parse(data, opts)
}

// writeOutput writes data to the named file, or stdout when path is empty.
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
