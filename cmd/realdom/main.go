package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	rderrors "github.com/vango-dev/realdom/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if !isTerminal(os.Stderr) {
		rderrors.DisableColors()
	}
	if err := rootCmd().Execute(); err != nil {
		rderrors.Fprint(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "realdom",
		Short: "Drive and inspect an incremental derived-state engine",
		Long: `realdom mounts a node tree, keeps its derived states (size, color,
accessibility) up to date across mutations, and reports what each
update cycle recomputed.

Configuration is read from realdom.json or realdom.yaml in the
working directory, or from the file given with --config.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: realdom.json or realdom.yaml in the working directory)")

	root.AddCommand(
		runCmd(&configPath),
		benchCmd(&configPath),
		serveCmd(&configPath),
		versionCmd(),
	)
	return root
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// success prints a success message.
func success(cmd *cobra.Command, format string, args ...any) {
	mark := "✓"
	if f, ok := cmd.OutOrStdout().(*os.File); ok && isTerminal(f) {
		mark = "\033[32m✓\033[0m"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", mark, fmt.Sprintf(format, args...))
}
