package commands

import (
	"flag"
	"fmt"

	"github.com/spf13/cobra"
	"k8s.io/klog"

	"github.com/bankimport-dev/bankimport/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "bankimport",
		Short:   "Convert bank export files into plain-text ledger entries",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	// Expose klog's -v/-logtostderr flags through cobra.
	klogFlags := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(klogFlags)
	rootCmd.PersistentFlags().AddGoFlagSet(klogFlags)

	rootCmd.AddCommand(newImportCommand())
	rootCmd.AddCommand(newFormatsCommand())

	return rootCmd
}
