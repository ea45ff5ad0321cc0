package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Version is the CLI's semantic version, overridable at link time with
// -ldflags "-X github.com/noml-lang/noml-go/cmd/noml/cmd.Version=...".
var Version = "0.1.0"

var log = logrus.New()

var verbose bool

// Root constructs the "noml" root command and its subcommands.
func Root() *cobra.Command {
	root := &cobra.Command{
		Use:           "noml",
		Short:         "noml validates and evaluates NOML configuration documents",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				log.SetLevel(logrus.DebugLevel)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log resolver steps to stderr")
	root.AddCommand(newValidateCmd())
	root.AddCommand(newParseCmd())
	root.AddCommand(newVersionCmd())
	return root
}
