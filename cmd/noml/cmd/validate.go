package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	nomlerrors "github.com/noml-lang/noml-go/errors"
	"github.com/noml-lang/noml-go/parser"
	"github.com/noml-lang/noml-go/resolve"
)

func newValidateCmd() *cobra.Command {
	var checkOnly bool
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "check that a NOML document parses (and, by default, resolves) cleanly",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			src, err := afero.ReadFile(afero.NewOsFs(), path)
			if err != nil {
				return err
			}
			doc, err := parser.Parse(path, src)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), nomlerrors.Render(src, err))
				return err
			}
			log.WithField("file", path).Debug("parsed")
			if !checkOnly {
				cfg := resolve.DefaultConfig()
				cfg.BasePath = "."
				if _, err := resolve.Resolve(doc, cfg); err != nil {
					fmt.Fprintln(cmd.ErrOrStderr(), nomlerrors.Render(src, err))
					return err
				}
				log.WithField("file", path).Debug("resolved")
			}
			color.New(color.FgGreen).Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
	cmd.Flags().BoolVar(&checkOnly, "syntax-only", false, "check parsing only, skip env/include/native resolution")
	return cmd
}
