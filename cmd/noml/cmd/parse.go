package cmd

import (
	"fmt"
	"strings"

	"github.com/kr/pretty"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	nomlerrors "github.com/noml-lang/noml-go/errors"
	"github.com/noml-lang/noml-go/parser"
	"github.com/noml-lang/noml-go/resolve"
)

func newParseCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "parse and resolve a NOML document, printing its Value tree",
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
			if verbose {
				log.Debug(pretty.Sprint(doc))
			}
			cfg := resolve.DefaultConfig()
			cfg.BasePath = "."
			v, err := resolve.Resolve(doc, cfg)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), nomlerrors.Render(src, err))
				return err
			}

			switch output {
			case "yaml":
				node := yamlNode(v)
				out, err := yaml.Marshal(node)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), string(out))
			default:
				var b strings.Builder
				flatten(v, "", &b)
				fmt.Fprint(cmd.OutOrStdout(), b.String())
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "flat", "output form: flat or yaml")
	return cmd
}
