package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lovasoa/rustache/scanner"
)

func newTokensCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tokens TEMPLATE",
		Short: "Print the tokens a template is scanned into",
		Long: `Print one scanner token per line, prefixed with its line and column.
Useful to see which tags are treated as standalone and how delimiter
changes take effect.

Examples:
  rustache tokens page.mustache
  rustache tokens - < page.mustache`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			delims, err := a.cfg.Delimiters()
			if err != nil {
				return err
			}
			tokens, _, err := scanner.Scan(string(source), delims)
			if err != nil {
				return fmt.Errorf("%s: %w", templateName(args[0]), err)
			}
			out := cmd.OutOrStdout()
			for _, tok := range tokens {
				fmt.Fprintf(out, "%s\t%s\n", tok.Pos, tok)
			}
			return nil
		},
	}
}
