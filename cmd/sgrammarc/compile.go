package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ava12/sgrammar/combinator"
	"github.com/ava12/sgrammar/grammar"
)

func newCompileCommand(logger *slog.Logger) *cobra.Command {
	var outFile string
	var union bool

	cmd := &cobra.Command{
		Use:   "compile <grammar-or-tag-file>...",
		Short: "Compile one or more structural tags / EBNF grammars and print the normalized form",
		Long: `Compiles each argument independently. With a single argument, prints that
grammar's normalized form. With more than one argument, the --union flag
controls how they are combined into one grammar before printing (union,
i.e. "accept any of these", is the default; pass --union=false to require
every argument to already be a single grammar and print each in turn).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			grammars := make([]*grammar.Grammar, 0, len(args))
			for _, path := range args {
				logger.Info("compiling", "file", path)
				g, err := loadGrammar(path)
				if err != nil {
					return err
				}
				grammars = append(grammars, g)
			}

			var printed string
			if len(grammars) > 1 && union {
				logger.Info("combining grammars", "count", len(grammars))
				printed = combinator.Union(grammars...).Print()
			} else {
				for _, g := range grammars {
					printed += g.Print()
				}
			}

			if outFile == "" || outFile == "-" {
				fmt.Println(printed)
				return nil
			}
			return os.WriteFile(outFile, []byte(printed), 0o644)
		},
	}

	cmd.Flags().StringVarP(&outFile, "output", "o", "", "write the normalized grammar here instead of stdout")
	cmd.Flags().BoolVar(&union, "union", true, "when multiple files are given, union them into one grammar")
	return cmd
}
