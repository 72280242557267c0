// Command sgrammarc exercises the structural-tag/EBNF compiler, the
// optimizer, and the incremental matcher end to end: compiling a
// structural tag or raw EBNF grammar, optionally partitioning a
// tokenizer vocabulary against it, and driving the matcher over a byte
// stream.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	root := &cobra.Command{
		Use:           "sgrammarc",
		Short:         "Compile structural tags / EBNF grammars and drive the matcher",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.AddCommand(
		newCompileCommand(logger),
		newMatchCommand(logger),
		newVocabCommand(logger),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "sgrammarc: %v\n", err)
		os.Exit(1)
	}
}
