package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ava12/sgrammar/matcher"
)

func newMatchCommand(logger *slog.Logger) *cobra.Command {
	var inputFile string

	cmd := &cobra.Command{
		Use:   "match <grammar-or-tag-file>",
		Short: "Feed a byte stream through the matcher and report accept/reject",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			g, err := loadGrammar(args[0])
			if err != nil {
				return err
			}

			var input []byte
			if inputFile == "" || inputFile == "-" {
				input, err = io.ReadAll(os.Stdin)
			} else {
				input, err = os.ReadFile(inputFile)
			}
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			st := matcher.New(g)
			for i, b := range input {
				if !st.Advance(b) {
					logger.Error("byte rejected", "offset", i, "byte", b)
					fmt.Printf("rejected at offset %d\n", i)
					return nil
				}
			}

			fmt.Printf("can_accept=%t is_terminated=%t\n", st.CanAccept(), st.IsTerminated())
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputFile, "input", "i", "", "read the byte stream from this file instead of stdin")
	return cmd
}
