package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/ava12/sgrammar/bitmask"
	"github.com/ava12/sgrammar/matcher"
	"github.com/ava12/sgrammar/vocab"
)

// vocabFile is the on-disk shape of a tokenizer vocabulary fixture,
// loaded via goccy/go-yaml.
type vocabFile struct {
	Tokens     []string `yaml:"tokens"`
	StopTokens []int    `yaml:"stop_tokens"`
}

func (v *vocabFile) VocabSize() int { return len(v.Tokens) }

func (v *vocabFile) BytesOf(id int) ([]byte, bool) {
	return []byte(v.Tokens[id]), false
}

func (v *vocabFile) StopTokenIDs() map[int]bool {
	ids := make(map[int]bool, len(v.StopTokens))
	for _, id := range v.StopTokens {
		ids[id] = true
	}
	return ids
}

func newVocabCommand(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vocab",
		Short: "Vocabulary pre-analysis commands",
	}
	cmd.AddCommand(newVocabBuildCommand(logger))
	return cmd
}

func newVocabBuildCommand(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build <grammar-or-tag-file> <vocab-yaml-file>",
		Short: "Build a vocabulary trie and report the initial accept/reject partition",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			g, err := loadGrammar(args[0])
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[1], err)
			}
			var vf vocabFile
			if err := yaml.Unmarshal(data, &vf); err != nil {
				return fmt.Errorf("parse %s: %w", args[1], err)
			}

			logger.Info("building vocabulary", "tokens", len(vf.Tokens), "stop_tokens", len(vf.StopTokens))
			v := vocab.Build(&vf)

			st := matcher.New(g)
			mask := bitmask.New(v.VocabSize())
			nonTrivial := v.FillMask(st, mask)

			fmt.Printf("vocab_size=%d accepted=%d trivial=%t\n", v.VocabSize(), mask.Count(), !nonTrivial)
			return nil
		},
	}
	return cmd
}
