package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ava12/sgrammar/compiler"
	"github.com/ava12/sgrammar/ebnf"
	"github.com/ava12/sgrammar/grammar"
	"github.com/ava12/sgrammar/optimizer"
	"github.com/ava12/sgrammar/structtag"
)

// loadGrammar reads path and compiles it into an optimized grammar.Grammar.
// A ".json" extension is treated as a structural-tag wire document
// (validate + compile); anything else is parsed as EBNF.
func loadGrammar(path string) (*grammar.Grammar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var g *grammar.Grammar
	if filepath.Ext(path) == ".json" {
		g, err = compileStructTag(data)
	} else {
		g, err = ebnf.ParseBytes(path, data)
	}
	if err != nil {
		return nil, err
	}

	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("validate %s: %w", path, err)
	}
	return optimizer.Optimize(g), nil
}

func compileStructTag(data []byte) (*grammar.Grammar, error) {
	format, err := structtag.ParseJSON(data)
	if err != nil {
		return nil, fmt.Errorf("parse structural tag: %w", err)
	}
	annotated, err := structtag.Validate(format)
	if err != nil {
		return nil, fmt.Errorf("validate structural tag: %w", err)
	}
	return compiler.Compile(annotated)
}
