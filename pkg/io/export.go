package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/WalterStager/thaumcraft-research-solver/pkg/aspect"
)

// WriteRecipes encodes a recipe book. Aspects are written in name order.
func WriteRecipes(spec aspect.Spec, w io.Writer, format Format) error {
	switch format {
	case FormatTOML:
		book := tomlBook{Aspects: make(map[string][]string, len(spec))}
		for name, comps := range spec {
			if comps == nil {
				comps = []string{}
			}
			book.Aspects[name] = comps
		}
		if err := toml.NewEncoder(w).Encode(book); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return nil
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(spec); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return nil
	}
	return fmt.Errorf("unsupported recipe format %q", format)
}

// ExportRecipes writes a recipe book to path in the format its extension
// names.
func ExportRecipes(spec aspect.Spec, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteRecipes(spec, f, FormatFromPath(path))
}

// WriteBoard encodes a board as indented JSON.
func WriteBoard(b *Board, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportBoard writes a board to a JSON file at path.
func ExportBoard(b *Board, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteBoard(b, f)
}
