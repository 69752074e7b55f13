package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/WalterStager/thaumcraft-research-solver/pkg/aspect"
	"github.com/WalterStager/thaumcraft-research-solver/pkg/errors"
)

// Format is a recipe book encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// FormatFromPath picks the format from the file extension. Anything other
// than .toml is read as JSON.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatJSON
}

type tomlBook struct {
	Aspects map[string][]string `toml:"aspects"`
}

// ReadRecipes decodes a recipe book from r.
func ReadRecipes(r io.Reader, format Format) (aspect.Spec, error) {
	var spec aspect.Spec
	switch format {
	case FormatTOML:
		var book tomlBook
		if _, err := toml.NewDecoder(r).Decode(&book); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidRecipe, err, "decode toml")
		}
		spec = make(aspect.Spec, len(book.Aspects))
		for name, comps := range book.Aspects {
			if len(comps) == 0 {
				comps = nil
			}
			spec[name] = comps
		}
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&spec); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidRecipe, err, "decode json")
		}
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "recipe format %q", format)
	}

	if len(spec) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidRecipe, "recipe book is empty")
	}
	for name, comps := range spec {
		if name == "" {
			return nil, errors.New(errors.ErrCodeInvalidRecipe, "empty aspect name")
		}
		for _, c := range comps {
			if c == "" {
				return nil, errors.New(errors.ErrCodeInvalidRecipe, "aspect %s: empty component name", name)
			}
		}
	}
	return spec, nil
}

// ImportRecipes reads the recipe book at path.
func ImportRecipes(path string) (aspect.Spec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadRecipes(f, FormatFromPath(path))
}

// LoadRecipes reads the book at path, or the bundled book when path is
// empty, and builds its graph.
func LoadRecipes(path string) (*aspect.Graph, error) {
	if path == "" {
		return aspect.Builtin()
	}
	spec, err := ImportRecipes(path)
	if err != nil {
		return nil, err
	}
	g, err := aspect.New(spec)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}
