package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/panenka-league/results-cli/internal/store"
)

// renderOutput writes a value as indented JSON or YAML.
func renderOutput(w io.Writer, format string, value any) error {
	switch format {
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return eris.Wrap(enc.Encode(value), "encode json")
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return eris.Wrap(enc.Encode(value), "encode yaml")
	default:
		return eris.Errorf("unsupported output format %q (want json or yaml)", format)
	}
}

// openStore opens the configured database and applies migrations.
func openStore(ctx context.Context, path string) (*store.Store, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}
