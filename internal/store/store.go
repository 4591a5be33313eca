package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/muurk/mcparam/internal/param"
)

// Store is non-volatile storage for parameter values.
// Load returns records in the order they were saved; a store that has never
// been saved loads as empty.
type Store interface {
	Load(ctx context.Context) ([]param.Record, error)
	Save(ctx context.Context, records []param.Record) error
	Close() error
}

// sqlitePrefix selects the SQLite backend regardless of file extension
const sqlitePrefix = "sqlite:"

// Open returns the store backend for path:
//   - "sqlite:<path>", *.db, *.sqlite, *.sqlite3: SQLite database
//   - *.yaml, *.yml: YAML file
func Open(path string) (Store, error) {
	if rest, ok := strings.CutPrefix(path, sqlitePrefix); ok {
		return OpenSQLite(rest)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return NewYAMLFile(path), nil
	case ".db", ".sqlite", ".sqlite3":
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unsupported store %q (want .yaml, .yml, .db, .sqlite or sqlite: prefix)", path)
	}
}

// entry is the storage-neutral form of a record: name, type-tag and the
// value's canonical text.
type entry struct {
	Name  string
	Type  string
	Value string
}

func toEntry(rec param.Record) entry {
	return entry{Name: rec.Name, Type: rec.Type().String(), Value: rec.Value.String()}
}

func (e entry) record() (param.Record, error) {
	t, err := param.ParseType(e.Type)
	if err != nil {
		return param.Record{}, fmt.Errorf("parameter %s: %w", e.Name, err)
	}
	v, err := param.ParseValue(t, e.Value)
	if err != nil {
		return param.Record{}, fmt.Errorf("parameter %s: %w", e.Name, err)
	}
	return param.Record{Name: e.Name, Value: v}, nil
}
