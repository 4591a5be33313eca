package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/muurk/mcparam/internal/logging"
	"github.com/muurk/mcparam/internal/param"
)

const yamlVersion = 1

// yamlDoc is the on-disk layout of a parameter file
type yamlDoc struct {
	Version    int         `yaml:"version"`
	Parameters []yamlParam `yaml:"parameters"`
}

// yamlParam keeps the value as a scalar node so floats are written in their
// shortest float32 form and read back bit-exact.
type yamlParam struct {
	Name  string    `yaml:"name"`
	Type  string    `yaml:"type"`
	Value yaml.Node `yaml:"value"`
}

// YAMLFile stores parameters in a human-editable YAML file.
type YAMLFile struct {
	path string
	mu   sync.Mutex
}

// NewYAMLFile returns a YAML store at path. The file is created on first Save.
func NewYAMLFile(path string) *YAMLFile {
	return &YAMLFile{path: path}
}

// Path returns the file path
func (f *YAMLFile) Path() string {
	return f.path
}

// Load reads the file. A missing file is an empty load. Entries with an
// unknown type-tag or unparseable value are logged and skipped.
func (f *YAMLFile) Load(ctx context.Context) ([]param.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read parameter file: %w", err)
	}

	var doc yamlDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse parameter file %s: %w", f.path, err)
	}
	if doc.Version != yamlVersion {
		return nil, fmt.Errorf("unsupported parameter file version: %d (expected %d)", doc.Version, yamlVersion)
	}

	records := make([]param.Record, 0, len(doc.Parameters))
	for _, p := range doc.Parameters {
		rec, err := entry{Name: p.Name, Type: p.Type, Value: p.Value.Value}.record()
		if err != nil {
			logging.Warn("Skipping malformed parameter entry",
				zap.String("path", f.path),
				zap.Error(err),
			)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// Save writes every record, replacing the file atomically.
func (f *YAMLFile) Save(ctx context.Context, records []param.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	doc := yamlDoc{Version: yamlVersion, Parameters: make([]yamlParam, len(records))}
	for i, rec := range records {
		e := toEntry(rec)
		doc.Parameters[i] = yamlParam{
			Name:  e.Name,
			Type:  e.Type,
			Value: yaml.Node{Kind: yaml.ScalarNode, Value: e.Value},
		}
	}

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("failed to marshal parameters: %w", err)
	}

	header := []byte(`# mcparam parameter file
# Values are applied at boot with import semantics: unknown names are
# skipped and out-of-range values are clamped to the nearest bound.

`)
	data = append(header, data...)

	if dir := filepath.Dir(f.path); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create parameter directory: %w", err)
		}
	}

	tmpPath := f.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary parameter file: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save parameter file: %w", err)
	}

	logging.Debug("Parameters saved", zap.String("path", f.path), zap.Int("count", len(records)))
	return nil
}

// Close is a no-op; the file is not held open between calls.
func (f *YAMLFile) Close() error {
	return nil
}
