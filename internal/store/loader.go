package store

import (
	"context"
	"fmt"

	"github.com/muurk/mcparam/internal/logging"
	"github.com/muurk/mcparam/internal/param"
)

// LoadInto reads the store and applies it to reg with import semantics.
// Bad records produce warnings in the report and in the log; they never
// fail the boot.
func LoadInto(ctx context.Context, st Store, reg *param.Registry, source string) (param.ImportReport, error) {
	records, err := st.Load(ctx)
	if err != nil {
		return param.ImportReport{}, fmt.Errorf("failed to load parameters from %s: %w", source, err)
	}
	rep := reg.ImportAll(records)
	logging.LogImportReport(source, rep)
	return rep, nil
}

// SaveFrom writes every parameter of reg to the store in registration order.
func SaveFrom(ctx context.Context, st Store, reg *param.Registry) error {
	if err := st.Save(ctx, reg.ExportAll()); err != nil {
		return fmt.Errorf("failed to save parameters: %w", err)
	}
	return nil
}
