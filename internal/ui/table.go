package ui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/muurk/mcparam/internal/param"
)

// Row is one line of a parameter value table
type Row struct {
	Name     string
	Value    string
	Default  string
	Unit     string
	Group    string
	Modified bool
	Changes  uint64
}

// NewRow formats a live value against its definition
func NewRow(def param.Definition, v param.Value, state param.State, changes uint64) Row {
	return Row{
		Name:     def.Name,
		Value:    FormatValue(def, v),
		Default:  FormatValue(def, def.Default),
		Unit:     def.Unit,
		Group:    def.Group,
		Modified: state == param.StateModified,
		Changes:  changes,
	}
}

// FormatValue renders v with the definition's display precision. Selector
// values carry their option label.
func FormatValue(def param.Definition, v param.Value) string {
	if def.IsSelector() {
		if i, ok := v.AsInt32(); ok {
			if opt, ok := def.OptionByValue(i); ok {
				return fmt.Sprintf("%d (%s)", i, opt.Label)
			}
		}
	}
	if def.Decimal > 0 && v.Type() == param.TypeFloat {
		return v.Format(def.Decimal)
	}
	return v.String()
}

// ParamTable renders rows with modified values highlighted
func ParamTable(rows []Row) string {
	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		name := r.Name
		if r.Modified {
			name += " " + ModifiedMarker
		}
		data = append(data, []string{name, r.Value, r.Default, r.Unit, strconv.FormatUint(r.Changes, 10)})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(PrimaryColor)).
		Headers("NAME", "VALUE", "DEFAULT", "UNIT", "CHANGES").
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case col >= 2:
				return TableMutedStyle
			case row < len(rows) && rows[row].Modified:
				return TableModifiedStyle
			default:
				return TableCellStyle
			}
		})
	return t.Render()
}

// CatalogTable renders declared parameters with their defaults and bounds
func CatalogTable(defs []param.Definition) string {
	data := make([][]string, 0, len(defs))
	for _, def := range defs {
		data = append(data, []string{
			def.Name,
			def.Type.String(),
			FormatValue(def, def.Default),
			RangeText(def),
			def.Unit,
			def.Group,
			def.Short,
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(PrimaryColor)).
		Headers("NAME", "TYPE", "DEFAULT", "RANGE", "UNIT", "GROUP", "DESCRIPTION").
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case col == 0:
				return TableCellStyle
			default:
				return TableMutedStyle
			}
		})
	return t.Render()
}

// RangeText describes the accepted values of def
func RangeText(def param.Definition) string {
	if def.Bounds == nil {
		if def.Type == param.TypeBool {
			return "true/false"
		}
		return "-"
	}
	min, max := def.Bounds.Min, def.Bounds.Max
	if def.Decimal > 0 && def.Type == param.TypeFloat {
		return min.Format(def.Decimal) + " .. " + max.Format(def.Decimal)
	}
	return min.String() + " .. " + max.String()
}

// SimpleTable renders a plain table with the shared header and border styles
func SimpleTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(PrimaryColor)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return TableHeaderStyle
			}
			return TableCellStyle
		})
	return t.Render()
}
