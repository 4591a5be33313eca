package catalog

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"go.uber.org/zap"

	"github.com/muurk/mcparam/internal/logging"
	"github.com/muurk/mcparam/internal/param"
)

// declFile is the top-level structure of a declaration file
type declFile struct {
	Params []*paramBlock `hcl:"param,block"`
}

// paramBlock is one `param "NAME" { ... }` block
type paramBlock struct {
	Name      string         `hcl:"name,label"`
	Type      string         `hcl:"type"`
	Default   cty.Value      `hcl:"default"`
	Min       *cty.Value     `hcl:"min,optional"`
	Max       *cty.Value     `hcl:"max,optional"`
	Unit      string         `hcl:"unit,optional"`
	Decimal   int            `hcl:"decimal,optional"`
	Increment float64        `hcl:"increment,optional"`
	Group     string         `hcl:"group,optional"`
	Short     string         `hcl:"short,optional"`
	Long      string         `hcl:"long,optional"`
	Options   []*optionBlock `hcl:"option,block"`
}

type optionBlock struct {
	Value cty.Value `hcl:"value"`
	Label string    `hcl:"label"`
}

// LoadHCL reads declaration files and returns their definitions in file and
// block order. Every definition is validated; the first defect aborts the load.
func LoadHCL(paths ...string) ([]param.Definition, error) {
	parser := hclparse.NewParser()
	var defs []param.Definition
	for _, path := range paths {
		logging.Debug("Decoding declaration file", zap.String("path", path))
		file, diags := parser.ParseHCLFile(path)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %s", path, diags.Error())
		}
		fileDefs, err := decodeBody(file.Body, path)
		if err != nil {
			return nil, err
		}
		defs = append(defs, fileDefs...)
	}
	return defs, nil
}

// ParseHCL decodes declarations from src. filename is used in diagnostics.
func ParseHCL(src []byte, filename string) ([]param.Definition, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %s", filename, diags.Error())
	}
	return decodeBody(file.Body, filename)
}

func decodeBody(body hcl.Body, filename string) ([]param.Definition, error) {
	var decl declFile
	if diags := gohcl.DecodeBody(body, nil, &decl); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %s", filename, diags.Error())
	}

	defs := make([]param.Definition, 0, len(decl.Params))
	for _, blk := range decl.Params {
		def, err := blk.definition()
		if err != nil {
			return nil, fmt.Errorf("%s: param %q: %w", filename, blk.Name, err)
		}
		if err := def.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
		defs = append(defs, def)
	}

	logging.Debug("Decoded declaration file",
		zap.String("path", filename),
		zap.Int("params", len(defs)),
	)
	return defs, nil
}

func (blk *paramBlock) definition() (param.Definition, error) {
	typ, err := param.ParseType(blk.Type)
	if err != nil {
		return param.Definition{}, err
	}

	def := param.Definition{
		Name:      blk.Name,
		Type:      typ,
		Unit:      blk.Unit,
		Decimal:   blk.Decimal,
		Increment: float32(blk.Increment),
		Group:     blk.Group,
		Short:     blk.Short,
		Long:      blk.Long,
	}

	if def.Default, err = fromCty(typ, blk.Default); err != nil {
		return param.Definition{}, fmt.Errorf("default: %w", err)
	}

	switch {
	case blk.Min != nil && blk.Max != nil:
		min, err := fromCty(typ, *blk.Min)
		if err != nil {
			return param.Definition{}, fmt.Errorf("min: %w", err)
		}
		max, err := fromCty(typ, *blk.Max)
		if err != nil {
			return param.Definition{}, fmt.Errorf("max: %w", err)
		}
		def.Bounds = &param.Bounds{Min: min, Max: max}
	case blk.Min != nil || blk.Max != nil:
		return param.Definition{}, fmt.Errorf("min and max must be declared together")
	}

	for _, opt := range blk.Options {
		v, err := fromCty(param.TypeInt32, opt.Value)
		if err != nil {
			return param.Definition{}, fmt.Errorf("option %q: %w", opt.Label, err)
		}
		n, _ := v.AsInt32()
		def.Options = append(def.Options, param.Option{Value: n, Label: opt.Label})
	}
	return def, nil
}

// fromCty converts an HCL literal to a typed value
func fromCty(t param.Type, v cty.Value) (param.Value, error) {
	if v.IsNull() {
		return param.Value{}, fmt.Errorf("value is null")
	}
	if !v.IsKnown() {
		return param.Value{}, fmt.Errorf("value is not known")
	}

	switch v.Type() {
	case cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			i, acc := bf.Int64()
			if acc != 0 {
				return param.Value{}, fmt.Errorf("integer %s out of range", bf.String())
			}
			return param.Coerce(t, i)
		}
		f, _ := bf.Float64()
		return param.Coerce(t, f)
	case cty.Bool:
		return param.Coerce(t, v.True())
	case cty.String:
		return param.ParseValue(t, v.AsString())
	default:
		return param.Value{}, fmt.Errorf("unsupported literal of type %s", v.Type().FriendlyName())
	}
}
