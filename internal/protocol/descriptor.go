package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/muurk/mcparam/internal/param"
)

// Descriptor is the JSON body of a Meta message. Values are carried as
// their canonical text so float32 values survive the trip unchanged.
type Descriptor struct {
	Name      string             `json:"name" yaml:"name"`
	Type      string             `json:"type" yaml:"type"`
	Default   string             `json:"default" yaml:"default"`
	Min       string             `json:"min,omitempty" yaml:"min,omitempty"`
	Max       string             `json:"max,omitempty" yaml:"max,omitempty"`
	Unit      string             `json:"unit,omitempty" yaml:"unit,omitempty"`
	Group     string             `json:"group,omitempty" yaml:"group,omitempty"`
	Short     string             `json:"short,omitempty" yaml:"short,omitempty"`
	Long      string             `json:"long,omitempty" yaml:"long,omitempty"`
	Decimal   int                `json:"decimal,omitempty" yaml:"decimal,omitempty"`
	Increment float32            `json:"increment,omitempty" yaml:"increment,omitempty"`
	Options   []DescriptorOption `json:"options,omitempty" yaml:"options,omitempty"`
}

// DescriptorOption is one selector variant
type DescriptorOption struct {
	Value int32  `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// DescribeDefinition builds the descriptor for def
func DescribeDefinition(def param.Definition) Descriptor {
	d := Descriptor{
		Name:      def.Name,
		Type:      def.Type.String(),
		Default:   def.Default.String(),
		Unit:      def.Unit,
		Group:     def.Group,
		Short:     def.Short,
		Long:      def.Long,
		Decimal:   def.Decimal,
		Increment: def.Increment,
	}
	if def.Bounds != nil {
		d.Min = def.Bounds.Min.String()
		d.Max = def.Bounds.Max.String()
	}
	for _, opt := range def.Options {
		d.Options = append(d.Options, DescriptorOption(opt))
	}
	return d
}

// Definition converts the descriptor back into a validated definition
func (d Descriptor) Definition() (param.Definition, error) {
	typ, err := param.ParseType(d.Type)
	if err != nil {
		return param.Definition{}, err
	}
	def := param.Definition{
		Name:      d.Name,
		Type:      typ,
		Unit:      d.Unit,
		Group:     d.Group,
		Short:     d.Short,
		Long:      d.Long,
		Decimal:   d.Decimal,
		Increment: d.Increment,
	}
	if def.Default, err = param.ParseValue(typ, d.Default); err != nil {
		return param.Definition{}, fmt.Errorf("default: %w", err)
	}
	if d.Min != "" || d.Max != "" {
		min, err := param.ParseValue(typ, d.Min)
		if err != nil {
			return param.Definition{}, fmt.Errorf("min: %w", err)
		}
		max, err := param.ParseValue(typ, d.Max)
		if err != nil {
			return param.Definition{}, fmt.Errorf("max: %w", err)
		}
		def.Bounds = &param.Bounds{Min: min, Max: max}
	}
	for _, opt := range d.Options {
		def.Options = append(def.Options, param.Option(opt))
	}
	if err := def.Validate(); err != nil {
		return param.Definition{}, err
	}
	return def, nil
}

// MetaMessage (type 0x12) carries a Descriptor as JSON
type MetaMessage struct {
	Descriptor Descriptor
}

func (m *MetaMessage) Type() byte { return MsgTypeMeta }

func (m *MetaMessage) String() string {
	return fmt.Sprintf("Meta{%s %s default=%s}", m.Descriptor.Name, m.Descriptor.Type, m.Descriptor.Default)
}

func (m *MetaMessage) MarshalPayload() ([]byte, error) {
	return json.Marshal(m.Descriptor)
}

func parseMeta(payload []byte) (*MetaMessage, error) {
	var d Descriptor
	if err := json.Unmarshal(payload, &d); err != nil {
		return nil, fmt.Errorf("Meta payload: %w", err)
	}
	return &MetaMessage{Descriptor: d}, nil
}
