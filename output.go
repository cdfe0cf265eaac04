package xslt

import (
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// OutputDefinition captures the xsl:output-shaped serialization settings
// of a stylesheet. The evaluator stores it and hands it unchanged to the
// downstream serializer; none of the fields affect evaluation.
type OutputDefinition struct {
	Name     string `yaml:"name,omitempty"`
	Method   string `yaml:"method,omitempty" validate:"omitempty,oneof=xml html xhtml text"`
	Version  string `yaml:"version,omitempty"`
	Encoding string `yaml:"encoding,omitempty"`
	Indent   bool   `yaml:"indent,omitempty"`
	// IndentWidth is the number of spaces per indent level when Indent
	// is set.
	IndentWidth int `yaml:"indent-width,omitempty" validate:"gte=0,lte=16"`
}

// DefaultOutputDefinition returns the settings used when a stylesheet
// declares none: XML 1.0, UTF-8, no indentation.
func DefaultOutputDefinition() OutputDefinition {
	return OutputDefinition{
		Method:   "xml",
		Version:  "1.0",
		Encoding: "UTF-8",
	}
}

var outputValidate = validator.New(validator.WithRequiredStructEnabled())

// ParseOutputDefinition loads an output definition from YAML and
// validates it.
func ParseOutputDefinition(data []byte) (OutputDefinition, error) {
	od := DefaultOutputDefinition()
	if err := yaml.Unmarshal(data, &od); err != nil {
		return OutputDefinition{}, errTypef("bad output definition: %v", err)
	}
	if err := outputValidate.Struct(od); err != nil {
		return OutputDefinition{}, errTypef("bad output definition: %v", err)
	}
	return od, nil
}
