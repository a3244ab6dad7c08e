package pdfform

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// DateLayout names the three fields holding the parts of a date.
type DateLayout struct {
	Field     string   `mapstructure:"field"`
	Parts     []string `mapstructure:"parts"`
	Separator string   `mapstructure:"separator"`
}

// OptionLayout maps checkbox names to an output field. Options are labels
// that double as field names; their order decides precedence and output order.
type OptionLayout struct {
	Output    string   `mapstructure:"output"`
	Options   []string `mapstructure:"options"`
	Separator string   `mapstructure:"separator"`
}

// Layout describes the field conventions of one form.
type Layout struct {
	Date         DateLayout   `mapstructure:"date"`
	RequestType  OptionLayout `mapstructure:"request_type"`
	Roles        OptionLayout `mapstructure:"roles"`
	CheckedValue string       `mapstructure:"checked_value"`
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// DefaultLayout returns the layout of the user creation/modification form.
func DefaultLayout() Layout {
	return Layout{
		Date: DateLayout{
			Field:     "Date of Approval",
			Parts:     []string{"undefined", "undefined_2"},
			Separator: "-",
		},
		RequestType: OptionLayout{
			Output: "Type_of_Request",
			Options: []string{
				"Modify Existing User",
				"New User",
				"Deactivate User",
			},
		},
		Roles: OptionLayout{
			Output: "Requested_SAP_Roles",
			Options: []string{
				"SAP Basis Administrator",
				"SAP FICO Consultant",
				"SAP SD Consultant",
				"SAP HR Consultant",
				"SAP ABAP Developer",
				"SAP QM Consultant",
				"SAP SCM Consultant",
				"SAP GRC Consultant",
				"SAP Security Consultant",
				"SAP WM Consultant",
				"SAP HANA Consultant",
				"SAP Solution Architect",
				"SAP S/4HANA Consultant",
				"SAP CRM Consultant",
				"SAP Project Manager",
			},
			Separator: ", ",
		},
		CheckedValue: "On",
	}
}

// LoadLayout reads a layout from a YAML, JSON or TOML file. Keys missing
// from the file keep their DefaultLayout values.
func LoadLayout(path string) (Layout, error) {
	def := DefaultLayout()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("date.field", def.Date.Field)
	v.SetDefault("date.parts", def.Date.Parts)
	v.SetDefault("date.separator", def.Date.Separator)
	v.SetDefault("request_type.output", def.RequestType.Output)
	v.SetDefault("request_type.options", def.RequestType.Options)
	v.SetDefault("roles.output", def.Roles.Output)
	v.SetDefault("roles.options", def.Roles.Options)
	v.SetDefault("roles.separator", def.Roles.Separator)
	v.SetDefault("checked_value", def.CheckedValue)

	if err := v.ReadInConfig(); err != nil {
		return Layout{}, fmt.Errorf("failed to read layout %s: %w", path, err)
	}

	var l Layout
	if err := v.Unmarshal(&l); err != nil {
		return Layout{}, fmt.Errorf("failed to parse layout %s: %w", path, err)
	}
	if err := l.Validate(); err != nil {
		return Layout{}, fmt.Errorf("invalid layout %s: %w", path, err)
	}
	return l, nil
}

// Validate checks that the layout can drive Normalize.
func (l Layout) Validate() error {
	if l.Date.Field != "" && len(l.Date.Parts) == 0 {
		return fmt.Errorf("date.parts is required when date.field is set")
	}
	if len(l.RequestType.Options) > 0 && l.RequestType.Output == "" {
		return fmt.Errorf("request_type.output is required")
	}
	if len(l.Roles.Options) > 0 && l.Roles.Output == "" {
		return fmt.Errorf("roles.output is required")
	}
	if l.CheckedValue == "" {
		return fmt.Errorf("checked_value is required")
	}
	return nil
}

// Normalize applies the layout's rewrite passes to fields and returns the
// result; fields itself is left untouched.
//
// Passes, in order: date assembly, option resolution, whitespace runs in
// names replaced by "_", and removal of every field whose value equals the
// checked marker. Resolved options are appended after the surviving fields.
func (l Layout) Normalize(fields *FieldSet) *FieldSet {
	fs := fields.Clone()

	l.assembleDate(fs)

	requestType := l.RequestType.resolveFirst(fs)
	roles := l.Roles.resolveAll(fs)

	out := NewFieldSet()
	for _, p := range fs.Pairs() {
		out.Set(NormalizeKey(p.Key), p.Value)
	}

	if requestType != "" {
		out.Set(l.RequestType.Output, requestType)
	}
	if len(roles) > 0 {
		out.Set(l.Roles.Output, strings.Join(roles, l.Roles.Separator))
	}

	for _, name := range out.Names() {
		if v, _ := out.Get(name); v == l.CheckedValue {
			out.Delete(name)
		}
	}
	return out
}

// NormalizeKey replaces every run of whitespace in name with a single "_".
func NormalizeKey(name string) string {
	return whitespaceRun.ReplaceAllString(name, "_")
}

// assembleDate joins the date field and its parts into the date field.
// Absent parts become empty segments; when every part is absent nothing
// is produced.
func (l Layout) assembleDate(fs *FieldSet) {
	if l.Date.Field == "" {
		return
	}

	names := append([]string{l.Date.Field}, l.Date.Parts...)
	segments := make([]string, len(names))
	found := false
	for i, n := range names {
		if v, ok := fs.Get(n); ok {
			segments[i] = v
			found = true
		}
	}
	if !found {
		return
	}

	for _, n := range l.Date.Parts {
		fs.Delete(n)
	}
	fs.Set(l.Date.Field, strings.Join(segments, l.Date.Separator))
}

func (o OptionLayout) resolveFirst(fs *FieldSet) string {
	for _, opt := range o.Options {
		if fs.Has(opt) {
			return opt
		}
	}
	return ""
}

func (o OptionLayout) resolveAll(fs *FieldSet) []string {
	var selected []string
	for _, opt := range o.Options {
		if fs.Has(opt) {
			selected = append(selected, opt)
		}
	}
	return selected
}
