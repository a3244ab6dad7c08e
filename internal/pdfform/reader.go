package pdfform

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/form"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Widget is one form field as read from the document.
type Widget struct {
	Name     string
	Value    string
	Checkbox bool
}

var disableConfigDir sync.Once

func newConfiguration() *model.Configuration {
	// pdfcpu otherwise creates a config directory under the user's home.
	disableConfigDir.Do(api.DisableConfigDir)

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// ReadWidgets returns every form field of the document in document order.
func ReadWidgets(rs io.ReadSeeker) ([]Widget, error) {
	fields, err := api.FormFields(rs, newConfiguration())
	if err != nil {
		return nil, fmt.Errorf("failed to read form fields: %w", err)
	}

	widgets := make([]Widget, 0, len(fields))
	for _, f := range fields {
		widgets = append(widgets, Widget{
			Name:     f.Name,
			Value:    f.V,
			Checkbox: f.Typ == form.FTCheckBox,
		})
	}
	return widgets, nil
}

// ReadFile opens path and returns its form fields.
func ReadFile(path string) ([]Widget, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	widgets, err := ReadWidgets(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return widgets, nil
}

// Collect builds a field set from widgets. Fields without a value are
// omitted. A ticked checkbox is stored as checked; an unticked one is omitted.
// When two widgets share a name the later value wins.
func Collect(widgets []Widget, checked string) *FieldSet {
	fs := NewFieldSet()
	for _, w := range widgets {
		if w.Name == "" {
			continue
		}
		value := w.Value
		if w.Checkbox {
			if !isTicked(value) {
				continue
			}
			value = checked
		}
		if value == "" {
			continue
		}
		fs.Set(w.Name, value)
	}
	return fs
}

func isTicked(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "off", "no", "false", "0":
		return false
	}
	return true
}
