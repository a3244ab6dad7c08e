// Package pdftest builds small single-page AcroForm documents for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Field is one widget of the generated form.
type Field struct {
	Name     string
	Value    string // text fields only
	Checkbox bool
	Checked  bool
}

const (
	objCatalog = iota + 1
	objPages
	objPage
	objAcroForm
	objHelv
	objZaDb
	objAppearance
	objFirstField
)

// Build returns a PDF whose AcroForm holds fields in the given order.
func Build(fields []Field) []byte {
	refs := make([]string, len(fields))
	for i := range fields {
		refs[i] = fmt.Sprintf("%d 0 R", objFirstField+i)
	}
	fieldRefs := "[" + strings.Join(refs, " ") + "]"

	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R /AcroForm 4 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << >> /Annots " + fieldRefs + " >>",
		"<< /Fields " + fieldRefs + " /DR << /Font << /Helv 5 0 R /ZaDb 6 0 R >> >> /DA (/Helv 0 Tf 0 g) >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /ZapfDingbats >>",
		"<< /Type /XObject /Subtype /Form /BBox [0 0 12 12] /Resources << >> /Length 0 >>\nstream\n\nendstream",
	}

	for i, f := range fields {
		rect := fmt.Sprintf("[72 %d 272 %d]", 700-i*30, 720-i*30)
		if f.Checkbox {
			state := "/Off"
			if f.Checked {
				state = "/Yes"
			}
			rect = fmt.Sprintf("[72 %d 84 %d]", 700-i*30, 712-i*30)
			objs = append(objs, fmt.Sprintf(
				"<< /Type /Annot /Subtype /Widget /FT /Btn /T (%s) /V %s /AS %s /Rect %s /F 4 /P 3 0 R "+
					"/DA (/ZaDb 0 Tf 0 g) /MK << /CA (4) >> /AP << /N << /Yes %d 0 R /Off %d 0 R >> >> >>",
				escape(f.Name), state, state, rect, objAppearance, objAppearance))
			continue
		}
		objs = append(objs, fmt.Sprintf(
			"<< /Type /Annot /Subtype /Widget /FT /Tx /T (%s) /V (%s) /Rect %s /F 4 /P 3 0 R /DA (/Helv 12 Tf 0 g) >>",
			escape(f.Name), escape(f.Value), rect))
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")

	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, objCatalog, xref)
	return buf.Bytes()
}

// WriteFile writes Build(fields) to dir/form.pdf and returns the path.
func WriteFile(t testing.TB, dir string, fields []Field) string {
	t.Helper()
	path := filepath.Join(dir, "form.pdf")
	if err := os.WriteFile(path, Build(fields), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// IntakeForm returns the fields of a filled-in user creation request.
func IntakeForm() []Field {
	return []Field{
		{Name: "Date of Approval", Value: "2024"},
		{Name: "undefined", Value: "01"},
		{Name: "undefined_2", Value: "15"},
		{Name: "Employee Name", Value: "Jane Doe"},
		{Name: "New User", Checkbox: true, Checked: true},
		{Name: "Deactivate User", Checkbox: true},
		{Name: "SAP ABAP Developer", Checkbox: true, Checked: true},
	}
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`)
	return r.Replace(s)
}
