// Package pdfform reads the AcroForm fields of a PDF and rewrites them into
// the key/value set an intake orchestrator expects.
//
// Reading is done with pdfcpu. The rewrite is driven by a Layout, which
// describes the field-name conventions of one particular form: which three
// fields hold the parts of a date, which checkbox names stand for a request
// type or a role, and which value marks a ticked box.
package pdfform
