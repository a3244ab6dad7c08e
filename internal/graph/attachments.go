package graph

import (
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	// FileAttachmentType is the OData type of attachments that carry file content.
	// Item and reference attachments use other types and are skipped.
	FileAttachmentType = "#microsoft.graph.fileAttachment"

	// MaxAttachmentSize is the largest decoded attachment accepted (Graph's own limit).
	MaxAttachmentSize = 150 * 1024 * 1024
)

// Attachment is a Graph attachment resource. ContentBytes is only present on
// file attachments.
type Attachment struct {
	ODataType    string `json:"@odata.type"`
	ID           string `json:"id"`
	Name         string `json:"name"`
	ContentType  string `json:"contentType"`
	Size         int64  `json:"size"`
	IsInline     bool   `json:"isInline"`
	ContentBytes string `json:"contentBytes"`
}

// IsFile reports whether the attachment is a file attachment.
func (a Attachment) IsFile() bool {
	return a.ODataType == FileAttachmentType
}

// Decode returns the attachment content.
func (a Attachment) Decode() ([]byte, error) {
	if base64.StdEncoding.DecodedLen(len(a.ContentBytes)) > MaxAttachmentSize {
		return nil, fmt.Errorf("attachment %s exceeds maximum size %d", a.Name, MaxAttachmentSize)
	}

	data, err := base64.StdEncoding.DecodeString(a.ContentBytes)
	if err != nil {
		// Try with URL encoding if standard encoding fails
		data, err = base64.URLEncoding.DecodeString(a.ContentBytes)
		if err != nil {
			return nil, fmt.Errorf("failed to decode attachment %s: %w", a.Name, err)
		}
	}
	return data, nil
}

// SanitizeFilename sanitizes a filename to prevent path traversal attacks
func SanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "/", "_")
	filename = strings.ReplaceAll(filename, "\\", "_")
	filename = strings.ReplaceAll(filename, "..", "_")
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return "attachment"
	}
	return filename
}

// UniqueFilename returns <stem>_<uuid><ext> for the sanitized name, so that
// attachments with identical names never collide on disk.
func UniqueFilename(name string) string {
	return uniqueFilename(name, uuid.NewString())
}

func uniqueFilename(name, id string) string {
	name = SanitizeFilename(name)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if stem == "" {
		// dotfiles such as ".env" have no extension
		stem, ext = ext, ""
	}
	return stem + "_" + id + ext
}
