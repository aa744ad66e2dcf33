// Package documents defines the document and version records served by the
// repository API. Records are immutable snapshots: the client never edits them
// in place.
package documents

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Document is the server's view of a stored document.
type Document struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description,omitempty"`
	FilePath         string     `json:"file_path"`
	AccessLevel      string     `json:"access_level,omitempty"`
	CurrentVersionID string     `json:"current_version_id,omitempty"`
	UploaderID       string     `json:"uploader_id,omitempty"`
	CreatedAt        *Timestamp `json:"created_at,omitempty"`
}

// Validate checks the fields the client relies on.
func (d Document) Validate() error {
	err := validation.ValidateStruct(&d,
		validation.Field(&d.ID, validation.Required),
	)
	if err != nil {
		return fmt.Errorf("%w: document: %v", ErrValidation, err)
	}
	return nil
}

// Version is one numbered, immutable snapshot of a document's file.
type Version struct {
	ID            string     `json:"id"`
	DocumentID    string     `json:"document_id"`
	VersionNumber int        `json:"version_number"`
	Title         string     `json:"title,omitempty"`
	Description   string     `json:"description,omitempty"`
	FilePath      string     `json:"file_path"`
	UploadedBy    string     `json:"uploaded_by,omitempty"`
	UploadedAt    *Timestamp `json:"uploaded_at,omitempty"`
	AccessLevel   string     `json:"access_level,omitempty"`
}

// Validate checks identity and numbering. Version numbers are assigned by the
// server starting at 1.
func (v Version) Validate() error {
	err := validation.ValidateStruct(&v,
		validation.Field(&v.ID, validation.Required),
		validation.Field(&v.VersionNumber, validation.Required, validation.Min(1)),
	)
	if err != nil {
		return fmt.Errorf("%w: version: %v", ErrValidation, err)
	}
	return nil
}

// Label renders the version the way the version list shows it: "v3 - Title".
func (v Version) Label() string {
	if v.Title == "" {
		return fmt.Sprintf("v%d", v.VersionNumber)
	}
	return fmt.Sprintf("v%d - %s", v.VersionNumber, v.Title)
}
