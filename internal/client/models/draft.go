package models

import "github.com/dmitrijs2005/procura/internal/filex"

// Attachment is a local file selected for upload.
type Attachment struct {
	Path        string
	Name        string
	Size        int64
	ContentType string
}

// AttachmentFromFile inspects path and returns an Attachment for it.
func AttachmentFromFile(path string) (*Attachment, error) {
	info, err := filex.Inspect(path)
	if err != nil {
		return nil, err
	}
	return &Attachment{Path: info.Path, Name: info.Name, Size: info.Size, ContentType: info.ContentType}, nil
}

// CreateDraft is the create-request form payload.
type CreateDraft struct {
	Title        string
	Description  string
	Amount       string
	ProformaFile *Attachment
}

// UpdateDraft is a partial update; empty fields are not sent.
type UpdateDraft struct {
	Title        string
	Description  string
	Amount       string
	ProformaFile *Attachment
}

// Empty reports whether the update carries no changes.
func (u UpdateDraft) Empty() bool {
	return u.Title == "" && u.Description == "" && u.Amount == "" && u.ProformaFile == nil
}

// ApproveResult is the approve endpoint response.
type ApproveResult struct {
	SuccessMessage string  `json:"successMessage"`
	StatusCode     int     `json:"status_code"`
	POGenerated    bool    `json:"po_generated"`
	POFile         *string `json:"po_file"`
	POData         *POData `json:"po_data"`
}

// RejectResult is the reject endpoint response.
type RejectResult struct {
	SuccessMessage string `json:"successMessage"`
	StatusCode     int    `json:"status_code"`
}

// ReceiptResult is the submit-receipt endpoint response.
type ReceiptResult struct {
	SuccessMessage   string                   `json:"successMessage"`
	StatusCode       int                      `json:"status_code"`
	ValidationStatus ValidationStatus         `json:"validation_status"`
	ValidationResult *ReceiptValidationResult `json:"validation_result,omitempty"`
	Error            string                   `json:"error,omitempty"`
}
