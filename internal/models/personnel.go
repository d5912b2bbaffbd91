package models

// Provenance identifies which store receives edits or deletes issued
// against a unified entry.
type Provenance string

const (
	ProvenanceDirectory Provenance = "directory"
	ProvenanceAccount   Provenance = "account"
)

// UnifiedPersonView is the deduplicated presentation of a single person
// across the directory and account stores. It is materialized on every
// reconciliation pass and never persisted.
type UnifiedPersonView struct {
	IdentityKey string     `json:"identity_key"`
	DisplayName string     `json:"display_name"`
	Designation *string    `json:"designation,omitempty"`
	Subject     *string    `json:"subject,omitempty"`
	Email       string     `json:"contact_email"`
	Phone       *string    `json:"contact_phone,omitempty"`
	PhotoURL    *string    `json:"photo_ref,omitempty"`
	Provenance  Provenance `json:"provenance"`
	SourceID    string     `json:"source_id"`
	DirectoryID string     `json:"directory_id,omitempty"`
	AccountID   string     `json:"account_id,omitempty"`
}
