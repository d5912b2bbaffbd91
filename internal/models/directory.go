package models

import "time"

// DirectoryRecord is a teacher's professional profile, independent of login
// capability. LinkedUser carries the bind reference to an account record.
type DirectoryRecord struct {
	ID          string     `db:"id" json:"id"`
	FullName    string     `db:"full_name" json:"full_name"`
	Designation *string    `db:"designation" json:"designation,omitempty"`
	Subject     *string    `db:"subject" json:"subject,omitempty"`
	Email       string     `db:"email" json:"email"`
	Phone       *string    `db:"phone" json:"phone,omitempty"`
	PhotoURL    *string    `db:"photo_url" json:"photo_url,omitempty"`
	Intro       *string    `db:"intro" json:"intro,omitempty"`
	LinkedUser  LinkMarker `db:"linked_user_id" json:"linked_user_id"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// DirectoryFilter captures filtering options for listing directory records.
type DirectoryFilter struct {
	Search    string
	Linked    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
