package entity

import (
	"time"

	"stockyard/internal/core/id"
)

// Document is the base type for transactional records
// (sales, stock requests, daily reports).
type Document struct {
	Base

	// Number is a human-readable document number (numerator-assigned)
	Number string `db:"number" json:"number"`

	// Date is the business date of the document
	Date time.Time `db:"date" json:"date"`

	// CreatedBy references the actor who created the document
	CreatedBy id.ID `db:"created_by" json:"createdBy"`
}

// NewDocument creates a new Document dated now.
func NewDocument(createdBy id.ID) Document {
	return Document{
		Base:      NewBase(),
		Date:      time.Now().UTC(),
		CreatedBy: createdBy,
	}
}
