package models

import (
	"time"

	"gorm.io/gorm"
)

// Event repräsentiert einen Kongress, eine Tagung oder eine vergleichbare
// Veranstaltung.
type Event struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	OID string `json:"oid" gorm:"column:oid;index"`

	Name         string `json:"name" gorm:"not null"`
	OriginalName string `json:"original_name,omitempty"`

	EventSubtypeID *uint         `json:"event_subtype_id,omitempty"`
	EventSubtype   *EventSubtype `json:"event_subtype,omitempty"`

	City      string   `json:"city,omitempty"`
	CountryID *uint    `json:"country_id,omitempty"`
	Country   *Country `json:"country,omitempty"`

	StartDateDay   *int   `json:"start_date_day,omitempty"`
	StartDateMonth string `json:"start_date_month,omitempty"`
	StartDateYear  *int   `json:"start_date_year,omitempty"`
	EndDateDay     *int   `json:"end_date_day,omitempty"`
	EndDateMonth   string `json:"end_date_month,omitempty"`
	EndDateYear    *int   `json:"end_date_year,omitempty"`

	Weblink        string `json:"weblink,omitempty"`
	Program        string `json:"program,omitempty" gorm:"type:text"`
	ProgramWeblink string `json:"program_weblink,omitempty"`
	Comment        string `json:"comment,omitempty" gorm:"type:text"`
}

// AfterCreate vergibt die OID nach dem ersten Insert.
func (e *Event) AfterCreate(tx *gorm.DB) error {
	if e.OID != "" {
		return nil
	}
	e.OID = FormatOID("e", e.ID)
	return tx.Model(e).UpdateColumn("oid", e.OID).Error
}
