package models

import (
	"time"

	"gorm.io/gorm"
)

// Publication repräsentiert einen Fachartikel oder eine sonstige
// Veröffentlichung.
type Publication struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	OID string `json:"oid" gorm:"column:oid;index"`

	Name         string `json:"name" gorm:"not null;type:text"`
	OriginalName string `json:"original_name,omitempty"`

	PublicationSubtypeID *uint               `json:"publication_subtype_id,omitempty"`
	PublicationSubtype   *PublicationSubtype `json:"publication_subtype,omitempty"`

	PrimarySourceID  string `json:"primary_source_id,omitempty" gorm:"index"`
	PublicationMonth string `json:"publication_month,omitempty"`
	PublicationYear  *int   `json:"publication_year,omitempty"`
	Journal          string `json:"journal,omitempty"`
	AuthorsList      string `json:"authors_list,omitempty" gorm:"type:text"`
	Weblink          string `json:"weblink,omitempty"`
	Comment          string `json:"comment,omitempty" gorm:"type:text"`
}

// AfterCreate vergibt die OID nach dem ersten Insert.
func (p *Publication) AfterCreate(tx *gorm.DB) error {
	if p.OID != "" {
		return nil
	}
	p.OID = FormatOID("p", p.ID)
	return tx.Model(p).UpdateColumn("oid", p.OID).Error
}
