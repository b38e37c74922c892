package models

import (
	"time"

	"gorm.io/gorm"
)

// Intervention repräsentiert ein Medikament, Medizinprodukt oder eine
// sonstige Behandlungsform, die in Studien untersucht wird.
type Intervention struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	OID string `json:"oid" gorm:"column:oid;index"`

	Name string `json:"name" gorm:"not null"`

	InterventionSubtypeID *uint                `json:"intervention_subtype_id,omitempty"`
	InterventionSubtype   *InterventionSubtype `json:"intervention_subtype,omitempty"`

	INNCommonName   string `json:"inn_common_name,omitempty" gorm:"column:inn_common_name"`
	ActiveSubstance string `json:"active_substance,omitempty" gorm:"type:text"`
	ATCNumber       string `json:"atc_number,omitempty" gorm:"column:atc_number"`
	Strength        string `json:"strength,omitempty"`
	Weblink         string `json:"weblink,omitempty"`
	Comment         string `json:"comment,omitempty"`
}

// AfterCreate vergibt die OID nach dem ersten Insert.
func (i *Intervention) AfterCreate(tx *gorm.DB) error {
	if i.OID != "" {
		return nil
	}
	i.OID = FormatOID("i", i.ID)
	return tx.Model(i).UpdateColumn("oid", i.OID).Error
}

// ActiveIngredient repräsentiert einen Wirkstoff.
type ActiveIngredient struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	OID string `json:"oid" gorm:"column:oid;index"`

	Name        string `json:"name" gorm:"not null"`
	Description string `json:"description,omitempty" gorm:"type:text"`
	Weblink     string `json:"weblink,omitempty"`
	Comment     string `json:"comment,omitempty"`
}

// AfterCreate vergibt die OID nach dem ersten Insert.
func (a *ActiveIngredient) AfterCreate(tx *gorm.DB) error {
	if a.OID != "" {
		return nil
	}
	a.OID = FormatOID("ai", a.ID)
	return tx.Model(a).UpdateColumn("oid", a.OID).Error
}
