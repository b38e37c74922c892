package models

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MedicalExpert repräsentiert eine Person des Gesundheitswesens samt der
// denormalisierten Zähler über ihre Verknüpfungen.
type MedicalExpert struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	OID string `json:"oid" gorm:"column:oid;index"`

	FirstName    string `json:"first_name" gorm:"not null"`
	MiddleName   string `json:"middle_name,omitempty"`
	LastName     string `json:"last_name" gorm:"not null"`
	OriginalName string `json:"original_name,omitempty"`

	DegreeID     *uint         `json:"degree_id,omitempty"`
	Degree       *Degree       `json:"degree,omitempty"`
	ProfessionID *uint         `json:"profession_id,omitempty"`
	Profession   *Profession   `json:"profession,omitempty"`
	GenderID     *uint         `json:"gender_id,omitempty"`
	Gender       *PersonGender `json:"gender,omitempty"`

	// Fachgebiete als flache JSON-Liste
	Specialties datatypes.JSON `json:"specialties,omitempty" gorm:"type:jsonb"`

	FocusAreas            string `json:"focus_areas,omitempty" gorm:"type:text"`
	YearOfBirth           *int   `json:"year_of_birth,omitempty"`
	CV                    string `json:"cv,omitempty"`
	Email                 string `json:"email,omitempty"`
	PhotoURL              string `json:"photo_url,omitempty"`
	NPINumber             string `json:"npi_number,omitempty"`
	OtherIDRegisterNumber string `json:"other_id_register_number,omitempty"`

	SourceID string `json:"source_id,omitempty"`
	Source   string `json:"source,omitempty"`

	City      string   `json:"city,omitempty"`
	CountryID *uint    `json:"country_id,omitempty"`
	Country   *Country `json:"country,omitempty"`

	Comment string `json:"comment,omitempty" gorm:"type:text"`

	// Zähler, werden ausschließlich von services.CounterService gepflegt
	NumberLinkedClinicalTrials                 uint `json:"number_linked_clinical_trials" gorm:"default:0"`
	NumberLinkedInstitutions                   uint `json:"number_linked_institutions" gorm:"default:0"`
	NumberLinkedInstitutionsPrimaryAffiliation uint `json:"number_linked_institutions_primary_affiliation" gorm:"default:0"`
	NumberLinkedInstitutionsSubtypeCompany     uint `json:"number_linked_institutions_subtype_company" gorm:"default:0"`
	NumberLinkedInstitutionsCOI                uint `json:"number_linked_institutions_coi" gorm:"column:number_linked_institutions_coi;default:0"`
	NumberLinkedEvents                         uint `json:"number_linked_events" gorm:"default:0"`
	NumberLinkedPublications                   uint `json:"number_linked_publications" gorm:"default:0"`
}

// CombinedName liefert den Anzeigenamen, mit Zweitnamen falls vorhanden.
func (m *MedicalExpert) CombinedName() string {
	if m.MiddleName != "" {
		return fmt.Sprintf("%s %s %s", m.FirstName, m.MiddleName, m.LastName)
	}
	return fmt.Sprintf("%s %s", m.FirstName, m.LastName)
}

// AfterCreate vergibt die OID nach dem ersten Insert, sobald die
// Datenbank-ID bekannt ist.
func (m *MedicalExpert) AfterCreate(tx *gorm.DB) error {
	if m.OID != "" {
		return nil
	}
	m.OID = FormatOID("me", m.ID)
	return tx.Model(m).UpdateColumn("oid", m.OID).Error
}
