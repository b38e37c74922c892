package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ClinicalTrial repräsentiert eine klinische Studie.
type ClinicalTrial struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	OID string `json:"oid" gorm:"column:oid;index"`

	BriefPublicTitle        string `json:"brief_public_title,omitempty" gorm:"type:text"`
	OfficialScientificTitle string `json:"official_scientific_title,omitempty" gorm:"type:text"`
	Acronym                 string `json:"acronym,omitempty"`

	// Studien-ID in der Primärquelle, z.B. die NCT-Nummer
	CTIDInMainSource   string `json:"ct_id_in_main_source,omitempty" gorm:"column:ct_id_in_main_source;index"`
	OtherStudyIDs      string `json:"other_study_ids,omitempty"`
	MainSourceDatabase string `json:"main_source_database,omitempty"`

	StartDateDay   *int   `json:"start_date_day,omitempty"`
	StartDateMonth string `json:"start_date_month,omitempty"`
	StartDateYear  *int   `json:"start_date_year,omitempty"`
	EndDateDay     *int   `json:"end_date_day,omitempty"`
	EndDateMonth   string `json:"end_date_month,omitempty"`
	EndDateYear    *int   `json:"end_date_year,omitempty"`

	// Studienphasen als flache JSON-Liste, z.B. ["Phase 1","Phase 2"]
	StudyPhases datatypes.JSON `json:"study_phases,omitempty" gorm:"type:jsonb"`

	ConditionsDiseases  string `json:"conditions_diseases,omitempty" gorm:"type:text"`
	BriefSummary        string `json:"brief_summary,omitempty" gorm:"type:text"`
	EstimatedEnrollment string `json:"estimated_enrollment,omitempty"`
	Weblink             string `json:"weblink,omitempty"`
	Comment             string `json:"comment,omitempty" gorm:"type:text"`

	// Zähler, werden ausschließlich von services.CounterService gepflegt
	NumberLinkedMedicalExperts uint `json:"number_linked_medical_experts" gorm:"default:0"`
	NumberLinkedInterventions  uint `json:"number_linked_interventions" gorm:"default:0"`
	NumberLinkedInstitutions   uint `json:"number_linked_institutions" gorm:"default:0"`
}

// AfterCreate vergibt die OID nach dem ersten Insert.
func (t *ClinicalTrial) AfterCreate(tx *gorm.DB) error {
	if t.OID != "" {
		return nil
	}
	t.OID = FormatOID("ct", t.ID)
	return tx.Model(t).UpdateColumn("oid", t.OID).Error
}
