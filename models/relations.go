package models

import (
	"time"
)

// Verknüpfungstabellen zwischen den Kern-Entitäten. Alle Fremdschlüssel
// sind nullable, weil Datensätze aus unvollständigen Quellen auch mit nur
// einer Seite der Verknüpfung angelegt werden.
//
// Schreibzugriffe laufen über services.CounterService, damit die
// denormalisierten Zähler der betroffenen Entitäten nachgezogen werden.

// MedicalExpertInstitution verknüpft einen Experten mit einer Institution
// (Anstellung, Mitgliedschaft, Affiliation).
type MedicalExpertInstitution struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	MedicalExpertID *uint          `json:"medical_expert_id" gorm:"index"`
	MedicalExpert   *MedicalExpert `json:"medical_expert,omitempty"`
	InstitutionID   *uint          `json:"institution_id" gorm:"index"`
	Institution     *Institution   `json:"institution,omitempty"`

	PositionID *uint                             `json:"position_id,omitempty"`
	Position   *MedicalExpertInstitutionPosition `json:"position,omitempty"`

	PrimaryAffiliation bool   `json:"primary_affiliation"`
	PastPosition       bool   `json:"past_position" gorm:"default:true"`
	Year               string `json:"year,omitempty"`
	Weblink            string `json:"weblink,omitempty" gorm:"type:text"`
	Comment            string `json:"comment,omitempty" gorm:"type:text"`
}

// MedicalExpertInstitutionCOI ist eine gemeldete Zuwendung einer
// Institution an einen Experten (Conflict of Interest).
type MedicalExpertInstitutionCOI struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	MedicalExpertID *uint          `json:"medical_expert_id" gorm:"index"`
	MedicalExpert   *MedicalExpert `json:"medical_expert,omitempty"`
	InstitutionID   *uint          `json:"institution_id" gorm:"index"`
	Institution     *Institution   `json:"institution,omitempty"`

	NatureOfPaymentID *uint            `json:"nature_of_payment_id,omitempty"`
	NatureOfPayment   *NatureOfPayment `json:"nature_of_payment,omitempty"`
	FormOfPaymentID   *uint            `json:"form_of_payment_id,omitempty"`
	FormOfPayment     *FormOfPayment   `json:"form_of_payment,omitempty"`
	CurrencyID        *uint            `json:"currency_id,omitempty"`
	Currency          *Currency        `json:"currency,omitempty"`

	// Meldejahr, in der Quelle als Zeichenkette geführt
	Year string `json:"year" gorm:"not null;index"`

	Amount  *float64 `json:"amount,omitempty" gorm:"type:numeric(10,2)"`
	CTID    string   `json:"ct_id,omitempty" gorm:"column:ct_id"`
	Weblink string   `json:"weblink,omitempty" gorm:"type:text"`
	Comment string   `json:"comment,omitempty" gorm:"type:text"`
}

// TableName gibt explizit den Tabellennamen an.
func (MedicalExpertInstitutionCOI) TableName() string {
	return "medical_expert_institution_coi"
}

// MedicalExpertClinicalTrial verknüpft einen Experten mit einer Studie,
// typischerweise als Prüfarzt.
type MedicalExpertClinicalTrial struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	MedicalExpertID *uint          `json:"medical_expert_id" gorm:"index"`
	MedicalExpert   *MedicalExpert `json:"medical_expert,omitempty"`
	ClinicalTrialID *uint          `json:"clinical_trial_id" gorm:"index"`
	ClinicalTrial   *ClinicalTrial `json:"clinical_trial,omitempty"`

	PositionID *uint                               `json:"position_id,omitempty"`
	Position   *MedicalExpertClinicalTrialPosition `json:"position,omitempty"`

	Weblink string `json:"weblink,omitempty" gorm:"type:text"`
	Comment string `json:"comment,omitempty" gorm:"type:text"`
}

// MedicalExpertEvent verknüpft einen Experten mit einer Veranstaltung,
// typischerweise als Referent.
type MedicalExpertEvent struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	MedicalExpertID *uint          `json:"medical_expert_id" gorm:"index"`
	MedicalExpert   *MedicalExpert `json:"medical_expert,omitempty"`
	EventID         *uint          `json:"event_id" gorm:"index"`
	Event           *Event         `json:"event,omitempty"`

	PositionID *uint                       `json:"position_id,omitempty"`
	Position   *MedicalExpertEventPosition `json:"position,omitempty"`

	Talks    string `json:"talks,omitempty" gorm:"type:text"`
	Sessions string `json:"sessions,omitempty" gorm:"type:text"`
	Posters  string `json:"posters,omitempty" gorm:"type:text"`
	Weblink  string `json:"weblink,omitempty" gorm:"type:text"`
	Comment  string `json:"comment,omitempty" gorm:"type:text"`
}

// MedicalExpertPublication verknüpft einen Experten mit einer
// Veröffentlichung, typischerweise als Autor.
type MedicalExpertPublication struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	MedicalExpertID *uint          `json:"medical_expert_id" gorm:"index"`
	MedicalExpert   *MedicalExpert `json:"medical_expert,omitempty"`
	PublicationID   *uint          `json:"publication_id" gorm:"index"`
	Publication     *Publication   `json:"publication,omitempty"`

	PositionID *uint                             `json:"position_id,omitempty"`
	Position   *MedicalExpertPublicationPosition `json:"position,omitempty"`

	Weblink string `json:"weblink,omitempty" gorm:"type:text"`
	Comment string `json:"comment,omitempty" gorm:"type:text"`
}

// ClinicalTrialInstitution verknüpft eine Studie mit einer beteiligten
// Institution (Sponsor, Studienzentrum).
type ClinicalTrialInstitution struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ClinicalTrialID *uint          `json:"clinical_trial_id" gorm:"index"`
	ClinicalTrial   *ClinicalTrial `json:"clinical_trial,omitempty"`
	InstitutionID   *uint          `json:"institution_id" gorm:"index"`
	Institution     *Institution   `json:"institution,omitempty"`

	RelationshipTypeID *uint                                     `json:"relationship_type_id,omitempty"`
	RelationshipType   *ClinicalTrialInstitutionRelationshipType `json:"relationship_type,omitempty"`
}

// ClinicalTrialIntervention verknüpft eine Studie mit einer untersuchten
// Intervention.
type ClinicalTrialIntervention struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ClinicalTrialID *uint          `json:"clinical_trial_id" gorm:"index"`
	ClinicalTrial   *ClinicalTrial `json:"clinical_trial,omitempty"`
	InterventionID  *uint          `json:"intervention_id" gorm:"index"`
	Intervention    *Intervention  `json:"intervention,omitempty"`

	RelationshipTypeID *uint                                      `json:"relationship_type_id,omitempty"`
	RelationshipType   *ClinicalTrialInterventionRelationshipType `json:"relationship_type,omitempty"`
}

// ClinicalTrialActiveIngredient verknüpft eine Studie mit einem Wirkstoff.
// Pflegt keine Zähler.
type ClinicalTrialActiveIngredient struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ClinicalTrialID    *uint             `json:"clinical_trial_id" gorm:"index"`
	ClinicalTrial      *ClinicalTrial    `json:"clinical_trial,omitempty"`
	ActiveIngredientID *uint             `json:"active_ingredient_id" gorm:"index"`
	ActiveIngredient   *ActiveIngredient `json:"active_ingredient,omitempty"`
}

// EventInstitution verknüpft eine Veranstaltung mit einer Institution,
// z.B. dem Veranstalter. Pflegt keine Zähler.
type EventInstitution struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	EventID       *uint        `json:"event_id" gorm:"index"`
	Event         *Event       `json:"event,omitempty"`
	InstitutionID *uint        `json:"institution_id" gorm:"index"`
	Institution   *Institution `json:"institution,omitempty"`
}

// PublicationClinicalTrial verknüpft eine Veröffentlichung mit der Studie,
// über die sie berichtet. Pflegt keine Zähler.
type PublicationClinicalTrial struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PublicationID   *uint          `json:"publication_id" gorm:"index"`
	Publication     *Publication   `json:"publication,omitempty"`
	ClinicalTrialID *uint          `json:"clinical_trial_id" gorm:"index"`
	ClinicalTrial   *ClinicalTrial `json:"clinical_trial,omitempty"`
}

// InstitutionInstitution verknüpft eine Institution mit einer anderen,
// z.B. eine Tochtergesellschaft mit ihrem Mutterkonzern. Der Zähler wird
// nur auf der Quellseite (institution_id) gepflegt.
type InstitutionInstitution struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	InstitutionID        *uint        `json:"institution_id" gorm:"index"`
	Institution          *Institution `json:"institution,omitempty" gorm:"foreignKey:InstitutionID"`
	RelatedInstitutionID *uint        `json:"related_institution_id" gorm:"index"`
	RelatedInstitution   *Institution `json:"related_institution,omitempty" gorm:"foreignKey:RelatedInstitutionID"`

	RelationshipTypeID *uint                                   `json:"relationship_type_id,omitempty"`
	RelationshipType   *InstitutionInstitutionRelationshipType `json:"relationship_type,omitempty"`
}
