package services

import (
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/G9999/medical-experts-api/models"
)

// Affiliation ist eine Zusammenfassung der Institutionsverknüpfungen
// eines Experten je Institutionskategorie.
type Affiliation struct {
	AffiliationType string `json:"affiliation_type"`
	Total           int64  `json:"total"`
}

// AffiliationRow ist eine einzelne Institutionsverknüpfung in der
// Detailansicht einer Kategorie.
type AffiliationRow struct {
	Position           string `json:"position"`
	HospitalUniversity string `json:"hospital_university"`
	Department         string `json:"department"`
	InstitutionSubtype string `json:"institution_subtype"`
	PastPosition       bool   `json:"past_position"`
	Year               string `json:"year"`
	City               string `json:"city"`
	Country            string `json:"country"`
}

// CompanyCooperation ist die Summe der Zuwendungen eines Unternehmens an
// einen Experten in einem Meldejahr.
type CompanyCooperation struct {
	InstitutionOID string  `json:"institution_oid" gorm:"column:institution_oid"`
	Institution    string  `json:"institution"`
	Year           string  `json:"year"`
	TotalAmount    float64 `json:"total_amount"`
}

// NatureOfPaymentCooperation ist die Summe der Zuwendungen an einen
// Experten je Zuwendungsart, über alle Jahre.
type NatureOfPaymentCooperation struct {
	NatureOfPayment string  `json:"nature_of_payment"`
	TotalAmount     float64 `json:"total_amount"`
}

// Cooperation ist eine einzelne gemeldete Zuwendung in der Detailansicht.
type Cooperation struct {
	NatureOfPayment string   `json:"nature_of_payment"`
	Year            string   `json:"year"`
	Institution     string   `json:"institution"`
	Amount          *float64 `json:"amount"`
	Currency        string   `json:"currency"`
}

// AffiliationService fasst die Institutionsverknüpfungen und die
// gemeldeten Zuwendungen eines Experten zusammen.
type AffiliationService struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

// NewAffiliationService erstellt eine neue Instanz des AffiliationService.
func NewAffiliationService(db *gorm.DB, logger *zap.Logger) *AffiliationService {
	return &AffiliationService{DB: db, Logger: logger}
}

// Affiliations liefert immer genau drei Kategorien in fester Reihenfolge,
// auch wenn eine davon leer ist. Verknüpfungen ohne Institution oder ohne
// Subtyp zählen in keine Kategorie.
func (s *AffiliationService) Affiliations(expertID uint) ([]Affiliation, error) {
	affiliations := make([]Affiliation, 0, 3)
	for _, bucket := range []string{"universities", "hospitals", "associations"} {
		q, err := s.bucket(expertID, bucket)
		if err != nil {
			return nil, err
		}
		var total int64
		if err := q.Count(&total).Error; err != nil {
			return nil, err
		}
		affiliations = append(affiliations, Affiliation{
			AffiliationType: bucket,
			Total:           total,
		})
	}
	return affiliations, nil
}

// AffiliationRows liefert die einzelnen Verknüpfungen einer Kategorie in
// Einfügereihenfolge.
func (s *AffiliationService) AffiliationRows(expertID uint, bucket string) ([]AffiliationRow, error) {
	q, err := s.bucket(expertID, bucket)
	if err != nil {
		return nil, err
	}

	rows := []AffiliationRow{}
	err = q.
		Joins("LEFT JOIN medical_expert_institution_positions ON medical_expert_institution_positions.id = medical_expert_institutions.position_id").
		Joins("LEFT JOIN countries ON countries.id = institutions.country_id").
		Select("COALESCE(medical_expert_institution_positions.name, '') AS position, " +
			"institutions.hospital_university AS hospital_university, " +
			"institutions.department AS department, " +
			"institution_subtypes.name AS institution_subtype, " +
			"medical_expert_institutions.past_position AS past_position, " +
			"medical_expert_institutions.year AS year, " +
			"institutions.city AS city, " +
			"COALESCE(countries.name, '') AS country").
		Order("medical_expert_institutions.id").
		Scan(&rows).Error
	return rows, err
}

// bucket baut die Grundabfrage einer Institutionskategorie. Die dritte
// Kategorie ist das Komplement der beiden anderen.
func (s *AffiliationService) bucket(expertID uint, bucket string) (*gorm.DB, error) {
	q := s.DB.Model(&models.MedicalExpertInstitution{}).
		Joins("JOIN institutions ON institutions.id = medical_expert_institutions.institution_id").
		Joins("JOIN institution_subtypes ON institution_subtypes.id = institutions.institution_subtype_id").
		Where("medical_expert_institutions.medical_expert_id = ?", expertID)

	switch bucket {
	case "universities":
		return q.Where("institution_subtypes.name IN ?", universitySubtypes), nil
	case "hospitals":
		return q.Where("institution_subtypes.name IN ?", hospitalSubtypes), nil
	case "associations":
		named := append(append([]string{}, universitySubtypes...), hospitalSubtypes...)
		return q.Where("institution_subtypes.name NOT IN ?", named), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, bucket)
	}
}

// reportingYears liefert das gleitende Meldefenster: das laufende Jahr
// und die fünf Vorjahre, als Zeichenketten wie in der Quelle.
func reportingYears(now time.Time) []string {
	years := make([]string, 0, 6)
	for y := now.Year(); y > now.Year()-6; y-- {
		years = append(years, strconv.Itoa(y))
	}
	return years
}

// CooperationsPerCompany summiert die Zuwendungen je Unternehmen und
// Meldejahr innerhalb des gleitenden Sechsjahresfensters. Nur
// Institutionen mit Subtyp Company und Zeilen mit Betrag zählen.
func (s *AffiliationService) CooperationsPerCompany(expertID uint) ([]CompanyCooperation, error) {
	rows := []CompanyCooperation{}
	err := s.DB.Model(&models.MedicalExpertInstitutionCOI{}).
		Joins("JOIN institutions ON institutions.id = medical_expert_institution_coi.institution_id").
		Joins("JOIN institution_subtypes ON institution_subtypes.id = institutions.institution_subtype_id").
		Where("medical_expert_institution_coi.medical_expert_id = ?", expertID).
		Where("medical_expert_institution_coi.year IN ?", reportingYears(time.Now())).
		Where("institution_subtypes.name = ?", SubtypeCompany).
		Where("medical_expert_institution_coi.amount IS NOT NULL").
		Select("institutions.oid AS institution_oid, " +
			"institutions.hospital_university AS institution, " +
			"medical_expert_institution_coi.year AS year, " +
			"SUM(medical_expert_institution_coi.amount) AS total_amount").
		Group("institutions.oid, institutions.hospital_university, medical_expert_institution_coi.year").
		Order("medical_expert_institution_coi.year DESC, institutions.hospital_university, total_amount").
		Scan(&rows).Error
	return rows, err
}

// CooperationsPerNatureOfPayment summiert die Zuwendungen je
// Zuwendungsart, ohne Jahresfenster. Zeilen ohne Betrag oder ohne
// Zuwendungsart bleiben außen vor.
func (s *AffiliationService) CooperationsPerNatureOfPayment(expertID uint) ([]NatureOfPaymentCooperation, error) {
	rows := []NatureOfPaymentCooperation{}
	err := s.DB.Model(&models.MedicalExpertInstitutionCOI{}).
		Joins("JOIN institutions ON institutions.id = medical_expert_institution_coi.institution_id").
		Joins("JOIN institution_subtypes ON institution_subtypes.id = institutions.institution_subtype_id").
		Joins("JOIN nature_of_payments ON nature_of_payments.id = medical_expert_institution_coi.nature_of_payment_id").
		Where("medical_expert_institution_coi.medical_expert_id = ?", expertID).
		Where("institution_subtypes.name = ?", SubtypeCompany).
		Where("medical_expert_institution_coi.amount IS NOT NULL").
		Select("nature_of_payments.name AS nature_of_payment, " +
			"SUM(medical_expert_institution_coi.amount) AS total_amount").
		Group("nature_of_payments.name").
		Order("total_amount, nature_of_payments.name").
		Scan(&rows).Error
	return rows, err
}

// Cooperations liefert die einzelnen gemeldeten Zuwendungen eines
// Experten bei Unternehmen, aufsteigend nach Meldejahr.
func (s *AffiliationService) Cooperations(expertID uint) ([]Cooperation, error) {
	rows := []Cooperation{}
	err := s.DB.Model(&models.MedicalExpertInstitutionCOI{}).
		Joins("JOIN institutions ON institutions.id = medical_expert_institution_coi.institution_id").
		Joins("JOIN institution_subtypes ON institution_subtypes.id = institutions.institution_subtype_id").
		Joins("LEFT JOIN nature_of_payments ON nature_of_payments.id = medical_expert_institution_coi.nature_of_payment_id").
		Joins("LEFT JOIN currencies ON currencies.id = medical_expert_institution_coi.currency_id").
		Where("medical_expert_institution_coi.medical_expert_id = ?", expertID).
		Where("institution_subtypes.name = ?", SubtypeCompany).
		Select("COALESCE(nature_of_payments.name, '') AS nature_of_payment, " +
			"medical_expert_institution_coi.year AS year, " +
			"institutions.hospital_university AS institution, " +
			"medical_expert_institution_coi.amount AS amount, " +
			"COALESCE(currencies.name, '') AS currency").
		Order("medical_expert_institution_coi.year").
		Scan(&rows).Error
	return rows, err
}
