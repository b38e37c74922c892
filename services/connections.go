package services

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/G9999/medical-experts-api/models"
)

// ErrUnknownCategory wird zurückgegeben, wenn eine Verbindungs- oder
// Affiliationskategorie nicht existiert.
var ErrUnknownCategory = errors.New("unknown category")

// Verbindungskategorien in fester Reihenfolge, wie sie im Profil eines
// Experten angezeigt werden.
var connectionCategories = []struct {
	key   string
	label string
}{
	{"authors", "Authors"},
	{"event_participants", "Event Participants"},
	{"physicians", "Physicians"},
	{"researchers", "Researchers & Co"},
	{"clinical_trial_collaborators", "Investigators"},
}

// Connection ist eine Verbindungskategorie mit der Anzahl der darüber
// erreichbaren anderen Experten.
type Connection struct {
	ConnectionType string `json:"connection_type"`
	Label          string `json:"label"`
	Total          int64  `json:"total"`
}

// ConnectionService beantwortet die Frage, mit welchen anderen Experten
// ein Experte über gemeinsame Publikationen, Veranstaltungen,
// Institutionen oder Studien verbunden ist.
type ConnectionService struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

// NewConnectionService erstellt eine neue Instanz des ConnectionService.
func NewConnectionService(db *gorm.DB, logger *zap.Logger) *ConnectionService {
	return &ConnectionService{DB: db, Logger: logger}
}

// Connections liefert alle Verbindungskategorien eines Experten mit
// deduplizierter Anzahl. Kategorien ohne Treffer werden weggelassen.
func (s *ConnectionService) Connections(expertID uint) ([]Connection, error) {
	connections := []Connection{}
	for _, category := range connectionCategories {
		others, err := s.others(expertID, category.key)
		if err != nil {
			return nil, err
		}
		var total int64
		if err := others.Distinct("medical_expert_id").Count(&total).Error; err != nil {
			return nil, err
		}
		if total > 0 {
			connections = append(connections, Connection{
				ConnectionType: category.key,
				Label:          category.label,
				Total:          total,
			})
		}
	}
	return connections, nil
}

// ConnectedExperts liefert die über eine Kategorie verbundenen Experten,
// dedupliziert und nach ID sortiert.
func (s *ConnectionService) ConnectedExperts(expertID uint, category string) ([]models.MedicalExpert, error) {
	others, err := s.others(expertID, category)
	if err != nil {
		return nil, err
	}
	sub := others.Distinct("medical_expert_id")

	experts := []models.MedicalExpert{}
	err = s.DB.Where("id IN (?)", sub).Order("id").Find(&experts).Error
	return experts, err
}

// others baut die Abfrage über die Verknüpfungszeilen der jeweils anderen
// Experten: zuerst die Zwischenknoten des Ausgangsexperten (Publikationen,
// Veranstaltungen, Institutionen, Studien), dann alle fremden Zeilen, die
// auf dieselben Zwischenknoten zeigen.
func (s *ConnectionService) others(expertID uint, category string) (*gorm.DB, error) {
	switch category {
	case "authors":
		sub := s.DB.Model(&models.MedicalExpertPublication{}).
			Select("publication_id").
			Where("medical_expert_id = ? AND publication_id IS NOT NULL", expertID)
		return s.DB.Model(&models.MedicalExpertPublication{}).
			Where("publication_id IN (?)", sub).
			Where("medical_expert_id IS NOT NULL AND medical_expert_id <> ?", expertID), nil

	case "event_participants":
		sub := s.DB.Model(&models.MedicalExpertEvent{}).
			Select("event_id").
			Where("medical_expert_id = ? AND event_id IS NOT NULL", expertID)
		return s.DB.Model(&models.MedicalExpertEvent{}).
			Where("event_id IN (?)", sub).
			Where("medical_expert_id IS NOT NULL AND medical_expert_id <> ?", expertID), nil

	case "physicians":
		sub := s.physicianInstitutions(expertID, false)
		return s.DB.Model(&models.MedicalExpertInstitution{}).
			Where("institution_id IN (?)", sub).
			Where("medical_expert_id IS NOT NULL AND medical_expert_id <> ?", expertID), nil

	case "researchers":
		sub := s.physicianInstitutions(expertID, true)
		return s.DB.Model(&models.MedicalExpertInstitution{}).
			Where("institution_id IN (?)", sub).
			Where("medical_expert_id IS NOT NULL AND medical_expert_id <> ?", expertID), nil

	case "clinical_trial_collaborators":
		sub := s.DB.Model(&models.MedicalExpertClinicalTrial{}).
			Select("clinical_trial_id").
			Where("medical_expert_id = ? AND clinical_trial_id IS NOT NULL", expertID)
		return s.DB.Model(&models.MedicalExpertClinicalTrial{}).
			Where("clinical_trial_id IN (?)", sub).
			Where("medical_expert_id IS NOT NULL AND medical_expert_id <> ?", expertID), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
}

// physicianInstitutions liefert die Institutionen eines Experten, an denen
// er in ärztlicher Funktion tätig ist: Haus-Subtyp Krankenhaus o.ä. UND
// ärztliche Position. Mit negate kommt das Komplement über denselben
// Zeilen zurück, die Negation gilt dabei für die gesamte Bedingung.
// Zeilen ohne Institution, Subtyp oder Position bleiben in beiden Fällen
// außen vor.
func (s *ConnectionService) physicianInstitutions(expertID uint, negate bool) *gorm.DB {
	q := s.DB.Model(&models.MedicalExpertInstitution{}).
		Select("medical_expert_institutions.institution_id").
		Joins("JOIN institutions ON institutions.id = medical_expert_institutions.institution_id").
		Joins("JOIN institution_subtypes ON institution_subtypes.id = institutions.institution_subtype_id").
		Joins("JOIN medical_expert_institution_positions ON medical_expert_institution_positions.id = medical_expert_institutions.position_id").
		Where("medical_expert_institutions.medical_expert_id = ?", expertID)
	if negate {
		return q.Where("NOT (institution_subtypes.name IN ? AND medical_expert_institution_positions.name IN ?)",
			hospitalSubtypes, physicianPositions)
	}
	return q.Where("institution_subtypes.name IN ? AND medical_expert_institution_positions.name IN ?",
		hospitalSubtypes, physicianPositions)
}
