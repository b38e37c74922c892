package services

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/G9999/medical-experts-api/models"
)

// NameTotal ist eine Gruppenzeile einer Statistik, z.B. ein Land mit der
// Anzahl der Prüfärzte dort.
type NameTotal struct {
	Name  string `json:"name"`
	Total int64  `json:"total"`
}

// StatsService beantwortet Gruppierungsabfragen über die Expertenlisten.
// Die Listen selbst filtern auf die denormalisierten Zähler: Prüfärzte
// sind Experten mit verknüpften Studien, Referenten solche mit
// verknüpften Veranstaltungen.
type StatsService struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

// NewStatsService erstellt eine neue Instanz des StatsService.
func NewStatsService(db *gorm.DB, logger *zap.Logger) *StatsService {
	return &StatsService{DB: db, Logger: logger}
}

func (s *StatsService) groupByCountry(counterColumn string) ([]NameTotal, error) {
	rows := []NameTotal{}
	err := s.DB.Model(&models.MedicalExpert{}).
		Joins("JOIN countries ON countries.id = medical_experts.country_id").
		Where(counterColumn+" > 0").
		Select("countries.name AS name, COUNT(*) AS total").
		Group("countries.name").
		Order("total, countries.name").
		Scan(&rows).Error
	return rows, err
}

func (s *StatsService) groupByProfession(counterColumn string) ([]NameTotal, error) {
	rows := []NameTotal{}
	err := s.DB.Model(&models.MedicalExpert{}).
		Joins("JOIN professions ON professions.id = medical_experts.profession_id").
		Where(counterColumn+" > 0").
		Select("professions.name AS name, COUNT(*) AS total").
		Group("professions.name").
		Order("total, professions.name").
		Scan(&rows).Error
	return rows, err
}

// InvestigatorsPerCountry gruppiert die Prüfärzte nach Land.
func (s *StatsService) InvestigatorsPerCountry() ([]NameTotal, error) {
	return s.groupByCountry("number_linked_clinical_trials")
}

// InvestigatorsPerProfession gruppiert die Prüfärzte nach Beruf.
func (s *StatsService) InvestigatorsPerProfession() ([]NameTotal, error) {
	return s.groupByProfession("number_linked_clinical_trials")
}

// SpeakersPerCountry gruppiert die Referenten nach Land.
func (s *StatsService) SpeakersPerCountry() ([]NameTotal, error) {
	return s.groupByCountry("number_linked_events")
}

// SpeakersPerProfession gruppiert die Referenten nach Beruf.
func (s *StatsService) SpeakersPerProfession() ([]NameTotal, error) {
	return s.groupByProfession("number_linked_events")
}

// PublicationsPerYear gruppiert die Veröffentlichungen eines Experten nach
// Erscheinungsjahr, neueste zuerst. Veröffentlichungen ohne Jahr fehlen.
func (s *StatsService) PublicationsPerYear(expertID uint) ([]NameTotal, error) {
	rows := []NameTotal{}
	err := s.DB.Model(&models.MedicalExpertPublication{}).
		Joins("JOIN publications ON publications.id = medical_expert_publications.publication_id").
		Where("medical_expert_publications.medical_expert_id = ?", expertID).
		Where("publications.publication_year IS NOT NULL").
		Select("publications.publication_year AS name, COUNT(*) AS total").
		Group("publications.publication_year").
		Order("publications.publication_year DESC").
		Scan(&rows).Error
	return rows, err
}

// EventsPerPosition gruppiert die Veranstaltungsteilnahmen eines Experten
// nach Position. Teilnahmen ohne Position fehlen.
func (s *StatsService) EventsPerPosition(expertID uint) ([]NameTotal, error) {
	rows := []NameTotal{}
	err := s.DB.Model(&models.MedicalExpertEvent{}).
		Joins("JOIN medical_expert_event_positions ON medical_expert_event_positions.id = medical_expert_events.position_id").
		Where("medical_expert_events.medical_expert_id = ?", expertID).
		Select("medical_expert_event_positions.name AS name, COUNT(*) AS total").
		Group("medical_expert_event_positions.name").
		Order("total, medical_expert_event_positions.name").
		Scan(&rows).Error
	return rows, err
}
