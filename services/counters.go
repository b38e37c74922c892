package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/G9999/medical-experts-api/models"
)

// counterRefreshes zählt, wie oft ein denormalisierter Zähler neu aus der
// Datenbank berechnet wurde.
var counterRefreshes = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "counter_refreshes_total",
		Help: "Total number of denormalized counter recomputations, by counter group.",
	},
	[]string{"counter"},
)

func init() {
	prometheus.MustRegister(counterRefreshes)
}

// CounterService pflegt die denormalisierten Zähler auf MedicalExpert,
// Institution und ClinicalTrial. Alle Schreibzugriffe auf
// Verknüpfungstabellen sollen über diesen Service laufen.
//
// Ein Zähler wird immer komplett neu aus der Datenbank gezählt und nur
// dann geschrieben, wenn sich der Wert tatsächlich geändert hat.
type CounterService struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

// NewCounterService erstellt eine neue Instanz des CounterService.
func NewCounterService(db *gorm.DB, logger *zap.Logger) *CounterService {
	return &CounterService{DB: db, Logger: logger}
}

// counterRef benennt eine Entität, deren Zähler von einer
// Verknüpfungszeile abhängen.
type counterRef struct {
	group   string
	id      *uint
	refresh func(db *gorm.DB, id uint) error
}

// refs liefert für eine Verknüpfungszeile die betroffenen Entitäten.
// Zeilen mit leerem Fremdschlüssel werden beim Auffrischen übersprungen.
func (s *CounterService) refs(row interface{}) []counterRef {
	switch r := row.(type) {
	case *models.MedicalExpertInstitution:
		return []counterRef{
			{"medical_expert_institutions", r.MedicalExpertID, s.refreshExpertInstitutions},
			{"institution_medical_experts", r.InstitutionID, s.refreshInstitutionExperts},
		}
	case *models.MedicalExpertInstitutionCOI:
		return []counterRef{
			{"medical_expert_institutions_coi", r.MedicalExpertID, s.refreshExpertInstitutionsCOI},
			{"institution_medical_experts_coi", r.InstitutionID, s.refreshInstitutionExpertsCOI},
		}
	case *models.MedicalExpertClinicalTrial:
		return []counterRef{
			{"medical_expert_clinical_trials", r.MedicalExpertID, s.refreshExpertClinicalTrials},
			{"clinical_trial_medical_experts", r.ClinicalTrialID, s.refreshTrialExperts},
		}
	case *models.MedicalExpertEvent:
		return []counterRef{
			{"medical_expert_events", r.MedicalExpertID, s.refreshExpertEvents},
		}
	case *models.MedicalExpertPublication:
		return []counterRef{
			{"medical_expert_publications", r.MedicalExpertID, s.refreshExpertPublications},
		}
	case *models.ClinicalTrialInstitution:
		return []counterRef{
			{"clinical_trial_institutions", r.ClinicalTrialID, s.refreshTrialInstitutions},
		}
	case *models.ClinicalTrialIntervention:
		return []counterRef{
			{"clinical_trial_interventions", r.ClinicalTrialID, s.refreshTrialInterventions},
		}
	case *models.InstitutionInstitution:
		return []counterRef{
			{"institution_institutions", r.InstitutionID, s.refreshInstitutionInstitutions},
		}
	default:
		// ClinicalTrialActiveIngredient, EventInstitution und
		// PublicationClinicalTrial pflegen keine Zähler
		return nil
	}
}

func (s *CounterService) refreshAll(db *gorm.DB, refs []counterRef) error {
	for _, ref := range refs {
		if ref.id == nil {
			continue
		}
		if err := ref.refresh(db, *ref.id); err != nil {
			return err
		}
	}
	return nil
}

// Save legt eine Verknüpfungszeile an oder aktualisiert sie und zieht
// danach die Zähler der betroffenen Entitäten nach. Mit suppress lassen
// sich die Zähler unterdrücken, etwa bei Massenimporten.
func (s *CounterService) Save(db *gorm.DB, row interface{}, suppress bool) error {
	if err := db.Save(row).Error; err != nil {
		return err
	}
	if suppress {
		return nil
	}
	return s.refreshAll(db, s.refs(row))
}

// Delete löscht eine Verknüpfungszeile. Die betroffenen Entitäten werden
// vor dem Löschen festgehalten und danach aufgefrischt.
func (s *CounterService) Delete(db *gorm.DB, row interface{}, suppress bool) error {
	refs := s.refs(row)
	if err := db.Delete(row).Error; err != nil {
		return err
	}
	if suppress {
		return nil
	}
	return s.refreshAll(db, refs)
}

// DeleteWhere löscht alle Verknüpfungszeilen, die auf die Bedingung
// passen, und frischt jede betroffene Entität genau einmal auf. Mit
// suppress entfällt auch das Einsammeln der Zeilen vor dem Löschen.
func (s *CounterService) DeleteWhere(db *gorm.DB, model interface{}, suppress bool, query string, args ...interface{}) (int64, error) {
	// Betroffene Entitäten vor dem Löschen einsammeln, dedupliziert
	seen := make(map[string]counterRef)
	if !suppress {
		slicePtr := reflect.New(reflect.SliceOf(reflect.TypeOf(model).Elem()))
		if err := db.Where(query, args...).Find(slicePtr.Interface()).Error; err != nil {
			return 0, err
		}
		rows := slicePtr.Elem()
		for i := 0; i < rows.Len(); i++ {
			for _, ref := range s.refs(rows.Index(i).Addr().Interface()) {
				if ref.id == nil {
					continue
				}
				key := fmt.Sprintf("%s/%d", ref.group, *ref.id)
				if _, ok := seen[key]; !ok {
					seen[key] = ref
				}
			}
		}
	}

	res := db.Where(query, args...).Delete(model)
	if res.Error != nil {
		return 0, res.Error
	}
	for _, ref := range seen {
		if err := ref.refresh(db, *ref.id); err != nil {
			return res.RowsAffected, err
		}
	}
	return res.RowsAffected, nil
}

// ResyncAll berechnet sämtliche Zähler aller Entitäten neu. Wird vom
// nächtlichen Cron-Job und dem Admin-Endpunkt verwendet.
func (s *CounterService) ResyncAll(ctx context.Context) error {
	log := s.Logger.With(zap.String("job", "counter_resync"))
	start := time.Now()
	db := s.DB.WithContext(ctx)

	var expertIDs []uint
	if err := db.Model(&models.MedicalExpert{}).Pluck("id", &expertIDs).Error; err != nil {
		return err
	}
	for _, id := range expertIDs {
		for _, refresh := range []func(*gorm.DB, uint) error{
			s.refreshExpertInstitutions,
			s.refreshExpertInstitutionsCOI,
			s.refreshExpertClinicalTrials,
			s.refreshExpertEvents,
			s.refreshExpertPublications,
		} {
			if err := refresh(db, id); err != nil {
				return err
			}
		}
	}

	var institutionIDs []uint
	if err := db.Model(&models.Institution{}).Pluck("id", &institutionIDs).Error; err != nil {
		return err
	}
	for _, id := range institutionIDs {
		for _, refresh := range []func(*gorm.DB, uint) error{
			s.refreshInstitutionExperts,
			s.refreshInstitutionExpertsCOI,
			s.refreshInstitutionInstitutions,
		} {
			if err := refresh(db, id); err != nil {
				return err
			}
		}
	}

	var trialIDs []uint
	if err := db.Model(&models.ClinicalTrial{}).Pluck("id", &trialIDs).Error; err != nil {
		return err
	}
	for _, id := range trialIDs {
		for _, refresh := range []func(*gorm.DB, uint) error{
			s.refreshTrialExperts,
			s.refreshTrialInterventions,
			s.refreshTrialInstitutions,
		} {
			if err := refresh(db, id); err != nil {
				return err
			}
		}
	}

	log.Info("Zählerabgleich abgeschlossen",
		zap.Int("medical_experts", len(expertIDs)),
		zap.Int("institutions", len(institutionIDs)),
		zap.Int("clinical_trials", len(trialIDs)),
		zap.Duration("duration", time.Since(start)))
	return nil
}

// applyCounts schreibt die neu berechneten Werte, aber nur die Spalten,
// deren Wert sich geändert hat. Ohne Änderung findet kein Schreibzugriff
// statt und der Datensatz behält seinen Änderungszeitpunkt.
func applyCounts(db *gorm.DB, model interface{}, id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return db.Model(model).Where("id = ?", id).Updates(updates).Error
}

func countRows(db *gorm.DB, model interface{}, query string, args ...interface{}) (uint, error) {
	var n int64
	err := db.Model(model).Where(query, args...).Count(&n).Error
	return uint(n), err
}

func (s *CounterService) refreshExpertInstitutions(db *gorm.DB, expertID uint) error {
	counterRefreshes.WithLabelValues("medical_expert_institutions").Inc()

	var expert models.MedicalExpert
	err := db.Select("id", "number_linked_institutions",
		"number_linked_institutions_primary_affiliation",
		"number_linked_institutions_subtype_company").
		First(&expert, expertID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Entität bereits gelöscht, nichts nachzuziehen
		return nil
	}
	if err != nil {
		return err
	}

	total, err := countRows(db, &models.MedicalExpertInstitution{},
		"medical_expert_id = ?", expertID)
	if err != nil {
		return err
	}
	primary, err := countRows(db, &models.MedicalExpertInstitution{},
		"medical_expert_id = ? AND primary_affiliation = ?", expertID, true)
	if err != nil {
		return err
	}
	var company int64
	err = db.Model(&models.MedicalExpertInstitution{}).
		Joins("JOIN institutions ON institutions.id = medical_expert_institutions.institution_id").
		Joins("JOIN institution_subtypes ON institution_subtypes.id = institutions.institution_subtype_id").
		Where("medical_expert_institutions.medical_expert_id = ?", expertID).
		Where("institution_subtypes.name = ?", SubtypeCompany).
		Count(&company).Error
	if err != nil {
		return err
	}

	updates := make(map[string]interface{})
	if expert.NumberLinkedInstitutions != total {
		updates["number_linked_institutions"] = total
	}
	if expert.NumberLinkedInstitutionsPrimaryAffiliation != primary {
		updates["number_linked_institutions_primary_affiliation"] = primary
	}
	if expert.NumberLinkedInstitutionsSubtypeCompany != uint(company) {
		updates["number_linked_institutions_subtype_company"] = company
	}
	return applyCounts(db, &models.MedicalExpert{}, expertID, updates)
}

func (s *CounterService) refreshExpertInstitutionsCOI(db *gorm.DB, expertID uint) error {
	counterRefreshes.WithLabelValues("medical_expert_institutions_coi").Inc()

	var expert models.MedicalExpert
	err := db.Select("id", "number_linked_institutions_coi").First(&expert, expertID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	total, err := countRows(db, &models.MedicalExpertInstitutionCOI{},
		"medical_expert_id = ?", expertID)
	if err != nil {
		return err
	}
	updates := make(map[string]interface{})
	if expert.NumberLinkedInstitutionsCOI != total {
		updates["number_linked_institutions_coi"] = total
	}
	return applyCounts(db, &models.MedicalExpert{}, expertID, updates)
}

func (s *CounterService) refreshExpertClinicalTrials(db *gorm.DB, expertID uint) error {
	counterRefreshes.WithLabelValues("medical_expert_clinical_trials").Inc()

	var expert models.MedicalExpert
	err := db.Select("id", "number_linked_clinical_trials").First(&expert, expertID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	total, err := countRows(db, &models.MedicalExpertClinicalTrial{},
		"medical_expert_id = ?", expertID)
	if err != nil {
		return err
	}
	updates := make(map[string]interface{})
	if expert.NumberLinkedClinicalTrials != total {
		updates["number_linked_clinical_trials"] = total
	}
	return applyCounts(db, &models.MedicalExpert{}, expertID, updates)
}

func (s *CounterService) refreshExpertEvents(db *gorm.DB, expertID uint) error {
	counterRefreshes.WithLabelValues("medical_expert_events").Inc()

	var expert models.MedicalExpert
	err := db.Select("id", "number_linked_events").First(&expert, expertID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	total, err := countRows(db, &models.MedicalExpertEvent{},
		"medical_expert_id = ?", expertID)
	if err != nil {
		return err
	}
	updates := make(map[string]interface{})
	if expert.NumberLinkedEvents != total {
		updates["number_linked_events"] = total
	}
	return applyCounts(db, &models.MedicalExpert{}, expertID, updates)
}

func (s *CounterService) refreshExpertPublications(db *gorm.DB, expertID uint) error {
	counterRefreshes.WithLabelValues("medical_expert_publications").Inc()

	var expert models.MedicalExpert
	err := db.Select("id", "number_linked_publications").First(&expert, expertID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	total, err := countRows(db, &models.MedicalExpertPublication{},
		"medical_expert_id = ?", expertID)
	if err != nil {
		return err
	}
	updates := make(map[string]interface{})
	if expert.NumberLinkedPublications != total {
		updates["number_linked_publications"] = total
	}
	return applyCounts(db, &models.MedicalExpert{}, expertID, updates)
}

func (s *CounterService) refreshInstitutionExperts(db *gorm.DB, institutionID uint) error {
	counterRefreshes.WithLabelValues("institution_medical_experts").Inc()

	var institution models.Institution
	err := db.Select("id", "number_linked_medical_experts").First(&institution, institutionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	total, err := countRows(db, &models.MedicalExpertInstitution{},
		"institution_id = ?", institutionID)
	if err != nil {
		return err
	}
	updates := make(map[string]interface{})
	if institution.NumberLinkedMedicalExperts != total {
		updates["number_linked_medical_experts"] = total
	}
	return applyCounts(db, &models.Institution{}, institutionID, updates)
}

func (s *CounterService) refreshInstitutionExpertsCOI(db *gorm.DB, institutionID uint) error {
	counterRefreshes.WithLabelValues("institution_medical_experts_coi").Inc()

	var institution models.Institution
	err := db.Select("id", "number_linked_medical_experts_coi").First(&institution, institutionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	total, err := countRows(db, &models.MedicalExpertInstitutionCOI{},
		"institution_id = ?", institutionID)
	if err != nil {
		return err
	}
	updates := make(map[string]interface{})
	if institution.NumberLinkedMedicalExpertsCOI != total {
		updates["number_linked_medical_experts_coi"] = total
	}
	return applyCounts(db, &models.Institution{}, institutionID, updates)
}

func (s *CounterService) refreshInstitutionInstitutions(db *gorm.DB, institutionID uint) error {
	counterRefreshes.WithLabelValues("institution_institutions").Inc()

	var institution models.Institution
	err := db.Select("id", "number_linked_institutions").First(&institution, institutionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	// Gezählt wird nur die Quellseite der Verknüpfung
	total, err := countRows(db, &models.InstitutionInstitution{},
		"institution_id = ?", institutionID)
	if err != nil {
		return err
	}
	updates := make(map[string]interface{})
	if institution.NumberLinkedInstitutions != total {
		updates["number_linked_institutions"] = total
	}
	return applyCounts(db, &models.Institution{}, institutionID, updates)
}

func (s *CounterService) refreshTrialExperts(db *gorm.DB, trialID uint) error {
	counterRefreshes.WithLabelValues("clinical_trial_medical_experts").Inc()

	var trial models.ClinicalTrial
	err := db.Select("id", "number_linked_medical_experts").First(&trial, trialID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	total, err := countRows(db, &models.MedicalExpertClinicalTrial{},
		"clinical_trial_id = ?", trialID)
	if err != nil {
		return err
	}
	updates := make(map[string]interface{})
	if trial.NumberLinkedMedicalExperts != total {
		updates["number_linked_medical_experts"] = total
	}
	return applyCounts(db, &models.ClinicalTrial{}, trialID, updates)
}

func (s *CounterService) refreshTrialInterventions(db *gorm.DB, trialID uint) error {
	counterRefreshes.WithLabelValues("clinical_trial_interventions").Inc()

	var trial models.ClinicalTrial
	err := db.Select("id", "number_linked_interventions").First(&trial, trialID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	total, err := countRows(db, &models.ClinicalTrialIntervention{},
		"clinical_trial_id = ?", trialID)
	if err != nil {
		return err
	}
	updates := make(map[string]interface{})
	if trial.NumberLinkedInterventions != total {
		updates["number_linked_interventions"] = total
	}
	return applyCounts(db, &models.ClinicalTrial{}, trialID, updates)
}

func (s *CounterService) refreshTrialInstitutions(db *gorm.DB, trialID uint) error {
	counterRefreshes.WithLabelValues("clinical_trial_institutions").Inc()

	var trial models.ClinicalTrial
	err := db.Select("id", "number_linked_institutions").First(&trial, trialID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	total, err := countRows(db, &models.ClinicalTrialInstitution{},
		"clinical_trial_id = ?", trialID)
	if err != nil {
		return err
	}
	updates := make(map[string]interface{})
	if trial.NumberLinkedInstitutions != total {
		updates["number_linked_institutions"] = total
	}
	return applyCounts(db, &models.ClinicalTrial{}, trialID, updates)
}
