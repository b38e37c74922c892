package services

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/G9999/medical-experts-api/models"
)

func TestCounterSaveAndDelete(t *testing.T) {
	db := newTestDB(t)
	counters := NewCounterService(db, zap.NewNop())

	expert := createExpert(t, db, "Anna", "Albers")
	hospital := createInstitution(t, db, "Hospital A", SubtypeHospital)
	company := createInstitution(t, db, "Pharma B", SubtypeCompany)

	linkExpertInstitution(t, db, counters, expert, hospital, nil, true)
	companyRow := linkExpertInstitution(t, db, counters, expert, company, nil, false)

	require.NoError(t, db.First(expert, expert.ID).Error)
	assert.Equal(t, uint(2), expert.NumberLinkedInstitutions)
	assert.Equal(t, uint(1), expert.NumberLinkedInstitutionsPrimaryAffiliation)
	assert.Equal(t, uint(1), expert.NumberLinkedInstitutionsSubtypeCompany)

	require.NoError(t, db.First(hospital, hospital.ID).Error)
	assert.Equal(t, uint(1), hospital.NumberLinkedMedicalExperts)

	require.NoError(t, counters.Delete(db, companyRow, false))

	require.NoError(t, db.First(expert, expert.ID).Error)
	assert.Equal(t, uint(1), expert.NumberLinkedInstitutions)
	assert.Equal(t, uint(1), expert.NumberLinkedInstitutionsPrimaryAffiliation)
	assert.Equal(t, uint(0), expert.NumberLinkedInstitutionsSubtypeCompany)

	require.NoError(t, db.First(company, company.ID).Error)
	assert.Equal(t, uint(0), company.NumberLinkedMedicalExperts)
}

func TestCounterCOI(t *testing.T) {
	db := newTestDB(t)
	counters := NewCounterService(db, zap.NewNop())

	expert := createExpert(t, db, "Bernd", "Becker")
	company := createInstitution(t, db, "Pharma C", SubtypeCompany)
	nature := createNature(t, db, "Honoraria")

	row := &models.MedicalExpertInstitutionCOI{
		MedicalExpertID:   &expert.ID,
		InstitutionID:     &company.ID,
		NatureOfPaymentID: &nature.ID,
		Year:              "2025",
		Amount:            amount(1500),
	}
	require.NoError(t, counters.Save(db, row, false))

	require.NoError(t, db.First(expert, expert.ID).Error)
	assert.Equal(t, uint(1), expert.NumberLinkedInstitutionsCOI)
	require.NoError(t, db.First(company, company.ID).Error)
	assert.Equal(t, uint(1), company.NumberLinkedMedicalExpertsCOI)
}

func TestCounterTrialSides(t *testing.T) {
	db := newTestDB(t)
	counters := NewCounterService(db, zap.NewNop())

	expert := createExpert(t, db, "Clara", "Conrad")
	trial := createTrial(t, db, "Trial X")
	institution := createInstitution(t, db, "Hospital D", SubtypeHospital)
	intervention := &models.Intervention{Name: "Drug Y"}
	require.NoError(t, db.Create(intervention).Error)

	require.NoError(t, counters.Save(db, &models.MedicalExpertClinicalTrial{
		MedicalExpertID: &expert.ID,
		ClinicalTrialID: &trial.ID,
	}, false))
	require.NoError(t, counters.Save(db, &models.ClinicalTrialIntervention{
		ClinicalTrialID: &trial.ID,
		InterventionID:  &intervention.ID,
	}, false))
	require.NoError(t, counters.Save(db, &models.ClinicalTrialInstitution{
		ClinicalTrialID: &trial.ID,
		InstitutionID:   &institution.ID,
	}, false))

	require.NoError(t, db.First(expert, expert.ID).Error)
	assert.Equal(t, uint(1), expert.NumberLinkedClinicalTrials)
	require.NoError(t, db.First(trial, trial.ID).Error)
	assert.Equal(t, uint(1), trial.NumberLinkedMedicalExperts)
	assert.Equal(t, uint(1), trial.NumberLinkedInterventions)
	assert.Equal(t, uint(1), trial.NumberLinkedInstitutions)
}

func TestCounterEventsAndPublications(t *testing.T) {
	db := newTestDB(t)
	counters := NewCounterService(db, zap.NewNop())

	expert := createExpert(t, db, "Doris", "Duden")
	event := createEvent(t, db, "Congress 1")
	publication := createPublication(t, db, "Paper 1")

	require.NoError(t, counters.Save(db, &models.MedicalExpertEvent{
		MedicalExpertID: &expert.ID,
		EventID:         &event.ID,
	}, false))
	require.NoError(t, counters.Save(db, &models.MedicalExpertPublication{
		MedicalExpertID: &expert.ID,
		PublicationID:   &publication.ID,
	}, false))

	require.NoError(t, db.First(expert, expert.ID).Error)
	assert.Equal(t, uint(1), expert.NumberLinkedEvents)
	assert.Equal(t, uint(1), expert.NumberLinkedPublications)
}

func TestCounterSuppress(t *testing.T) {
	db := newTestDB(t)
	counters := NewCounterService(db, zap.NewNop())

	expert := createExpert(t, db, "Emil", "Ernst")
	institution := createInstitution(t, db, "Hospital E", SubtypeHospital)

	require.NoError(t, counters.Save(db, &models.MedicalExpertInstitution{
		MedicalExpertID: &expert.ID,
		InstitutionID:   &institution.ID,
	}, true))

	require.NoError(t, db.First(expert, expert.ID).Error)
	assert.Equal(t, uint(0), expert.NumberLinkedInstitutions)
	require.NoError(t, db.First(institution, institution.ID).Error)
	assert.Equal(t, uint(0), institution.NumberLinkedMedicalExperts)
}

func TestDeleteWhereRefreshesEachEntityOnce(t *testing.T) {
	db := newTestDB(t)
	counters := NewCounterService(db, zap.NewNop())

	expert := createExpert(t, db, "Frida", "Fischer")
	for _, name := range []string{"Hospital F1", "Hospital F2", "Hospital F3"} {
		institution := createInstitution(t, db, name, SubtypeHospital)
		linkExpertInstitution(t, db, counters, expert, institution, nil, false)
	}
	require.NoError(t, db.First(expert, expert.ID).Error)
	require.Equal(t, uint(3), expert.NumberLinkedInstitutions)

	before := testutil.ToFloat64(counterRefreshes.WithLabelValues("medical_expert_institutions"))

	deleted, err := counters.DeleteWhere(db, &models.MedicalExpertInstitution{}, false,
		"medical_expert_id = ?", expert.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	after := testutil.ToFloat64(counterRefreshes.WithLabelValues("medical_expert_institutions"))
	assert.Equal(t, float64(1), after-before)

	require.NoError(t, db.First(expert, expert.ID).Error)
	assert.Equal(t, uint(0), expert.NumberLinkedInstitutions)
}

func TestDeleteWhereSuppressed(t *testing.T) {
	db := newTestDB(t)
	counters := NewCounterService(db, zap.NewNop())

	expert := createExpert(t, db, "Greta", "Graf")
	for _, name := range []string{"Hospital G1", "Hospital G2"} {
		institution := createInstitution(t, db, name, SubtypeHospital)
		linkExpertInstitution(t, db, counters, expert, institution, nil, false)
	}
	require.NoError(t, db.First(expert, expert.ID).Error)
	require.Equal(t, uint(2), expert.NumberLinkedInstitutions)

	before := testutil.ToFloat64(counterRefreshes.WithLabelValues("medical_expert_institutions"))

	deleted, err := counters.DeleteWhere(db, &models.MedicalExpertInstitution{}, true,
		"medical_expert_id = ?", expert.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	// Kein Auffrischen, die Zähler bleiben bis zum nächsten Abgleich stehen
	after := testutil.ToFloat64(counterRefreshes.WithLabelValues("medical_expert_institutions"))
	assert.Equal(t, before, after)
	require.NoError(t, db.First(expert, expert.ID).Error)
	assert.Equal(t, uint(2), expert.NumberLinkedInstitutions)
}

func TestNoopRefreshKeepsUpdatedAt(t *testing.T) {
	db := newTestDB(t)
	counters := NewCounterService(db, zap.NewNop())

	expert := createExpert(t, db, "Gustav", "Gruber")
	institution := createInstitution(t, db, "Hospital G", SubtypeHospital)
	row := linkExpertInstitution(t, db, counters, expert, institution, nil, false)

	require.NoError(t, db.First(expert, expert.ID).Error)
	stamp := expert.UpdatedAt

	// Zähler stimmen bereits, das Auffrischen darf nichts schreiben
	require.NoError(t, counters.Save(db, row, false))

	require.NoError(t, db.First(expert, expert.ID).Error)
	assert.True(t, expert.UpdatedAt.Equal(stamp))
}

func TestNilForeignKeySkipped(t *testing.T) {
	db := newTestDB(t)
	counters := NewCounterService(db, zap.NewNop())

	expert := createExpert(t, db, "Hanna", "Hoffmann")
	require.NoError(t, counters.Save(db, &models.MedicalExpertInstitution{
		MedicalExpertID: &expert.ID,
	}, false))

	require.NoError(t, db.First(expert, expert.ID).Error)
	assert.Equal(t, uint(1), expert.NumberLinkedInstitutions)
}

func TestRefreshAfterEntityGone(t *testing.T) {
	db := newTestDB(t)
	counters := NewCounterService(db, zap.NewNop())

	expert := createExpert(t, db, "Ingo", "Ibsen")
	institution := createInstitution(t, db, "Hospital I", SubtypeHospital)
	row := linkExpertInstitution(t, db, counters, expert, institution, nil, false)

	require.NoError(t, db.Delete(&models.MedicalExpert{}, expert.ID).Error)

	// Die gelöschte Entität wird beim Auffrischen still übersprungen
	require.NoError(t, counters.Delete(db, row, false))

	require.NoError(t, db.First(institution, institution.ID).Error)
	assert.Equal(t, uint(0), institution.NumberLinkedMedicalExperts)
}

func TestResyncAllRepairsDrift(t *testing.T) {
	db := newTestDB(t)
	counters := NewCounterService(db, zap.NewNop())

	expert := createExpert(t, db, "Jonas", "Jung")
	institution := createInstitution(t, db, "Hospital J", SubtypeHospital)
	trial := createTrial(t, db, "Trial J")

	require.NoError(t, counters.Save(db, &models.MedicalExpertInstitution{
		MedicalExpertID: &expert.ID,
		InstitutionID:   &institution.ID,
	}, true))
	require.NoError(t, counters.Save(db, &models.MedicalExpertClinicalTrial{
		MedicalExpertID: &expert.ID,
		ClinicalTrialID: &trial.ID,
	}, true))

	require.NoError(t, counters.ResyncAll(context.Background()))

	require.NoError(t, db.First(expert, expert.ID).Error)
	assert.Equal(t, uint(1), expert.NumberLinkedInstitutions)
	assert.Equal(t, uint(1), expert.NumberLinkedClinicalTrials)
	require.NoError(t, db.First(institution, institution.ID).Error)
	assert.Equal(t, uint(1), institution.NumberLinkedMedicalExperts)
	require.NoError(t, db.First(trial, trial.ID).Error)
	assert.Equal(t, uint(1), trial.NumberLinkedMedicalExperts)
}
