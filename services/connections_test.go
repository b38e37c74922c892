package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/G9999/medical-experts-api/models"
)

// connectionFixture verknüpft zwei Experten über eine Publikation, eine
// Veranstaltung, eine Studie sowie ein Krankenhaus und eine Universität,
// so dass jede Verbindungskategorie genau einen anderen Experten liefert.
func connectionFixture(t *testing.T, db *gorm.DB) (*models.MedicalExpert, *models.MedicalExpert) {
	t.Helper()

	inv1 := createExpert(t, db, "Karl", "Keller")
	inv2 := createExpert(t, db, "Lena", "Lang")

	hospital := createInstitution(t, db, "Hospital 1", SubtypeHospital)
	university := createInstitution(t, db, "University 1", SubtypeUniversity)

	physician := createPosition(t, db, PositionRolePhysician)
	other := createPosition(t, db, "Position 1")

	publication := createPublication(t, db, "Shared Paper")
	event := createEvent(t, db, "Shared Congress")
	trial := createTrial(t, db, "Shared Trial")

	for _, expert := range []*models.MedicalExpert{inv1, inv2} {
		require.NoError(t, db.Create(&models.MedicalExpertPublication{
			MedicalExpertID: &expert.ID, PublicationID: &publication.ID,
		}).Error)
		require.NoError(t, db.Create(&models.MedicalExpertEvent{
			MedicalExpertID: &expert.ID, EventID: &event.ID,
		}).Error)
		require.NoError(t, db.Create(&models.MedicalExpertClinicalTrial{
			MedicalExpertID: &expert.ID, ClinicalTrialID: &trial.ID,
		}).Error)
		require.NoError(t, db.Create(&models.MedicalExpertInstitution{
			MedicalExpertID: &expert.ID, InstitutionID: &hospital.ID, PositionID: &physician.ID,
		}).Error)
		require.NoError(t, db.Create(&models.MedicalExpertInstitution{
			MedicalExpertID: &expert.ID, InstitutionID: &university.ID, PositionID: &other.ID,
		}).Error)
	}
	return inv1, inv2
}

func TestConnectionsAllCategories(t *testing.T) {
	db := newTestDB(t)
	service := NewConnectionService(db, zap.NewNop())

	inv1, _ := connectionFixture(t, db)

	connections, err := service.Connections(inv1.ID)
	require.NoError(t, err)
	require.Len(t, connections, 5)

	assert.Equal(t, []Connection{
		{ConnectionType: "authors", Label: "Authors", Total: 1},
		{ConnectionType: "event_participants", Label: "Event Participants", Total: 1},
		{ConnectionType: "physicians", Label: "Physicians", Total: 1},
		{ConnectionType: "researchers", Label: "Researchers & Co", Total: 1},
		{ConnectionType: "clinical_trial_collaborators", Label: "Investigators", Total: 1},
	}, connections)
}

func TestConnectionsOmitsEmptyCategories(t *testing.T) {
	db := newTestDB(t)
	service := NewConnectionService(db, zap.NewNop())

	expert := createExpert(t, db, "Mia", "Meier")
	coauthor := createExpert(t, db, "Nils", "Neumann")
	publication := createPublication(t, db, "Lone Paper")
	for _, e := range []*models.MedicalExpert{expert, coauthor} {
		require.NoError(t, db.Create(&models.MedicalExpertPublication{
			MedicalExpertID: &e.ID, PublicationID: &publication.ID,
		}).Error)
	}

	connections, err := service.Connections(expert.ID)
	require.NoError(t, err)
	require.Len(t, connections, 1)
	assert.Equal(t, "authors", connections[0].ConnectionType)
	assert.Equal(t, int64(1), connections[0].Total)
}

func TestConnectionsDeduplicatesSharedInstitutions(t *testing.T) {
	db := newTestDB(t)
	service := NewConnectionService(db, zap.NewNop())

	inv1, inv2 := connectionFixture(t, db)

	// Zweite Verknüpfung desselben Paars über dasselbe Krankenhaus
	hospital := createInstitution(t, db, "Hospital 2", SubtypeHospitalDepartment)
	physician := createPosition(t, db, PositionHeadOf)
	for _, expert := range []*models.MedicalExpert{inv1, inv2} {
		require.NoError(t, db.Create(&models.MedicalExpertInstitution{
			MedicalExpertID: &expert.ID, InstitutionID: &hospital.ID, PositionID: &physician.ID,
		}).Error)
	}

	connections, err := service.Connections(inv1.ID)
	require.NoError(t, err)
	for _, connection := range connections {
		if connection.ConnectionType == "physicians" {
			assert.Equal(t, int64(1), connection.Total)
		}
	}
}

func TestConnectionsResearcherComplement(t *testing.T) {
	db := newTestDB(t)
	service := NewConnectionService(db, zap.NewNop())

	inv1 := createExpert(t, db, "Ole", "Otto")
	inv2 := createExpert(t, db, "Pia", "Peters")

	// Krankenhaus mit ärztlicher Position: zählt als Physician, nicht
	// als Researcher
	hospital := createInstitution(t, db, "Hospital R", SubtypeHospital)
	physician := createPosition(t, db, PositionRolePhysician)
	researcher := createPosition(t, db, "Researcher")
	for _, expert := range []*models.MedicalExpert{inv1, inv2} {
		require.NoError(t, db.Create(&models.MedicalExpertInstitution{
			MedicalExpertID: &expert.ID, InstitutionID: &hospital.ID, PositionID: &physician.ID,
		}).Error)
	}

	connections, err := service.Connections(inv1.ID)
	require.NoError(t, err)
	require.Len(t, connections, 1)
	assert.Equal(t, "physicians", connections[0].ConnectionType)

	// Krankenhaus mit nicht-ärztlicher Position: die Negation gilt für
	// die gesamte Bedingung, also Researcher
	require.NoError(t, db.Create(&models.MedicalExpertInstitution{
		MedicalExpertID: &inv1.ID, InstitutionID: &hospital.ID, PositionID: &researcher.ID,
	}).Error)

	connections, err = service.Connections(inv1.ID)
	require.NoError(t, err)
	require.Len(t, connections, 2)
	assert.Equal(t, "physicians", connections[0].ConnectionType)
	assert.Equal(t, "researchers", connections[1].ConnectionType)
}

func TestConnectedExperts(t *testing.T) {
	db := newTestDB(t)
	service := NewConnectionService(db, zap.NewNop())

	inv1, inv2 := connectionFixture(t, db)

	experts, err := service.ConnectedExperts(inv1.ID, "authors")
	require.NoError(t, err)
	require.Len(t, experts, 1)
	assert.Equal(t, inv2.ID, experts[0].ID)
	assert.Equal(t, "Lena", experts[0].FirstName)
}

func TestConnectedExpertsUnknownCategory(t *testing.T) {
	db := newTestDB(t)
	service := NewConnectionService(db, zap.NewNop())

	expert := createExpert(t, db, "Rita", "Richter")
	_, err := service.ConnectedExperts(expert.ID, "colleagues")
	require.ErrorIs(t, err, ErrUnknownCategory)
}
