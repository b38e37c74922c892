package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/G9999/medical-experts-api/models"
)

// newTestDB öffnet eine eigene In-Memory-Datenbank pro Test.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func createExpert(t *testing.T, db *gorm.DB, firstName, lastName string) *models.MedicalExpert {
	t.Helper()
	expert := &models.MedicalExpert{FirstName: firstName, LastName: lastName}
	require.NoError(t, db.Create(expert).Error)
	return expert
}

func createSubtype(t *testing.T, db *gorm.DB, name string) *models.InstitutionSubtype {
	t.Helper()
	subtype := &models.InstitutionSubtype{Name: name}
	require.NoError(t, db.Where(models.InstitutionSubtype{Name: name}).FirstOrCreate(subtype).Error)
	return subtype
}

func createInstitution(t *testing.T, db *gorm.DB, name, subtypeName string) *models.Institution {
	t.Helper()
	institution := &models.Institution{HospitalUniversity: name}
	if subtypeName != "" {
		subtype := createSubtype(t, db, subtypeName)
		institution.InstitutionSubtypeID = &subtype.ID
	}
	require.NoError(t, db.Create(institution).Error)
	return institution
}

func createPosition(t *testing.T, db *gorm.DB, name string) *models.MedicalExpertInstitutionPosition {
	t.Helper()
	position := &models.MedicalExpertInstitutionPosition{Name: name}
	require.NoError(t, db.Where(models.MedicalExpertInstitutionPosition{Name: name}).FirstOrCreate(position).Error)
	return position
}

func createTrial(t *testing.T, db *gorm.DB, title string) *models.ClinicalTrial {
	t.Helper()
	trial := &models.ClinicalTrial{BriefPublicTitle: title}
	require.NoError(t, db.Create(trial).Error)
	return trial
}

func createEvent(t *testing.T, db *gorm.DB, name string) *models.Event {
	t.Helper()
	event := &models.Event{Name: name}
	require.NoError(t, db.Create(event).Error)
	return event
}

func createPublication(t *testing.T, db *gorm.DB, name string) *models.Publication {
	t.Helper()
	publication := &models.Publication{Name: name}
	require.NoError(t, db.Create(publication).Error)
	return publication
}

func createNature(t *testing.T, db *gorm.DB, name string) *models.NatureOfPayment {
	t.Helper()
	nature := &models.NatureOfPayment{Name: name}
	require.NoError(t, db.Where(models.NatureOfPayment{Name: name}).FirstOrCreate(nature).Error)
	return nature
}

// linkExpertInstitution legt eine Experten-Institution-Verknüpfung über
// den CounterService an.
func linkExpertInstitution(t *testing.T, db *gorm.DB, counters *CounterService,
	expert *models.MedicalExpert, institution *models.Institution,
	position *models.MedicalExpertInstitutionPosition, primary bool) *models.MedicalExpertInstitution {
	t.Helper()
	row := &models.MedicalExpertInstitution{
		MedicalExpertID:    &expert.ID,
		InstitutionID:      &institution.ID,
		PrimaryAffiliation: primary,
	}
	if position != nil {
		row.PositionID = &position.ID
	}
	require.NoError(t, counters.Save(db, row, false))
	return row
}

func amount(v float64) *float64 {
	return &v
}
