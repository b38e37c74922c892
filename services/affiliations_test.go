package services

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/G9999/medical-experts-api/models"
)

func TestAffiliationsBuckets(t *testing.T) {
	db := newTestDB(t)
	service := NewAffiliationService(db, zap.NewNop())

	expert := createExpert(t, db, "Sven", "Schulz")
	position := createPosition(t, db, "Professor")

	for i, pair := range []struct{ name, subtype string }{
		{"University A", SubtypeUniversity},
		{"University B", SubtypeUniversityDept},
		{"University C", SubtypeUniversity},
		{"Hospital A", SubtypeHospital},
		{"Association A", "Association"},
		{"Company A", SubtypeCompany},
		{"Network A", "Healthcare Network"},
		{"Registry A", "Registry"},
	} {
		institution := createInstitution(t, db, pair.name, pair.subtype)
		primary := i == 0
		require.NoError(t, db.Create(&models.MedicalExpertInstitution{
			MedicalExpertID:    &expert.ID,
			InstitutionID:      &institution.ID,
			PositionID:         &position.ID,
			PrimaryAffiliation: primary,
		}).Error)
	}

	// Verknüpfung ohne Subtyp zählt in keine Kategorie
	bare := createInstitution(t, db, "Untyped", "")
	require.NoError(t, db.Create(&models.MedicalExpertInstitution{
		MedicalExpertID: &expert.ID,
		InstitutionID:   &bare.ID,
	}).Error)

	affiliations, err := service.Affiliations(expert.ID)
	require.NoError(t, err)
	assert.Equal(t, []Affiliation{
		{AffiliationType: "universities", Total: 3},
		{AffiliationType: "hospitals", Total: 1},
		{AffiliationType: "associations", Total: 4},
	}, affiliations)
}

func TestAffiliationsEmptyBucketsIncluded(t *testing.T) {
	db := newTestDB(t)
	service := NewAffiliationService(db, zap.NewNop())

	expert := createExpert(t, db, "Tina", "Thiel")

	affiliations, err := service.Affiliations(expert.ID)
	require.NoError(t, err)
	assert.Equal(t, []Affiliation{
		{AffiliationType: "universities", Total: 0},
		{AffiliationType: "hospitals", Total: 0},
		{AffiliationType: "associations", Total: 0},
	}, affiliations)
}

func TestAffiliationRows(t *testing.T) {
	db := newTestDB(t)
	service := NewAffiliationService(db, zap.NewNop())

	expert := createExpert(t, db, "Udo", "Ulrich")
	position := createPosition(t, db, "Head of")
	country := &models.Country{Name: "Germany"}
	require.NoError(t, db.Create(country).Error)

	institution := &models.Institution{
		HospitalUniversity: "Hospital U",
		Department:         "Cardiology",
		City:               "Berlin",
		CountryID:          &country.ID,
	}
	subtype := createSubtype(t, db, SubtypeHospital)
	institution.InstitutionSubtypeID = &subtype.ID
	require.NoError(t, db.Create(institution).Error)

	require.NoError(t, db.Create(&models.MedicalExpertInstitution{
		MedicalExpertID: &expert.ID,
		InstitutionID:   &institution.ID,
		PositionID:      &position.ID,
		PastPosition:    true,
		Year:            "2023",
	}).Error)

	rows, err := service.AffiliationRows(expert.ID, "hospitals")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, AffiliationRow{
		Position:           "Head of",
		HospitalUniversity: "Hospital U",
		Department:         "Cardiology",
		InstitutionSubtype: SubtypeHospital,
		PastPosition:       true,
		Year:               "2023",
		City:               "Berlin",
		Country:            "Germany",
	}, rows[0])

	_, err = service.AffiliationRows(expert.ID, "charities")
	require.ErrorIs(t, err, ErrUnknownCategory)
}

func TestReportingYears(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, []string{"2026", "2025", "2024", "2023", "2022", "2021"},
		reportingYears(now))
}

// cooperationFixture legt einen Experten mit Zuwendungen zweier
// Unternehmen an, darunter eine Zeile außerhalb des Meldefensters und
// eine ohne Betrag.
func cooperationFixture(t *testing.T, db *gorm.DB) (*models.MedicalExpert, *models.Institution, *models.Institution) {
	t.Helper()

	expert := createExpert(t, db, "Vera", "Vogel")
	alpha := createInstitution(t, db, "Alpha Pharma", SubtypeCompany)
	beta := createInstitution(t, db, "Beta Pharma", SubtypeCompany)
	hospital := createInstitution(t, db, "Hospital V", SubtypeHospital)

	consulting := createNature(t, db, "Consulting")
	travel := createNature(t, db, "Travel")

	thisYear := strconv.Itoa(time.Now().Year())
	lastYear := strconv.Itoa(time.Now().Year() - 1)
	outsideWindow := strconv.Itoa(time.Now().Year() - 6)

	for _, row := range []*models.MedicalExpertInstitutionCOI{
		{MedicalExpertID: &expert.ID, InstitutionID: &alpha.ID, NatureOfPaymentID: &consulting.ID, Year: thisYear, Amount: amount(100)},
		{MedicalExpertID: &expert.ID, InstitutionID: &alpha.ID, NatureOfPaymentID: &consulting.ID, Year: thisYear, Amount: amount(200)},
		{MedicalExpertID: &expert.ID, InstitutionID: &beta.ID, NatureOfPaymentID: &travel.ID, Year: lastYear, Amount: amount(700)},
		{MedicalExpertID: &expert.ID, InstitutionID: &alpha.ID, NatureOfPaymentID: &consulting.ID, Year: outsideWindow, Amount: amount(999)},
		{MedicalExpertID: &expert.ID, InstitutionID: &beta.ID, NatureOfPaymentID: &travel.ID, Year: thisYear},
		{MedicalExpertID: &expert.ID, InstitutionID: &hospital.ID, NatureOfPaymentID: &consulting.ID, Year: thisYear, Amount: amount(50)},
	} {
		require.NoError(t, db.Create(row).Error)
	}
	return expert, alpha, beta
}

func TestCooperationsPerCompany(t *testing.T) {
	db := newTestDB(t)
	service := NewAffiliationService(db, zap.NewNop())

	expert, alpha, beta := cooperationFixture(t, db)

	rows, err := service.CooperationsPerCompany(expert.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Neuestes Jahr zuerst, Zeilen außerhalb des Fensters und ohne
	// Betrag fehlen
	assert.Equal(t, CompanyCooperation{
		InstitutionOID: alpha.OID,
		Institution:    "Alpha Pharma",
		Year:           strconv.Itoa(time.Now().Year()),
		TotalAmount:    300,
	}, rows[0])
	assert.Equal(t, CompanyCooperation{
		InstitutionOID: beta.OID,
		Institution:    "Beta Pharma",
		Year:           strconv.Itoa(time.Now().Year() - 1),
		TotalAmount:    700,
	}, rows[1])
}

func TestCooperationsPerNatureOfPayment(t *testing.T) {
	db := newTestDB(t)
	service := NewAffiliationService(db, zap.NewNop())

	expert, _, _ := cooperationFixture(t, db)

	rows, err := service.CooperationsPerNatureOfPayment(expert.ID)
	require.NoError(t, err)

	// Kein Jahresfenster, aufsteigend nach Summe
	assert.Equal(t, []NatureOfPaymentCooperation{
		{NatureOfPayment: "Travel", TotalAmount: 700},
		{NatureOfPayment: "Consulting", TotalAmount: 1299},
	}, rows)
}

func TestCooperations(t *testing.T) {
	db := newTestDB(t)
	service := NewAffiliationService(db, zap.NewNop())

	expert := createExpert(t, db, "Willi", "Wagner")
	alpha := createInstitution(t, db, "Alpha Pharma", SubtypeCompany)
	hospital := createInstitution(t, db, "Hospital W", SubtypeHospital)
	consulting := createNature(t, db, "Consulting")

	// Absichtlich nicht in Jahresreihenfolge angelegt
	for _, row := range []*models.MedicalExpertInstitutionCOI{
		{MedicalExpertID: &expert.ID, InstitutionID: &alpha.ID, NatureOfPaymentID: &consulting.ID, Year: "2024", Amount: amount(300)},
		{MedicalExpertID: &expert.ID, InstitutionID: &alpha.ID, NatureOfPaymentID: &consulting.ID, Year: "2021"},
		{MedicalExpertID: &expert.ID, InstitutionID: &alpha.ID, NatureOfPaymentID: &consulting.ID, Year: "2023", Amount: amount(100)},
		{MedicalExpertID: &expert.ID, InstitutionID: &hospital.ID, NatureOfPaymentID: &consulting.ID, Year: "2022", Amount: amount(50)},
	} {
		require.NoError(t, db.Create(row).Error)
	}

	rows, err := service.Cooperations(expert.ID)
	require.NoError(t, err)

	// Alle Unternehmenszeilen, auch ohne Betrag, aufsteigend nach Jahr
	require.Len(t, rows, 3)
	years := []string{rows[0].Year, rows[1].Year, rows[2].Year}
	assert.Equal(t, []string{"2021", "2023", "2024"}, years)
	assert.Nil(t, rows[0].Amount)
	require.NotNil(t, rows[2].Amount)
	assert.Equal(t, float64(300), *rows[2].Amount)
	for _, row := range rows {
		assert.Equal(t, "Alpha Pharma", row.Institution)
	}
}
