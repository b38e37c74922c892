package services

// Feste Bezeichnungen aus den Nachschlagetabellen, auf die Zähler,
// Verbindungen und Auswertungen filtern.
const (
	SubtypeCompany            = "Company"
	SubtypeHospital           = "Hospital"
	SubtypeHospitalDepartment = "Hospital Department"
	SubtypeMedicalPractice    = "Medical Practice"
	SubtypeUniversity         = "University"
	SubtypeUniversityDept     = "University Department"

	PositionRolePhysician = "Role Physician"
	PositionHeadOf        = "Head of"
)

var (
	universitySubtypes = []string{SubtypeUniversity, SubtypeUniversityDept}
	hospitalSubtypes   = []string{SubtypeHospital, SubtypeHospitalDepartment, SubtypeMedicalPractice}
	physicianPositions = []string{PositionRolePhysician, PositionHeadOf}
)
