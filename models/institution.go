package models

import (
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"
)

// Institution repräsentiert ein Krankenhaus, eine Universität, ein
// Unternehmen oder eine sonstige Organisation.
type Institution struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	OID string `json:"oid" gorm:"column:oid;index"`

	HospitalUniversity     string `json:"hospital_university,omitempty"`
	Abbreviation           string `json:"abbreviation,omitempty"`
	OriginalOtherName      string `json:"original_other_name,omitempty"`
	HealthcareNetworkTrust string `json:"healthcare_network_trust,omitempty"`
	CampusLocation         string `json:"campus_location,omitempty"`
	School                 string `json:"school,omitempty"`
	Department             string `json:"department,omitempty"`
	Division               string `json:"division,omitempty"`

	InstitutionSubtypeID *uint               `json:"institution_subtype_id,omitempty"`
	InstitutionSubtype   *InstitutionSubtype `json:"institution_subtype,omitempty"`

	StreetAndNumber string   `json:"street_and_number,omitempty"`
	PostalCode      string   `json:"postal_code,omitempty"`
	City            string   `json:"city,omitempty"`
	CountryID       *uint    `json:"country_id,omitempty"`
	Country         *Country `json:"country,omitempty"`

	PhoneCountryCode string `json:"phone_country_code,omitempty"`
	PhoneCityCode    *int   `json:"phone_city_code,omitempty"`
	PhoneNumber      *int64 `json:"phone_number,omitempty"`
	Email            string `json:"email,omitempty"`
	Weblink          string `json:"weblink,omitempty"`

	BoardMemberTeamList string `json:"board_member_team_list,omitempty" gorm:"type:text"`
	Comment             string `json:"comment,omitempty" gorm:"type:text"`

	// Zähler, werden ausschließlich von services.CounterService gepflegt
	NumberLinkedMedicalExperts    uint `json:"number_linked_medical_experts" gorm:"default:0"`
	NumberLinkedMedicalExpertsCOI uint `json:"number_linked_medical_experts_coi" gorm:"column:number_linked_medical_experts_coi;default:0"`
	NumberLinkedInstitutions      uint `json:"number_linked_institutions" gorm:"default:0"`
}

// CombinedName setzt den Anzeigenamen aus Netzwerk, Haus, Abteilung und
// Abteilungsbereich zusammen.
func (i *Institution) CombinedName() string {
	var name string
	switch {
	case i.HealthcareNetworkTrust != "" && i.HospitalUniversity != "":
		name = fmt.Sprintf("%s - %s", i.HealthcareNetworkTrust, i.HospitalUniversity)
	case i.HealthcareNetworkTrust != "":
		name = i.HealthcareNetworkTrust
	case i.HospitalUniversity != "":
		name = i.HospitalUniversity
	}

	if i.Department != "" || i.Division != "" {
		name += ", "
		switch {
		case i.Department != "" && i.Division != "":
			name += fmt.Sprintf("%s - %s", i.Department, i.Division)
		case i.Department != "":
			name += i.Department
		default:
			name += i.Division
		}
	}
	return name
}

// Phone setzt die Telefonnummer aus den drei Teilfeldern zusammen.
// Sind alle drei leer, gibt es keine Nummer.
func (i *Institution) Phone() *string {
	if i.PhoneCountryCode == "" && i.PhoneCityCode == nil && i.PhoneNumber == nil {
		return nil
	}
	city, number := "", ""
	if i.PhoneCityCode != nil {
		city = strconv.Itoa(*i.PhoneCityCode)
	}
	if i.PhoneNumber != nil {
		number = strconv.FormatInt(*i.PhoneNumber, 10)
	}
	phone := fmt.Sprintf("%s %s %s", i.PhoneCountryCode, city, number)
	return &phone
}

// AfterCreate vergibt die OID nach dem ersten Insert.
func (i *Institution) AfterCreate(tx *gorm.DB) error {
	if i.OID != "" {
		return nil
	}
	i.OID = FormatOID("i", i.ID)
	return tx.Model(i).UpdateColumn("oid", i.OID).Error
}
