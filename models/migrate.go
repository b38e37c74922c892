package models

// All listet alle Tabellen für die Auto-Migration auf, Nachschlagetabellen
// zuerst, dann Entitäten, dann Verknüpfungen.
func All() []interface{} {
	return []interface{}{
		&InstitutionSubtype{},
		&MedicalExpertInstitutionPosition{},
		&MedicalExpertClinicalTrialPosition{},
		&MedicalExpertEventPosition{},
		&MedicalExpertPublicationPosition{},
		&NatureOfPayment{},
		&FormOfPayment{},
		&Currency{},
		&ClinicalTrialInstitutionRelationshipType{},
		&ClinicalTrialInterventionRelationshipType{},
		&InstitutionInstitutionRelationshipType{},
		&Country{},
		&Profession{},
		&Degree{},
		&PersonGender{},
		&EventSubtype{},
		&PublicationSubtype{},
		&InterventionSubtype{},
		&MedicalExpert{},
		&Institution{},
		&ClinicalTrial{},
		&Event{},
		&Publication{},
		&Intervention{},
		&ActiveIngredient{},
		&MedicalExpertInstitution{},
		&MedicalExpertInstitutionCOI{},
		&MedicalExpertClinicalTrial{},
		&MedicalExpertEvent{},
		&MedicalExpertPublication{},
		&ClinicalTrialInstitution{},
		&ClinicalTrialIntervention{},
		&ClinicalTrialActiveIngredient{},
		&EventInstitution{},
		&PublicationClinicalTrial{},
		&InstitutionInstitution{},
	}
}
