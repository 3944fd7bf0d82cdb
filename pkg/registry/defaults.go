package registry

// Default returns the built-in catalog. Each call returns a fresh copy.
func Default() *Catalog {
	return &Catalog{
		Version:                  "1.0.0",
		DefaultFormTitle:         "Government Certificate",
		DefaultFormType:          "application_form",
		DefaultRequiredDocuments: []string{"aadhaar", "pan"},
		Forms: []Form{
			{ID: "income_certificate", Title: "Income Certificate", Description: "Apply for income verification certificate.", Category: "certificate"},
			{ID: "caste_certificate", Title: "Caste Certificate", Description: "Official caste verification document.", Category: "certificate"},
			{ID: "domicile_certificate", Title: "Domicile Certificate", Description: "Proof of residence and domicile status.", Category: "certificate"},
			{ID: "birth_certificate", Title: "Birth Certificate", Description: "Register a new birth record.", Category: "certificate"},
			{ID: "voter_id_application", Title: "Voter ID Application", Description: "Apply for a new voter identity card.", Category: "identity"},
			{ID: "pan_card", Title: "PAN Card Service", Description: "Apply for new PAN or update details.", Category: "identity"},
			{ID: "aadhaar_update", Title: "Aadhaar Update", Description: "Update address or details in Aadhaar.", Category: "identity"},
		},
		Documents: []DocumentType{
			{ID: "aadhaar", Title: "Aadhaar Card", MultiFile: true},
			{ID: "pan", Title: "PAN Card"},
			{ID: "voter_id", Title: "Voter ID", MultiFile: true},
			{ID: "caste_certificate", Title: "Caste Certificate"},
		},
		Fields: []Field{
			{Key: "full_name", Label: "Full Name"},
			{Key: "fathers_name", Label: "Father's Name"},
			{Key: "mothers_name", Label: "Mother's Name"},
			{Key: "date_of_birth", Label: "Date of Birth"},
			{Key: "gender", Label: "Gender"},
			{Key: "aadhaar_number", Label: "Aadhaar Number"},
			{Key: "pan_number", Label: "PAN Number"},
			{Key: "mobile_number", Label: "Mobile Number"},
			{Key: "email", Label: "Email Address"},
			{Key: "address", Label: "Residential Address", LongText: true},
			{Key: "district", Label: "District"},
			{Key: "tehsil", Label: "Tehsil/Block"},
			{Key: "state", Label: "State"},
			{Key: "pincode", Label: "PIN Code"},
			{Key: "village", Label: "Village/Town"},
			{Key: "annual_income", Label: "Annual Income (₹)"},
			{Key: "income_source", Label: "Source of Income", LongText: true},
			{Key: "religion", Label: "Religion"},
			{Key: "caste_category", Label: "Caste Category"},
			{Key: "occupation", Label: "Occupation"},
			{Key: "purpose", Label: "Purpose of Certificate", LongText: true},
		},
		Groups: []Group{
			{Title: "Personal Information", Keys: []string{"full_name", "fathers_name", "mothers_name", "gender", "date_of_birth", "aadhaar_number", "pan_number"}},
			{Title: "Address Details", Keys: []string{"address", "district", "tehsil", "state", "pincode", "village"}},
			{Title: "Occupation & Income", Keys: []string{"annual_income", "income_source", "occupation", "religion", "caste_category"}},
		},
	}
}
