package facility

// fallbackFacilities is served when the listing endpoint cannot be reached.
var fallbackFacilities = []RawFacility{
	{MFLCode: "20203", Facility: "University of Nairobi-MARPS Project- Mwingi", Type: "KP Site", County: "Kitui", Subcounty: "Mwingi Central Sub County", Ward: "Central Ward", Program: "PACT IMARA"},
	{MFLCode: "20209", Facility: "Onyuongo Dispensary", Type: "Health Facility", County: "Kisumu", Subcounty: "Nyakach", Ward: "North Nyakach", Program: "ENTRENCH"},
	{MFLCode: "20261", Facility: "Kibera Level 3", Type: "Health Facility", County: "Nairobi", Subcounty: "Kibra", Ward: "Sarang'ombe", Program: "CONNECT"},
	{MFLCode: "20425", Facility: "Ap Kanyonyoo Dispensary", Type: "Health Facility", County: "Kitui", Subcounty: "Kitui Rural Sub County", Ward: "Kwavonza/Yatta Ward", Program: "PACT IMARA"},
	{MFLCode: "20448", Facility: "University Of Nairobi Kitui Drop In Centre", Type: "KP Site", County: "Kitui", Subcounty: "Kitui Central Sub County", Ward: "Township Ward", Program: "PACT IMARA"},
	{MFLCode: "20523", Facility: "Tumaini DICE Kisumu", Type: "KP Site", County: "Kisumu", Subcounty: "Kisumu Central", Ward: "Market Milimani", Program: "ENTRENCH"},
	{MFLCode: "20568", Facility: "Obware Dispensary", Type: "Health Facility", County: "Migori", Subcounty: "Nyatike", Ward: "Kanyasa", Program: "ENTRENCH"},
	{MFLCode: "20934", Facility: "Tumaini DICE Sondu", Type: "KP Site", County: "Kisumu", Subcounty: "Nyakach", Ward: "South East Nyakach", Program: "ENTRENCH"},
	{MFLCode: "21144", Facility: "MARPS Project Machakos Dice", Type: "KP Site", County: "Machakos", Subcounty: "Machakos Sub County", Ward: "Machakos Central Ward", Program: "PACT IMARA"},
	{MFLCode: "21220", Facility: "Anza Mapema Clinic", Type: "KP Site", County: "Kisumu", Subcounty: "Kisumu Central", Ward: "Railways", Program: "ENTRENCH"},
	{MFLCode: "22349", Facility: "Swop Outreach Project Clinic", Type: "KP Site", County: "Nairobi", Subcounty: "Embakasi East", Ward: "Upper Savannah", Program: "CONNECT"},
	{MFLCode: "22564", Facility: "Tumaini DICE Awasi", Type: "KP Site", County: "Kisumu", Subcounty: "Muhoroni", Ward: "Masogo/Nyang'oma", Program: "ENTRENCH"},
	{MFLCode: "23200", Facility: "BHESP--Roysambu", Type: "KP Site", County: "Nairobi", Subcounty: "Roysambu", Ward: "Roysambu", Program: "CONNECT"},
	{MFLCode: "23414", Facility: "Kware Dispensary", Type: "KP Site", County: "Nairobi", Subcounty: "Embakasi South", Ward: "Kware", Program: "CONNECT"},
	{MFLCode: "23786", Facility: "NGARA MAT CLINIC", Type: "Health Facility", County: "Nairobi", Subcounty: "Starehe", Ward: "Ngara", Program: "CONNECT"},
}

// FallbackFacilities returns a copy of the built-in facility listing.
func FallbackFacilities() []RawFacility {
	out := make([]RawFacility, len(fallbackFacilities))
	copy(out, fallbackFacilities)
	return out
}
