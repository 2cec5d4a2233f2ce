package merge

import "policypilot/internal/schema"

// Canonical logical field names used across the three input files.
const (
	FieldPixel        = "pixel"
	FieldRegion       = "region"
	FieldDistrict     = "district"
	FieldVillage      = "village"
	FieldLatitude     = "latitude"
	FieldLongitude    = "longitude"
	FieldFarmerCount  = "farmer_count"
	FieldVillageCount = "village_count"
	FieldLoanAmount   = "loan_amount"
	FieldThreshold    = "threshold_yield"
)

// crosswalkFields describes the village/pixel crosswalk (input A). Alias
// lists are ordered; the first physical header that matches wins.
var crosswalkFields = []schema.Field{
	{Name: FieldPixel, Aliases: []string{"pixel", "pixel_id", "pixelid", "index_id"}, Required: true},
	{Name: FieldRegion, Aliases: []string{"region"}, Required: true},
	{Name: FieldDistrict, Aliases: []string{"district"}},
	{Name: FieldVillage, Aliases: []string{"village", "villages"}},
	{Name: FieldLatitude, Aliases: []string{"latitude", "lat"}, Required: true},
	{Name: FieldLongitude, Aliases: []string{"longitude", "lon", "long"}, Required: true},
	{Name: FieldFarmerCount, Aliases: []string{"farmer_number", "farmer_count", "farmers", "number_of_farmers"}},
	{Name: FieldVillageCount, Aliases: []string{"villages_in_pixel", "village_count"}},
	{Name: FieldLoanAmount, Aliases: []string{"pixel_loan_amount", "loan_amount", "loan"}, Required: true},
}

// thresholdFields describes the yield-threshold metadata (input B).
var thresholdFields = []schema.Field{
	{Name: FieldPixel, Aliases: []string{"pixel", "pixel_id", "pixelid"}, Required: true},
	{Name: FieldThreshold, Aliases: []string{"threshold_yield", "thresholdyield", "threshold"}, Required: true},
}
