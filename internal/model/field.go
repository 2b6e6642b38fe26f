package model

import "time"

// Biographical field keys. These are the enrichable fields the cascade
// tries to fill and the merge engine tracks provenance for.
const (
	FieldHighSchoolName     = "high_school_name"
	FieldHighSchoolCity     = "high_school_city"
	FieldHighSchoolState    = "high_school_state"
	FieldHighSchoolGradYear = "high_school_grad_year"
	FieldHometownCity       = "hometown_city"
	FieldHometownState      = "hometown_state"
	FieldHometownCountry    = "hometown_country"
	FieldCollegeName        = "college_name"
	FieldCollegeGradYear    = "college_grad_year"
	FieldBirthDate          = "birth_date"
	FieldProfileImage       = "profile_image_url"
)

// BioChecklist is the fixed set of fields the enrichment cascade works
// through, in report order.
var BioChecklist = []string{
	FieldHighSchoolName,
	FieldHighSchoolCity,
	FieldHighSchoolState,
	FieldHighSchoolGradYear,
	FieldHometownCity,
	FieldHometownState,
	FieldCollegeName,
}

// BioFields carries enrichable biographical values. Nil means the source
// said nothing about the field; a set pointer, even to "", is an assertion.
type BioFields struct {
	HighSchoolName     *string    `json:"high_school_name,omitempty"`
	HighSchoolCity     *string    `json:"high_school_city,omitempty"`
	HighSchoolState    *string    `json:"high_school_state,omitempty"`
	HighSchoolGradYear *int       `json:"high_school_grad_year,omitempty"`
	HometownCity       *string    `json:"hometown_city,omitempty"`
	HometownState      *string    `json:"hometown_state,omitempty"`
	HometownCountry    *string    `json:"hometown_country,omitempty"`
	CollegeName        *string    `json:"college_name,omitempty"`
	CollegeGradYear    *int       `json:"college_grad_year,omitempty"`
	BirthDate          *time.Time `json:"birth_date,omitempty"`
}

// IsEmpty reports whether the source supplied no biographical data at all.
func (b BioFields) IsEmpty() bool {
	return b.HighSchoolName == nil && b.HighSchoolCity == nil &&
		b.HighSchoolState == nil && b.HighSchoolGradYear == nil &&
		b.HometownCity == nil && b.HometownState == nil &&
		b.HometownCountry == nil && b.CollegeName == nil &&
		b.CollegeGradYear == nil && b.BirthDate == nil
}

// ToFieldValues flattens the set fields into keyed values tagged with
// their source, for the generic merge path.
func (b BioFields) ToFieldValues(source string) map[string]FieldValue {
	out := make(map[string]FieldValue)
	put := func(key string, v any) {
		out[key] = FieldValue{Key: key, Value: v, Source: source}
	}
	if b.HighSchoolName != nil {
		put(FieldHighSchoolName, *b.HighSchoolName)
	}
	if b.HighSchoolCity != nil {
		put(FieldHighSchoolCity, *b.HighSchoolCity)
	}
	if b.HighSchoolState != nil {
		put(FieldHighSchoolState, *b.HighSchoolState)
	}
	if b.HighSchoolGradYear != nil {
		put(FieldHighSchoolGradYear, *b.HighSchoolGradYear)
	}
	if b.HometownCity != nil {
		put(FieldHometownCity, *b.HometownCity)
	}
	if b.HometownState != nil {
		put(FieldHometownState, *b.HometownState)
	}
	if b.HometownCountry != nil {
		put(FieldHometownCountry, *b.HometownCountry)
	}
	if b.CollegeName != nil {
		put(FieldCollegeName, *b.CollegeName)
	}
	if b.CollegeGradYear != nil {
		put(FieldCollegeGradYear, *b.CollegeGradYear)
	}
	if b.BirthDate != nil {
		put(FieldBirthDate, *b.BirthDate)
	}
	return out
}

// MissingBioFields returns the checklist fields the player still lacks.
func MissingBioFields(p *Player) []string {
	var missing []string
	for _, key := range BioChecklist {
		switch key {
		case FieldHighSchoolName:
			if p.HighSchoolName == "" {
				missing = append(missing, key)
			}
		case FieldHighSchoolCity:
			if p.HighSchoolCity == "" {
				missing = append(missing, key)
			}
		case FieldHighSchoolState:
			if p.HighSchoolState == "" {
				missing = append(missing, key)
			}
		case FieldHighSchoolGradYear:
			if p.HighSchoolGradYear == 0 {
				missing = append(missing, key)
			}
		case FieldHometownCity:
			if p.HometownCity == "" {
				missing = append(missing, key)
			}
		case FieldHometownState:
			if p.HometownState == "" {
				missing = append(missing, key)
			}
		case FieldCollegeName:
			if p.CollegeName == "" {
				missing = append(missing, key)
			}
		}
	}
	return missing
}

// FieldValue is one field's value tagged with the source asserting it and
// that source's priority rank. Rank is filled in by the reconcile engine
// from its priority table.
type FieldValue struct {
	Key       string    `json:"key"`
	Value     any       `json:"value"`
	Source    string    `json:"source"`
	Rank      int       `json:"rank"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Provenance is the stored record of which source last set a field.
type Provenance struct {
	EntityType string    `json:"entity_type"`
	EntityID   int64     `json:"entity_id"`
	FieldKey   string    `json:"field_key"`
	Source     string    `json:"source"`
	Rank       int       `json:"rank"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// EntityPlayer and EntityTournament name the provenance entity namespaces.
const (
	EntityPlayer     = "player"
	EntityTournament = "tournament"
)
