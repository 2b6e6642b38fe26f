package enrich

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/fairway-media/golftracker/internal/model"
)

// Free-text extraction shared by the wikipedia and websearch sources.
// These patterns are deliberately conservative: a miss is recoverable by
// the next source in the cascade, a wrong hit pollutes the record.

var (
	highSchoolRe = regexp.MustCompile(`([A-Z][A-Za-z.'&-]*(?: [A-Z][A-Za-z.'&-]*){0,5} High School)`)
	gradYearRe   = regexp.MustCompile(`(?:graduat\w+|class of)\D{0,20}((?:19|20)\d{2})`)
	bornPlaceRe  = regexp.MustCompile(`(?:[Bb]orn|raised|grew up)[^.;]{0,60}? in ([A-Z][a-z]+(?:[ -][A-Z][a-z]+)*), ([A-Z][a-z]+(?:[ -][A-Z][a-z]+)*|[A-Z]{2})`)
	collegeRe    = regexp.MustCompile(`(?:attended|college golf at|played (?:college )?golf (?:at|for))(?: the)? ((?:University of )?[A-Z][A-Za-z.'&-]*(?: [A-Z][A-Za-z.'&-]*){0,4}(?: (?:University|College))?)`)
	bornDateRe   = regexp.MustCompile(`born\s+(?:[^)]*?)?(January|February|March|April|May|June|July|August|September|October|November|December) (\d{1,2}), ((?:19|20)\d{2})`)
)

var usStates = map[string]string{
	"Alabama": "AL", "Alaska": "AK", "Arizona": "AZ", "Arkansas": "AR",
	"California": "CA", "Colorado": "CO", "Connecticut": "CT", "Delaware": "DE",
	"Florida": "FL", "Georgia": "GA", "Hawaii": "HI", "Idaho": "ID",
	"Illinois": "IL", "Indiana": "IN", "Iowa": "IA", "Kansas": "KS",
	"Kentucky": "KY", "Louisiana": "LA", "Maine": "ME", "Maryland": "MD",
	"Massachusetts": "MA", "Michigan": "MI", "Minnesota": "MN", "Mississippi": "MS",
	"Missouri": "MO", "Montana": "MT", "Nebraska": "NE", "Nevada": "NV",
	"New Hampshire": "NH", "New Jersey": "NJ", "New Mexico": "NM", "New York": "NY",
	"North Carolina": "NC", "North Dakota": "ND", "Ohio": "OH", "Oklahoma": "OK",
	"Oregon": "OR", "Pennsylvania": "PA", "Rhode Island": "RI", "South Carolina": "SC",
	"South Dakota": "SD", "Tennessee": "TN", "Texas": "TX", "Utah": "UT",
	"Vermont": "VT", "Virginia": "VA", "Washington": "WA", "West Virginia": "WV",
	"Wisconsin": "WI", "Wyoming": "WY",
}

// stateAbbrev maps a full state name to its postal code, passing through
// anything already two uppercase letters.
func stateAbbrev(s string) string {
	if len(s) == 2 && s == strings.ToUpper(s) {
		return s
	}
	if code, ok := usStates[s]; ok {
		return code
	}
	return ""
}

// extractBio pulls whatever requested fields the text supports.
func extractBio(text string, missing []string) model.BioFields {
	want := make(map[string]bool, len(missing))
	for _, k := range missing {
		want[k] = true
	}

	var bio model.BioFields
	if want[model.FieldHighSchoolName] {
		if m := highSchoolRe.FindStringSubmatch(text); m != nil {
			name := strings.TrimSpace(m[1])
			bio.HighSchoolName = &name
		}
	}
	if want[model.FieldHighSchoolGradYear] {
		if m := gradYearRe.FindStringSubmatch(text); m != nil {
			if year, err := strconv.Atoi(m[1]); err == nil {
				bio.HighSchoolGradYear = &year
			}
		}
	}
	if want[model.FieldHometownCity] || want[model.FieldHometownState] {
		if m := bornPlaceRe.FindStringSubmatch(text); m != nil {
			if want[model.FieldHometownCity] {
				city := m[1]
				bio.HometownCity = &city
			}
			if want[model.FieldHometownState] {
				if code := stateAbbrev(m[2]); code != "" {
					bio.HometownState = &code
				}
			}
		}
	}
	if want[model.FieldCollegeName] {
		// "attended X High School" matches the college pattern's shape,
		// so take the first hit that is not a high school
		for _, m := range collegeRe.FindAllStringSubmatch(text, -1) {
			// the class admits '.', so sentence punctuation rides along
			name := strings.TrimRight(strings.TrimSpace(m[1]), ".,;:")
			if !strings.Contains(name, "High School") {
				bio.CollegeName = &name
				break
			}
		}
	}
	if m := bornDateRe.FindStringSubmatch(text); m != nil {
		if t, err := time.Parse("January 2, 2006", m[1]+" "+m[2]+", "+m[3]); err == nil {
			bio.BirthDate = &t
		}
	}
	return bio
}

var (
	tagRe    = regexp.MustCompile(`<[^>]*>`)
	spaceRe  = regexp.MustCompile(`\s+`)
	entityRe = regexp.MustCompile(`&(amp|lt|gt|quot|#39|nbsp);`)
)

// stripHTML reduces markup to plain text good enough for the extractors.
func stripHTML(s string) string {
	s = tagRe.ReplaceAllString(s, " ")
	s = entityRe.ReplaceAllStringFunc(s, func(e string) string {
		switch e {
		case "&amp;":
			return "&"
		case "&lt;":
			return "<"
		case "&gt;":
			return ">"
		case "&quot;":
			return `"`
		case "&#39;":
			return "'"
		}
		return " "
	})
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}
