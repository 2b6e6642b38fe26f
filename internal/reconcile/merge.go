package reconcile

import (
	"time"

	"github.com/fairway-media/golftracker/internal/model"
)

// Field-level merge. A source may overwrite a field it outranks or ties
// the current holder on; a lower-ranked source only fills fields nobody
// has set. Fields with no stored provenance count as rank zero, so any
// known source can claim them.

func emptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case int:
		return t == 0
	case float64:
		return t == 0
	case time.Time:
		return t.IsZero()
	case *time.Time:
		return t == nil || t.IsZero()
	}
	return false
}

func equalValue(a, b any) bool {
	at, aok := timeValue(a)
	bt, bok := timeValue(b)
	if aok && bok {
		return at.Equal(bt)
	}
	return a == b
}

func timeValue(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, true
		}
		return *t, true
	}
	return time.Time{}, false
}

func playerField(p *model.Player, key string) any {
	switch key {
	case model.FieldHighSchoolName:
		return p.HighSchoolName
	case model.FieldHighSchoolCity:
		return p.HighSchoolCity
	case model.FieldHighSchoolState:
		return p.HighSchoolState
	case model.FieldHighSchoolGradYear:
		return p.HighSchoolGradYear
	case model.FieldHometownCity:
		return p.HometownCity
	case model.FieldHometownState:
		return p.HometownState
	case model.FieldHometownCountry:
		return p.HometownCountry
	case model.FieldCollegeName:
		return p.CollegeName
	case model.FieldCollegeGradYear:
		return p.CollegeGradYear
	case model.FieldBirthDate:
		return p.BirthDate
	case model.FieldProfileImage:
		return p.ProfileImageURL
	}
	return nil
}

func setPlayerField(p *model.Player, key string, v any) bool {
	switch key {
	case model.FieldHighSchoolName:
		s, ok := v.(string)
		if ok {
			p.HighSchoolName = s
		}
		return ok
	case model.FieldHighSchoolCity:
		s, ok := v.(string)
		if ok {
			p.HighSchoolCity = s
		}
		return ok
	case model.FieldHighSchoolState:
		s, ok := v.(string)
		if ok {
			p.HighSchoolState = s
		}
		return ok
	case model.FieldHighSchoolGradYear:
		n, ok := v.(int)
		if ok {
			p.HighSchoolGradYear = n
		}
		return ok
	case model.FieldHometownCity:
		s, ok := v.(string)
		if ok {
			p.HometownCity = s
		}
		return ok
	case model.FieldHometownState:
		s, ok := v.(string)
		if ok {
			p.HometownState = s
		}
		return ok
	case model.FieldHometownCountry:
		s, ok := v.(string)
		if ok {
			p.HometownCountry = s
		}
		return ok
	case model.FieldCollegeName:
		s, ok := v.(string)
		if ok {
			p.CollegeName = s
		}
		return ok
	case model.FieldCollegeGradYear:
		n, ok := v.(int)
		if ok {
			p.CollegeGradYear = n
		}
		return ok
	case model.FieldBirthDate:
		t, ok := timeValue(v)
		if ok && !t.IsZero() {
			p.BirthDate = &t
		}
		return ok
	case model.FieldProfileImage:
		s, ok := v.(string)
		if ok {
			p.ProfileImageURL = s
		}
		return ok
	}
	return false
}

// MergePlayer applies incoming field values to a player under the
// priority rules. It mutates p in place and returns whether any stored
// value changed, plus the provenance rows to persist.
func MergePlayer(p *model.Player, incoming map[string]model.FieldValue, prov map[string]model.Provenance) (bool, []model.Provenance) {
	changed := false
	var updates []model.Provenance

	for key, fv := range incoming {
		if emptyValue(fv.Value) {
			continue
		}
		current := playerField(p, key)
		currentRank := 0
		if pr, ok := prov[key]; ok {
			currentRank = pr.Rank
		}
		if !emptyValue(current) && fv.Rank < currentRank {
			continue
		}
		if equalValue(current, fv.Value) {
			// same value from a higher-ranked source still claims the field
			if fv.Rank > currentRank {
				updates = append(updates, model.Provenance{
					EntityType: model.EntityPlayer, EntityID: p.ID,
					FieldKey: key, Source: fv.Source, Rank: fv.Rank,
				})
			}
			continue
		}
		if !setPlayerField(p, key, fv.Value) {
			continue
		}
		changed = true
		updates = append(updates, model.Provenance{
			EntityType: model.EntityPlayer, EntityID: p.ID,
			FieldKey: key, Source: fv.Source, Rank: fv.Rank,
		})
	}
	return changed, updates
}

// Tournament metadata merges the same way, with its own field keys.
const (
	fieldCourseName  = "course_name"
	fieldCity        = "city"
	fieldState       = "state"
	fieldCountry     = "country"
	fieldStartDate   = "start_date"
	fieldEndDate     = "end_date"
	fieldPurse       = "purse_amount"
	fieldPar         = "par"
	fieldTotalRounds = "total_rounds"
	fieldStatus      = "status"
)

func tournamentFieldValues(tf *model.TournamentFields, source string) map[string]model.FieldValue {
	out := make(map[string]model.FieldValue)
	put := func(key string, v any) {
		out[key] = model.FieldValue{Key: key, Value: v, Source: source}
	}
	if tf.CourseName != "" {
		put(fieldCourseName, tf.CourseName)
	}
	if tf.City != "" {
		put(fieldCity, tf.City)
	}
	if tf.State != "" {
		put(fieldState, tf.State)
	}
	if tf.Country != "" {
		put(fieldCountry, tf.Country)
	}
	if tf.StartDate != nil {
		put(fieldStartDate, *tf.StartDate)
	}
	if tf.EndDate != nil {
		put(fieldEndDate, *tf.EndDate)
	}
	if tf.Purse != nil {
		put(fieldPurse, *tf.Purse)
	}
	if tf.Par != nil {
		put(fieldPar, *tf.Par)
	}
	if tf.TotalRounds != nil {
		put(fieldTotalRounds, *tf.TotalRounds)
	}
	if tf.Status != "" {
		put(fieldStatus, string(tf.Status))
	}
	return out
}

func tournamentField(t *model.Tournament, key string) any {
	switch key {
	case fieldCourseName:
		return t.CourseName
	case fieldCity:
		return t.City
	case fieldState:
		return t.State
	case fieldCountry:
		return t.Country
	case fieldStartDate:
		return t.StartDate
	case fieldEndDate:
		return t.EndDate
	case fieldPurse:
		if t.Purse == nil {
			return float64(0)
		}
		return *t.Purse
	case fieldPar:
		return t.Par
	case fieldTotalRounds:
		return t.TotalRounds
	case fieldStatus:
		return string(t.Status)
	}
	return nil
}

func setTournamentField(t *model.Tournament, key string, v any) bool {
	switch key {
	case fieldCourseName:
		s, ok := v.(string)
		if ok {
			t.CourseName = s
		}
		return ok
	case fieldCity:
		s, ok := v.(string)
		if ok {
			t.City = s
		}
		return ok
	case fieldState:
		s, ok := v.(string)
		if ok {
			t.State = s
		}
		return ok
	case fieldCountry:
		s, ok := v.(string)
		if ok {
			t.Country = s
		}
		return ok
	case fieldStartDate:
		tv, ok := timeValue(v)
		if ok && !tv.IsZero() {
			t.StartDate = &tv
		}
		return ok
	case fieldEndDate:
		tv, ok := timeValue(v)
		if ok && !tv.IsZero() {
			t.EndDate = &tv
		}
		return ok
	case fieldPurse:
		f, ok := v.(float64)
		if ok {
			t.Purse = &f
		}
		return ok
	case fieldPar:
		n, ok := v.(int)
		if ok {
			t.Par = n
		}
		return ok
	case fieldTotalRounds:
		n, ok := v.(int)
		if ok {
			t.TotalRounds = n
		}
		return ok
	case fieldStatus:
		s, ok := v.(string)
		if ok {
			t.Status = model.TournamentStatus(s)
		}
		return ok
	}
	return false
}

// MergeTournament applies incoming tournament metadata under the same
// priority rules as MergePlayer.
func MergeTournament(t *model.Tournament, incoming map[string]model.FieldValue, prov map[string]model.Provenance) (bool, []model.Provenance) {
	changed := false
	var updates []model.Provenance

	for key, fv := range incoming {
		if emptyValue(fv.Value) {
			continue
		}
		current := tournamentField(t, key)
		currentRank := 0
		if pr, ok := prov[key]; ok {
			currentRank = pr.Rank
		}
		if !emptyValue(current) && fv.Rank < currentRank {
			continue
		}
		if equalValue(current, fv.Value) {
			if fv.Rank > currentRank {
				updates = append(updates, model.Provenance{
					EntityType: model.EntityTournament, EntityID: t.ID,
					FieldKey: key, Source: fv.Source, Rank: fv.Rank,
				})
			}
			continue
		}
		if !setTournamentField(t, key, fv.Value) {
			continue
		}
		changed = true
		updates = append(updates, model.Provenance{
			EntityType: model.EntityTournament, EntityID: t.ID,
			FieldKey: key, Source: fv.Source, Rank: fv.Rank,
		})
	}
	return changed, updates
}
