package normalize

import (
	"encoding/json"
	"strings"

	"github.com/fairway-media/golftracker/internal/model"
)

// ESPN normalizes payloads from the ESPN site API. ESPN carries richer
// biography than the tour feeds (birth place, college), which is why its
// player records flow into the bio fields as well.
type ESPN struct{}

// NewESPN returns the normalizer for the ESPN site API.
func NewESPN() *ESPN { return &ESPN{} }

// Source implements Normalizer.
func (n *ESPN) Source() string { return "espn" }

type espnAthlete struct {
	ID          string `json:"id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	DisplayName string `json:"displayName"`
	DateOfBirth string `json:"dateOfBirth"`
	BirthPlace  struct {
		City    string `json:"city"`
		State   string `json:"state"`
		Country string `json:"country"`
	} `json:"birthPlace"`
	College struct {
		Name string `json:"name"`
	} `json:"college"`
	Headshot struct {
		Href string `json:"href"`
	} `json:"headshot"`
	Flag struct {
		Alt string `json:"alt"`
	} `json:"flag"`
}

type espnEvent struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Date   string `json:"date"`
	Status struct {
		Type struct {
			State string `json:"state"`
		} `json:"type"`
	} `json:"status"`
	Courses []struct {
		Name string `json:"name"`
	} `json:"courses"`
	Purse float64 `json:"purse"`
}

type espnCompetitor struct {
	Athlete struct {
		ID          string `json:"id"`
		FirstName   string `json:"firstName"`
		LastName    string `json:"lastName"`
		DisplayName string `json:"displayName"`
	} `json:"athlete"`
	Status struct {
		Position struct {
			DisplayName string `json:"displayName"`
		} `json:"position"`
		Type struct {
			Name string `json:"name"`
		} `json:"type"`
	} `json:"status"`
	Score      string `json:"score"`
	Linescores []struct {
		Value float64 `json:"value"`
	} `json:"linescores"`
	Earnings float64 `json:"earnings"`
}

// Normalize implements Normalizer.
func (n *ESPN) Normalize(raw model.RawRecord) (*model.NormalizedRecord, error) {
	out := &model.NormalizedRecord{
		Source:    raw.Source,
		Kind:      raw.Kind,
		League:    raw.League,
		FetchedAt: raw.FetchedAt,
	}

	switch raw.Kind {
	case model.KindPlayer:
		var a espnAthlete
		if err := json.Unmarshal(raw.Payload, &a); err != nil {
			return nil, Malformed(err, "espn: decode athlete")
		}
		if a.ID == "" {
			return nil, Malformed(nil, "espn: athlete without id")
		}
		first, last := a.FirstName, a.LastName
		if last == "" {
			first, last = SplitName(a.DisplayName)
		}
		if last == "" {
			return nil, Malformed(nil, "espn: athlete without last name")
		}

		pf := &model.PlayerFields{
			FirstName: strings.TrimSpace(first),
			LastName:  strings.TrimSpace(last),
			Country:   strings.TrimSpace(a.Flag.Alt),
			ImageURL:  a.Headshot.Href,
		}
		if bd := parseDate(a.DateOfBirth); bd != nil {
			pf.Bio.BirthDate = bd
		}
		if a.BirthPlace.City != "" {
			pf.Bio.HometownCity = &a.BirthPlace.City
		}
		if a.BirthPlace.State != "" {
			pf.Bio.HometownState = &a.BirthPlace.State
		}
		if a.BirthPlace.Country != "" {
			pf.Bio.HometownCountry = &a.BirthPlace.Country
		}
		if a.College.Name != "" {
			pf.Bio.CollegeName = &a.College.Name
		}

		out.NativeID = a.ID
		out.Player = pf
		return out, nil

	case model.KindTournament:
		var e espnEvent
		if err := json.Unmarshal(raw.Payload, &e); err != nil {
			return nil, Malformed(err, "espn: decode event")
		}
		if e.Name == "" {
			return nil, Malformed(nil, "espn: event without name")
		}
		start := parseDate(e.Date)
		if start == nil {
			return nil, Malformed(nil, "espn: event without date")
		}
		tf := &model.TournamentFields{
			Name:      strings.TrimSpace(e.Name),
			Year:      start.Year(),
			StartDate: start,
			Status:    espnEventStatus(e.Status.Type.State),
		}
		if len(e.Courses) > 0 {
			tf.CourseName = e.Courses[0].Name
		}
		if e.Purse > 0 {
			tf.Purse = &e.Purse
		}
		out.NativeID = e.ID
		out.Tournament = tf
		return out, nil

	case model.KindResult:
		var comp espnCompetitor
		if err := json.Unmarshal(raw.Payload, &comp); err != nil {
			return nil, Malformed(err, "espn: decode competitor")
		}
		if comp.Athlete.ID == "" {
			return nil, Malformed(nil, "espn: competitor without athlete id")
		}
		first, last := comp.Athlete.FirstName, comp.Athlete.LastName
		if last == "" {
			first, last = SplitName(comp.Athlete.DisplayName)
		}
		out.NativeID = comp.Athlete.ID
		out.Player = &model.PlayerFields{
			FirstName: strings.TrimSpace(first),
			LastName:  strings.TrimSpace(last),
		}

		rf := &model.ResultFields{
			PositionDisplay: comp.Status.Position.DisplayName,
			Status:          espnResultStatus(comp.Status.Type.Name),
		}
		if pos := parsePosition(comp.Status.Position.DisplayName); pos != nil {
			rf.Position = pos
		}
		if tp, ok := parseToPar(comp.Score); ok {
			rf.TotalToPar = &tp
		}
		for _, ls := range comp.Linescores {
			v := int(ls.Value)
			rf.RoundScores = append(rf.RoundScores, &v)
		}
		if comp.Earnings > 0 {
			rf.Earnings = &comp.Earnings
		}
		out.Result = rf
		return out, nil
	}

	return nil, Malformed(nil, "espn: unknown record kind "+string(raw.Kind))
}

func espnResultStatus(name string) model.ResultStatus {
	switch strings.ToUpper(name) {
	case "STATUS_CUT":
		return model.ResultCut
	case "STATUS_WITHDRAWN":
		return model.ResultWithdrawn
	case "STATUS_DISQUALIFIED":
		return model.ResultDisqualified
	default:
		return model.ResultActive
	}
}

func espnEventStatus(state string) model.TournamentStatus {
	switch strings.ToLower(state) {
	case "post":
		return model.TournamentCompleted
	case "in":
		return model.TournamentInProgress
	default:
		return model.TournamentScheduled
	}
}
