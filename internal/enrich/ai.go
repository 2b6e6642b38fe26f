package enrich

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/fairway-media/golftracker/internal/model"
	"github.com/fairway-media/golftracker/pkg/anthropic"
)

const bioSystemPrompt = `You are a golf biography researcher. Given a professional golfer's name and known details, answer with ONLY a JSON object containing the requested fields. Use these keys when asked: high_school_name, high_school_city, high_school_state, high_school_grad_year, hometown_city, hometown_state, hometown_country, college_name, birth_date. Use two-letter codes for US states and YYYY-MM-DD for dates. Omit any field you are not confident about. If you know nothing reliable, answer {}.`

// AISource asks a model for the missing fields. It sits last in the
// cascade and at the bottom of the priority table: model recall is a
// guess of last resort and anything a scraped source later asserts wins.
type AISource struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

func NewAI(client anthropic.Client, model string) *AISource {
	return &AISource{client: client, model: model, maxTokens: 1024}
}

func (a *AISource) Name() string { return "ai" }

func (a *AISource) Lookup(ctx context.Context, p *model.Player, missing []string) (model.BioFields, error) {
	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		System:    anthropic.BuildCachedSystemBlocks(bioSystemPrompt),
		Messages: []anthropic.Message{
			{Role: "user", Content: BioPrompt(p, missing)},
		},
	})
	if err != nil {
		return model.BioFields{}, eris.Wrapf(err, "ai: lookup %s %s", p.FirstName, p.LastName)
	}
	resp.Usage.LogCost(a.model, "enrich")

	return ParseBioAnswer(resp.Text())
}

// BioPrompt renders the user turn for one player.
func BioPrompt(p *model.Player, missing []string) string {
	var b strings.Builder
	b.WriteString("Golfer: " + p.FirstName + " " + p.LastName + "\n")
	if p.HometownCity != "" {
		b.WriteString("Known hometown: " + p.HometownCity)
		if p.HometownState != "" {
			b.WriteString(", " + p.HometownState)
		}
		b.WriteString("\n")
	}
	if p.CollegeName != "" {
		b.WriteString("Known college: " + p.CollegeName + "\n")
	}
	b.WriteString("Requested fields: " + strings.Join(missing, ", ") + "\n")
	return b.String()
}

type aiBioAnswer struct {
	HighSchoolName     string `json:"high_school_name"`
	HighSchoolCity     string `json:"high_school_city"`
	HighSchoolState    string `json:"high_school_state"`
	HighSchoolGradYear int    `json:"high_school_grad_year"`
	HometownCity       string `json:"hometown_city"`
	HometownState      string `json:"hometown_state"`
	HometownCountry    string `json:"hometown_country"`
	CollegeName        string `json:"college_name"`
	BirthDate          string `json:"birth_date"`
}

// ParseBioAnswer decodes the model's JSON reply into bio fields,
// tolerating prose around the object.
func ParseBioAnswer(text string) (model.BioFields, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return model.BioFields{}, eris.New("ai: no JSON object in reply")
	}

	var ans aiBioAnswer
	if err := json.Unmarshal([]byte(text[start:end+1]), &ans); err != nil {
		return model.BioFields{}, eris.Wrap(err, "ai: decode reply")
	}

	var bio model.BioFields
	set := func(dst **string, v string) {
		if v != "" {
			s := v
			*dst = &s
		}
	}
	set(&bio.HighSchoolName, ans.HighSchoolName)
	set(&bio.HighSchoolCity, ans.HighSchoolCity)
	set(&bio.HighSchoolState, ans.HighSchoolState)
	set(&bio.HometownCity, ans.HometownCity)
	set(&bio.HometownState, ans.HometownState)
	set(&bio.HometownCountry, ans.HometownCountry)
	set(&bio.CollegeName, ans.CollegeName)
	if ans.HighSchoolGradYear >= 1900 && ans.HighSchoolGradYear <= 2100 {
		bio.HighSchoolGradYear = &ans.HighSchoolGradYear
	}
	if ans.BirthDate != "" {
		if t, err := time.Parse("2006-01-02", ans.BirthDate); err == nil {
			bio.BirthDate = &t
		}
	}
	return bio, nil
}
