package model

import (
	"bytes"
	"fmt"
	"regexp"

	json "github.com/goccy/go-json"
)

type QuestionType string

const (
	QuestionText     QuestionType = "text"
	QuestionRadio    QuestionType = "radio"
	QuestionCheckbox QuestionType = "checkbox"
)

// Question is one prompt of a survey, discriminated by Type.
// Options and AllowOther only apply to radio and checkbox questions.
type Question struct {
	Type       QuestionType
	ID         string
	Label      string
	Options    []string
	Required   bool
	AllowOther bool
}

type textQuestionJSON struct {
	Type     QuestionType `json:"type"`
	ID       string       `json:"id"`
	Label    string       `json:"label"`
	Required bool         `json:"required"`
}

type choiceQuestionJSON struct {
	Type       QuestionType `json:"type"`
	ID         string       `json:"id"`
	Label      string       `json:"label"`
	Options    []string     `json:"options"`
	Required   bool         `json:"required"`
	AllowOther bool         `json:"allowOther"`
}

// MarshalJSON emits the canonical form of a question: fixed key order,
// defaults materialized. Serialized equality of two question lists is
// defined over this form.
func (q Question) MarshalJSON() ([]byte, error) {
	switch q.Type {
	case QuestionText:
		return json.Marshal(textQuestionJSON{q.Type, q.ID, q.Label, q.Required})
	case QuestionRadio, QuestionCheckbox:
		opts := q.Options
		if opts == nil {
			opts = []string{}
		}
		return json.Marshal(choiceQuestionJSON{q.Type, q.ID, q.Label, opts, q.Required, q.AllowOther})
	default:
		return nil, fmt.Errorf("unknown question type %q", q.Type)
	}
}

func (q *Question) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type       *QuestionType `json:"type"`
		ID         *string       `json:"id"`
		Label      *string       `json:"label"`
		Options    *[]string     `json:"options"`
		Required   *bool         `json:"required"`
		AllowOther *bool         `json:"allowOther"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Type == nil || raw.ID == nil || raw.Label == nil {
		return fmt.Errorf("question is missing type, id or label")
	}

	q.Type = *raw.Type
	q.ID = *raw.ID
	q.Label = *raw.Label
	q.Required = raw.Required != nil && *raw.Required
	q.Options = nil
	q.AllowOther = false

	switch q.Type {
	case QuestionText:
	case QuestionRadio, QuestionCheckbox:
		if raw.Options == nil {
			return fmt.Errorf("%s question is missing options", q.Type)
		}
		q.Options = *raw.Options
		if q.Options == nil {
			q.Options = []string{}
		}
		q.AllowOther = raw.AllowOther != nil && *raw.AllowOther
	default:
		return fmt.Errorf("unknown question type %q", q.Type)
	}
	return nil
}

// ParseQuestions decodes a stored questions column. It never fails: any
// malformed document, including a single bad question, yields an empty list.
func ParseQuestions(raw []byte) []Question {
	if len(raw) == 0 {
		return []Question{}
	}
	var questions []Question
	if err := json.Unmarshal(raw, &questions); err != nil || questions == nil {
		return []Question{}
	}
	return questions
}

// QuestionsEqual compares two question lists by their canonical serialization.
func QuestionsEqual(a, b []Question) bool {
	aj, err := MarshalQuestions(a)
	if err != nil {
		return false
	}
	bj, err := MarshalQuestions(b)
	if err != nil {
		return false
	}
	return bytes.Equal(aj, bj)
}

// MarshalQuestions serializes a question list in canonical form, mapping nil
// to an empty array.
func MarshalQuestions(questions []Question) ([]byte, error) {
	if questions == nil {
		questions = []Question{}
	}
	return json.Marshal(questions)
}

var paramKeyPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// SurveyParam declares one metadata key a survey accepts alongside responses.
type SurveyParam struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Visible bool   `json:"visible"`
}

func (p *SurveyParam) UnmarshalJSON(data []byte) error {
	var raw struct {
		Key     *string `json:"key"`
		Label   *string `json:"label"`
		Visible *bool   `json:"visible"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Key == nil || raw.Label == nil || raw.Visible == nil {
		return fmt.Errorf("param is missing key, label or visible")
	}
	if !paramKeyPattern.MatchString(*raw.Key) {
		return fmt.Errorf("param key %q is not a valid identifier", *raw.Key)
	}
	if *raw.Label == "" {
		return fmt.Errorf("param %q has an empty label", *raw.Key)
	}
	p.Key = *raw.Key
	p.Label = *raw.Label
	p.Visible = *raw.Visible
	return nil
}

// ParseParams decodes a stored params column with the same all-or-nothing
// fallback as ParseQuestions.
func ParseParams(raw []byte) []SurveyParam {
	if len(raw) == 0 {
		return []SurveyParam{}
	}
	var params []SurveyParam
	if err := json.Unmarshal(raw, &params); err != nil || params == nil {
		return []SurveyParam{}
	}
	return params
}

// MarshalParams serializes a param list, mapping nil to an empty array.
func MarshalParams(params []SurveyParam) ([]byte, error) {
	if params == nil {
		params = []SurveyParam{}
	}
	return json.Marshal(params)
}
