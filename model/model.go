package model

import (
	"fmt"
	"time"

	json "github.com/goccy/go-json"
)

type SurveyStatus string

const (
	StatusDraft     SurveyStatus = "draft"
	StatusActive    SurveyStatus = "active"
	StatusCompleted SurveyStatus = "completed"
)

func (s SurveyStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusCompleted:
		return true
	}
	return false
}

type Survey struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description *string       `json:"description"`
	Status      SurveyStatus  `json:"status"`
	Questions   []Question    `json:"questions"`
	Params      []SurveyParam `json:"params"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"-"`
}

// SurveySummary is the list-view projection of a survey.
type SurveySummary struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Status    SurveyStatus `json:"status"`
	CreatedAt time.Time    `json:"createdAt"`
}

// DataEntry is a pre-registered bundle of param values respondents can pick
// at submission time. ResponseCount is derived from referencing responses,
// never stored.
type DataEntry struct {
	ID            string            `json:"id"`
	SurveyID      string            `json:"surveyId"`
	Values        map[string]string `json:"values"`
	Label         *string           `json:"label"`
	ResponseCount int               `json:"responseCount"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"-"`
}

// Response is one respondent's submission. Append-only.
type Response struct {
	ID          string            `json:"id"`
	SurveyID    string            `json:"-"`
	Answers     map[string]Answer `json:"answers"`
	Params      map[string]string `json:"params"`
	DataEntryID *string           `json:"dataEntryId"`
	CreatedAt   time.Time         `json:"-"`
}

type AdminUser struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

type Session struct {
	Token     string
	UserID    string
	Email     string
	ExpiresAt time.Time
}

// Answer is either a single string or a list of strings, matching the wire
// shape `string | string[]`.
type Answer struct {
	Text   string
	List   []string
	IsList bool
}

func StringAnswer(s string) Answer {
	return Answer{Text: s}
}

func ListAnswer(items ...string) Answer {
	if items == nil {
		items = []string{}
	}
	return Answer{List: items, IsList: true}
}

func (a Answer) MarshalJSON() ([]byte, error) {
	if a.IsList {
		list := a.List
		if list == nil {
			list = []string{}
		}
		return json.Marshal(list)
	}
	return json.Marshal(a.Text)
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	for _, c := range data {
		switch c {
		case ' ', '\t', '\r', '\n':
			continue
		case '"':
			a.IsList = false
			a.List = nil
			return json.Unmarshal(data, &a.Text)
		case '[':
			a.IsList = true
			a.Text = ""
			return json.Unmarshal(data, &a.List)
		}
		break
	}
	return fmt.Errorf("answer must be a string or a list of strings")
}
