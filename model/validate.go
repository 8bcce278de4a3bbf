package model

import (
	"fmt"
	"net/mail"
	"sort"
	"strings"
)

const (
	maxDescriptionLength = 10_000
	maxEntryLabelLength  = 200
)

// MissingRequiredAnswers returns the ids of every required question that has
// no acceptable answer. For checkbox questions an empty list counts as
// unanswered; for the other types only an absent or empty-string answer does.
func MissingRequiredAnswers(questions []Question, answers map[string]Answer) []string {
	var missing []string
	for _, q := range questions {
		if !q.Required {
			continue
		}
		a, ok := answers[q.ID]
		switch {
		case !ok:
			missing = append(missing, q.ID)
		case !a.IsList && a.Text == "":
			missing = append(missing, q.ID)
		case a.IsList && len(a.List) == 0 && q.Type == QuestionCheckbox:
			missing = append(missing, q.ID)
		}
	}
	return missing
}

// ValidateDataEntryKeys checks that every key of values is declared by one of
// the survey's params. The error enumerates all offending keys and the
// allowed set.
func ValidateDataEntryKeys(values map[string]string, params []SurveyParam) error {
	allowed := make(map[string]bool, len(params))
	allowedKeys := make([]string, 0, len(params))
	for _, p := range params {
		allowed[p.Key] = true
		allowedKeys = append(allowedKeys, p.Key)
	}

	var invalid []string
	for k := range values {
		if !allowed[k] {
			invalid = append(invalid, k)
		}
	}
	if len(invalid) == 0 {
		return nil
	}
	sort.Strings(invalid)
	return fmt.Errorf("Invalid keys: %s. Allowed keys: %s",
		strings.Join(invalid, ", "), strings.Join(allowedKeys, ", "))
}

// CreateSurveyRequest is the body of survey creation on both the admin and
// the data API. Status is only honored by the data API.
type CreateSurveyRequest struct {
	Title       string        `json:"title"`
	Description *string       `json:"description"`
	Questions   []Question    `json:"questions"`
	Params      []SurveyParam `json:"params"`
	Status      SurveyStatus  `json:"status"`
}

func (r CreateSurveyRequest) Validate() error {
	if r.Title == "" {
		return fmt.Errorf("title is required")
	}
	if r.Description != nil && len(*r.Description) > maxDescriptionLength {
		return fmt.Errorf("description is too long")
	}
	if r.Questions == nil {
		return fmt.Errorf("questions is required")
	}
	return nil
}

// ValidateStatus additionally checks the initial status for the data API,
// which may only create surveys in draft or active.
func (r CreateSurveyRequest) ValidateStatus() error {
	if r.Status != "" && r.Status != StatusDraft && r.Status != StatusActive {
		return fmt.Errorf("status must be draft or active")
	}
	return nil
}

type UpdateSurveyRequest struct {
	Title       string        `json:"title"`
	Description *string       `json:"description"`
	Questions   []Question    `json:"questions"`
	Params      []SurveyParam `json:"params"`
}

func (r UpdateSurveyRequest) Validate() error {
	if r.Title == "" {
		return fmt.Errorf("title is required")
	}
	if r.Description != nil && len(*r.Description) > maxDescriptionLength {
		return fmt.Errorf("description is too long")
	}
	if r.Questions == nil {
		return fmt.Errorf("questions is required")
	}
	return nil
}

type UpdateStatusRequest struct {
	Status SurveyStatus `json:"status"`
}

func (r UpdateStatusRequest) Validate() error {
	if !r.Status.Valid() {
		return fmt.Errorf("status must be one of draft, active, completed")
	}
	return nil
}

type DataEntryRequest struct {
	Values map[string]string `json:"values"`
	Label  *string           `json:"label"`
}

func (r DataEntryRequest) Validate() error {
	if r.Values == nil {
		return fmt.Errorf("values is required")
	}
	if r.Label != nil && len(*r.Label) > maxEntryLabelLength {
		return fmt.Errorf("label is too long")
	}
	return nil
}

type SubmitRequest struct {
	Answers         map[string]Answer `json:"answers"`
	Params          map[string]string `json:"params"`
	DataEntryID     string            `json:"dataEntryId"`
	SendCopy        bool              `json:"sendCopy"`
	RespondentEmail string            `json:"respondentEmail"`
}

func (r SubmitRequest) Validate() error {
	if r.Answers == nil {
		return fmt.Errorf("answers is required")
	}
	if r.RespondentEmail != "" {
		if _, err := mail.ParseAddress(r.RespondentEmail); err != nil {
			return fmt.Errorf("respondentEmail is not a valid email address")
		}
	}
	return nil
}

type BulkResponse struct {
	Answers     map[string]Answer `json:"answers"`
	Params      map[string]string `json:"params"`
	DataEntryID string            `json:"dataEntryId"`
}

type BulkResponsesRequest struct {
	Responses []BulkResponse `json:"responses"`
}

func (r BulkResponsesRequest) Validate() error {
	if len(r.Responses) == 0 {
		return fmt.Errorf("responses must contain at least one element")
	}
	for i, resp := range r.Responses {
		if resp.Answers == nil {
			return fmt.Errorf("responses[%d].answers is required", i)
		}
	}
	return nil
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	if r.Email == "" || r.Password == "" {
		return fmt.Errorf("email and password are required")
	}
	return nil
}
