package storage

import (
	"context"
	"database/sql"
	"time"

	json "github.com/goccy/go-json"
	"github.com/nisshi-dev/nisshi-dev-survey-api/model"
	"github.com/pkg/errors"
)

// CreateResponse appends a single response.
func (s *Store) CreateResponse(ctx context.Context, response *model.Response) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	if err = insertResponse(ctx, tx, response); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "insert response commit")
}

// CreateResponses appends a batch of responses in one transaction and
// returns how many were inserted.
func (s *Store) CreateResponses(ctx context.Context, responses []*model.Response) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	for _, response := range responses {
		if err = insertResponse(ctx, tx, response); err != nil {
			return 0, err
		}
	}
	if err = tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "insert responses commit")
	}
	return len(responses), nil
}

func insertResponse(ctx context.Context, tx *sql.Tx, response *model.Response) error {
	id, err := newID()
	if err != nil {
		return err
	}
	response.ID = id
	response.CreatedAt = time.Now().UTC()

	answers, err := json.Marshal(response.Answers)
	if err != nil {
		return errors.Wrap(err, "marshal answers")
	}
	// params stays NULL when the submission carried none
	var params *string
	if response.Params != nil {
		raw, err := json.Marshal(response.Params)
		if err != nil {
			return errors.Wrap(err, "marshal params")
		}
		p := string(raw)
		params = &p
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO response (id, survey_id, answers, params, data_entry_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		response.ID,
		response.SurveyID,
		string(answers),
		params,
		response.DataEntryID,
		response.CreatedAt,
	)
	return errors.Wrap(err, "insert response")
}

// ResponsesBySurvey lists a survey's responses in insertion order.
func (s *Store) ResponsesBySurvey(ctx context.Context, surveyID string) ([]model.Response, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, survey_id, answers, params, data_entry_id, created_at
		FROM response
		WHERE survey_id = ?
		ORDER BY created_at ASC`,
		surveyID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "list responses")
	}
	defer rows.Close()

	responses := []model.Response{}
	for rows.Next() {
		response := model.Response{}
		var answers, params []byte
		err = rows.Scan(
			&response.ID, &response.SurveyID, &answers, &params,
			&response.DataEntryID, &response.CreatedAt,
		)
		if err != nil {
			return nil, errors.Wrap(err, "scan response")
		}
		if err = json.Unmarshal(answers, &response.Answers); err != nil {
			return nil, errors.Wrap(err, "parse answers")
		}
		response.Params = parseStringMap(params)
		responses = append(responses, response)
	}
	return responses, errors.Wrap(rows.Err(), "list responses")
}
