package storage

import (
	"context"
	"time"

	"github.com/nisshi-dev/nisshi-dev-survey-api/model"
	"github.com/pkg/errors"
)

// CreateSurvey inserts the survey and fills in its id and timestamps.
// An empty status defaults to draft.
func (s *Store) CreateSurvey(ctx context.Context, survey *model.Survey) error {
	id, err := newID()
	if err != nil {
		return err
	}
	survey.ID = id
	if survey.Status == "" {
		survey.Status = model.StatusDraft
	}
	now := time.Now().UTC()
	survey.CreatedAt = now
	survey.UpdatedAt = now
	if survey.Questions == nil {
		survey.Questions = []model.Question{}
	}
	if survey.Params == nil {
		survey.Params = []model.SurveyParam{}
	}

	questions, err := model.MarshalQuestions(survey.Questions)
	if err != nil {
		return errors.Wrap(err, "marshal questions")
	}
	params, err := model.MarshalParams(survey.Params)
	if err != nil {
		return errors.Wrap(err, "marshal params")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO survey (id, title, description, status, questions, params, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		survey.ID,
		survey.Title,
		survey.Description,
		survey.Status,
		string(questions),
		string(params),
		survey.CreatedAt,
		survey.UpdatedAt,
	)
	return errors.Wrap(err, "insert survey")
}

// SurveyByID loads a survey, parsing its questions and params columns
// defensively: corrupt JSON degrades to empty lists.
func (s *Store) SurveyByID(ctx context.Context, id string) (model.Survey, error) {
	survey := model.Survey{}
	var questions, params []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, description, status, questions, params, created_at, updated_at
		FROM survey
		WHERE id = ?`,
		id,
	).Scan(
		&survey.ID, &survey.Title, &survey.Description, &survey.Status,
		&questions, &params, &survey.CreatedAt, &survey.UpdatedAt,
	)
	if err != nil {
		return survey, notFoundIfNoRows(err, "get survey")
	}
	survey.Questions = model.ParseQuestions(questions)
	survey.Params = model.ParseParams(params)
	return survey, nil
}

// ListSurveys returns list-view projections, newest first.
func (s *Store) ListSurveys(ctx context.Context) ([]model.SurveySummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, status, created_at
		FROM survey
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "list surveys")
	}
	defer rows.Close()

	surveys := []model.SurveySummary{}
	for rows.Next() {
		summary := model.SurveySummary{}
		err = rows.Scan(&summary.ID, &summary.Title, &summary.Status, &summary.CreatedAt)
		if err != nil {
			return nil, errors.Wrap(err, "scan survey")
		}
		surveys = append(surveys, summary)
	}
	return surveys, errors.Wrap(rows.Err(), "list surveys")
}

// UpdateSurvey rewrites title, description, questions and params.
func (s *Store) UpdateSurvey(ctx context.Context, survey *model.Survey) error {
	questions, err := model.MarshalQuestions(survey.Questions)
	if err != nil {
		return errors.Wrap(err, "marshal questions")
	}
	params, err := model.MarshalParams(survey.Params)
	if err != nil {
		return errors.Wrap(err, "marshal params")
	}
	survey.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE survey
		SET title = ?, description = ?, questions = ?, params = ?, updated_at = ?
		WHERE id = ?`,
		survey.Title,
		survey.Description,
		string(questions),
		string(params),
		survey.UpdatedAt,
		survey.ID,
	)
	if err != nil {
		return errors.Wrap(err, "update survey")
	}
	return checkAffected(res, "update survey")
}

func (s *Store) UpdateSurveyStatus(ctx context.Context, id string, status model.SurveyStatus) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE survey
		SET status = ?, updated_at = ?
		WHERE id = ?`,
		status,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return errors.Wrap(err, "update survey status")
	}
	return checkAffected(res, "update survey status")
}

// DeleteSurvey removes a survey with all dependent rows. Children go first,
// in one transaction, so the foreign keys never trip over cascade ordering.
func (s *Store) DeleteSurvey(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `DELETE FROM response WHERE survey_id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "delete survey responses")
	}
	_, err = tx.ExecContext(ctx, `DELETE FROM survey_data_entry WHERE survey_id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "delete survey data entries")
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM survey WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "delete survey")
	}
	if err = checkAffected(res, "delete survey"); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "delete survey commit")
}
