package storage

import (
	"context"
	"time"

	json "github.com/goccy/go-json"
	"github.com/nisshi-dev/nisshi-dev-survey-api/model"
	"github.com/pkg/errors"
)

const dataEntrySelect = `
	SELECT e.id, e.survey_id, e.values_json, e.label, e.created_at, COUNT(r.id)
	FROM survey_data_entry e
	LEFT OUTER JOIN response r ON (r.data_entry_id = e.id)`

// DataEntriesBySurvey lists a survey's entries oldest first, each with its
// derived response count.
func (s *Store) DataEntriesBySurvey(ctx context.Context, surveyID string) ([]model.DataEntry, error) {
	rows, err := s.db.QueryContext(ctx, dataEntrySelect+`
		WHERE e.survey_id = ?
		GROUP BY e.id
		ORDER BY e.created_at ASC`,
		surveyID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "list data entries")
	}
	defer rows.Close()

	entries := []model.DataEntry{}
	for rows.Next() {
		entry, err := scanDataEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, errors.Wrap(rows.Err(), "list data entries")
}

// DataEntryByID loads one entry with its response count.
func (s *Store) DataEntryByID(ctx context.Context, id string) (model.DataEntry, error) {
	rows, err := s.db.QueryContext(ctx, dataEntrySelect+`
		WHERE e.id = ?
		GROUP BY e.id`,
		id,
	)
	if err != nil {
		return model.DataEntry{}, errors.Wrap(err, "get data entry")
	}
	defer rows.Close()

	if !rows.Next() {
		return model.DataEntry{}, ErrNotFound
	}
	return scanDataEntry(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDataEntry(row rowScanner) (model.DataEntry, error) {
	entry := model.DataEntry{}
	var values []byte
	err := row.Scan(
		&entry.ID, &entry.SurveyID, &values, &entry.Label,
		&entry.CreatedAt, &entry.ResponseCount,
	)
	if err != nil {
		return entry, errors.Wrap(err, "scan data entry")
	}
	entry.Values = parseStringMap(values)
	return entry, nil
}

// parseStringMap decodes a stored string-map column, degrading corrupt data
// to an empty map.
func parseStringMap(raw []byte) map[string]string {
	if len(raw) == 0 {
		return map[string]string{}
	}
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err != nil || m == nil {
		return map[string]string{}
	}
	return m
}

func (s *Store) CreateDataEntry(ctx context.Context, entry *model.DataEntry) error {
	id, err := newID()
	if err != nil {
		return err
	}
	entry.ID = id
	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	if entry.Values == nil {
		entry.Values = map[string]string{}
	}

	values, err := json.Marshal(entry.Values)
	if err != nil {
		return errors.Wrap(err, "marshal entry values")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO survey_data_entry (id, survey_id, values_json, label, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.SurveyID,
		string(values),
		entry.Label,
		entry.CreatedAt,
		entry.UpdatedAt,
	)
	return errors.Wrap(err, "insert data entry")
}

func (s *Store) UpdateDataEntry(ctx context.Context, entry *model.DataEntry) error {
	values, err := json.Marshal(entry.Values)
	if err != nil {
		return errors.Wrap(err, "marshal entry values")
	}
	entry.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE survey_data_entry
		SET values_json = ?, label = ?, updated_at = ?
		WHERE id = ?`,
		string(values),
		entry.Label,
		entry.UpdatedAt,
		entry.ID,
	)
	if err != nil {
		return errors.Wrap(err, "update data entry")
	}
	return checkAffected(res, "update data entry")
}

// DeleteDataEntry removes an entry. The responses foreign key rejects the
// delete if a response still references it, so the caller's guard check is
// race-safe.
func (s *Store) DeleteDataEntry(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM survey_data_entry WHERE id = ?`, id)
	if err != nil {
		return errors.Wrap(err, "delete data entry")
	}
	return checkAffected(res, "delete data entry")
}
