package models

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// JSONColumn stores an arbitrary JSON-encodable payload in a TEXT column.
// The notes tree and question list both ride in columns of this type.
type JSONColumn []byte

// Value implements the driver.Valuer interface
func (j JSONColumn) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return string(j), nil
}

// Scan implements the sql.Scanner interface
func (j *JSONColumn) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*j = append((*j)[:0], v...)
	case string:
		*j = []byte(v)
	default:
		return errors.New("JSONColumn Scan: unsupported type " + fmt.Sprintf("%T", value))
	}
	return nil
}

// MarshalInto encodes v into the column.
func MarshalInto(v interface{}) (JSONColumn, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return JSONColumn(b), nil
}

// UnmarshalTo decodes the column into v; an empty column is a no-op.
func (j JSONColumn) UnmarshalTo(v interface{}) error {
	if len(j) == 0 || string(j) == "null" {
		return nil
	}
	return json.Unmarshal(j, v)
}

// AnalysisResult is the persistence model for one analyzed upload.
type AnalysisResult struct {
	ID                 string         `db:"id"`
	FileName           string         `db:"file_name"`
	Markdown           sql.NullString `db:"markdown"`
	StructuredData     JSONColumn     `db:"structured_data"`
	Description        sql.NullString `db:"description"`
	OriginalExtraction string         `db:"original_extraction"`
	Pages              int            `db:"pages"`
	CreatedAt          time.Time      `db:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at"`
}

// Quiz is the persistence model for one generated quiz.
type Quiz struct {
	ID             string     `db:"id"`
	QuizNumber     int        `db:"quiz_number"`
	SourceID       string     `db:"source_id"`
	Questions      JSONColumn `db:"questions"`
	RawText        string     `db:"raw_text"`
	Attempted      bool       `db:"attempted"`
	QuestionScores JSONColumn `db:"question_scores"`
	Score          JSONColumn `db:"score"`
	IsAdaptive     bool       `db:"is_adaptive"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}
