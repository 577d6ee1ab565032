package repository

import (
	"context"
	"testing"
	"time"

	"snapstudy/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quizRowColumns = []string{
	"id", "quiz_number", "source_id", "questions", "raw_text", "attempted",
	"question_scores", "score", "is_adaptive", "created_at", "updated_at",
}

const storedQuestions = `[{"id":"q1","type":"mcq","question":"Q1",` +
	`"options":[{"id":"a","text":"A"},{"id":"b","text":"B"}],"correctAnswer":"a"}]`

func sampleQuiz() *domain.Quiz {
	return &domain.Quiz{
		ID:         "qz1",
		QuizNumber: 1,
		SourceID:   "an1",
		Questions: []domain.Question{
			{ID: "q1", Type: domain.QuestionTypeMCQ, Question: "Q1",
				Options:       []domain.Option{{ID: "a", Text: "A"}, {ID: "b", Text: "B"}},
				CorrectAnswer: "a"},
		},
		RawText:   "raw model output",
		Timestamp: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
}

func TestQuizSave(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewQuizDatabaseAdapter(db)

	mock.ExpectExec(`(?s)INSERT INTO quizzes`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Save(context.Background(), sampleQuiz()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuizGetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewQuizDatabaseAdapter(db)

	created := time.Now()
	rows := sqlmock.NewRows(quizRowColumns).AddRow(
		"qz1", 3, "an1", storedQuestions, "raw", true,
		`[{"questionId":"q1","question":"Q1","correct":true}]`,
		`{"obtained":1,"total":1,"percentage":100}`,
		true, created, created,
	)
	mock.ExpectQuery(`(?s)SELECT.+FROM quizzes WHERE id = \?`).
		WithArgs("qz1").
		WillReturnRows(rows)

	quiz, err := repo.GetByID(context.Background(), "qz1")
	require.NoError(t, err)
	require.NotNil(t, quiz)

	assert.Equal(t, 3, quiz.QuizNumber)
	assert.True(t, quiz.Attempted)
	assert.True(t, quiz.IsAdaptive)
	require.Len(t, quiz.Questions, 1)
	assert.Equal(t, "a", quiz.Questions[0].CorrectAnswer)
	require.Len(t, quiz.QuestionScores, 1)
	require.NotNil(t, quiz.Score)
	assert.Equal(t, 100.0, quiz.Score.Percentage)
}

func TestQuizGetByIDAbsent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewQuizDatabaseAdapter(db)

	mock.ExpectQuery(`(?s)SELECT.+FROM quizzes WHERE id = \?`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(quizRowColumns))

	quiz, err := repo.GetByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, quiz)
}

func TestQuizGetBySourceID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewQuizDatabaseAdapter(db)

	created := time.Now()
	rows := sqlmock.NewRows(quizRowColumns).
		AddRow("qz1", 1, "an1", storedQuestions, "raw", false, nil, nil, false, created, created).
		AddRow("qz2", 2, "an1", storedQuestions, "raw", false, nil, nil, false, created, created)
	mock.ExpectQuery(`(?s)SELECT.+FROM quizzes WHERE source_id = \? ORDER BY quiz_number ASC`).
		WithArgs("an1").
		WillReturnRows(rows)

	quizzes, err := repo.GetBySourceID(context.Background(), "an1")
	require.NoError(t, err)
	require.Len(t, quizzes, 2)
	assert.Equal(t, 1, quizzes[0].QuizNumber)
	assert.Nil(t, quizzes[0].Score)
	assert.Empty(t, quizzes[0].QuestionScores)
}

func TestQuizCountBySourceID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewQuizDatabaseAdapter(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM quizzes WHERE source_id = \?`).
		WithArgs("an1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	count, err := repo.CountBySourceID(context.Background(), "an1")
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestQuizUpdateRecordsAttempt(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewQuizDatabaseAdapter(db)

	quiz := sampleQuiz()
	quiz.Attempted = true
	quiz.QuestionScores = []domain.ScoreEntry{{QuestionID: "q1", Correct: true}}
	quiz.Score = &domain.Score{Obtained: 1, Total: 1, Percentage: 100}

	mock.ExpectExec(`(?s)UPDATE quizzes SET.+WHERE id = \? AND attempted = 0`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Update(context.Background(), quiz))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuizUpdateAlreadyAttemptedRow(t *testing.T) {
	// The attempted = 0 guard makes a second submission touch zero rows.
	db, mock := newMockDB(t)
	repo := NewQuizDatabaseAdapter(db)

	mock.ExpectExec(`(?s)UPDATE quizzes SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), sampleQuiz())
	var derr *domain.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.CodeQuizAttempted, derr.Code)
}
