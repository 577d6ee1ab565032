package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"snapstudy/internal/domain"
	"snapstudy/internal/repository/models"

	"github.com/jmoiron/sqlx"
)

// QuizDatabaseAdapter implements domain.QuizRepository using sqlx.DB
type QuizDatabaseAdapter struct {
	db *sqlx.DB
}

// NewQuizDatabaseAdapter creates a new instance of QuizDatabaseAdapter
func NewQuizDatabaseAdapter(db *sqlx.DB) domain.QuizRepository {
	return &QuizDatabaseAdapter{db: db}
}

const quizColumns = `
	id, quiz_number, source_id, questions, raw_text, attempted,
	question_scores, score, is_adaptive, created_at, updated_at`

// Save implements domain.QuizRepository
func (a *QuizDatabaseAdapter) Save(ctx context.Context, quiz *domain.Quiz) error {
	model, err := toModelQuiz(quiz)
	if err != nil {
		return fmt.Errorf("failed to convert quiz: %w", err)
	}

	query := `INSERT INTO quizzes (
		id, quiz_number, source_id, questions, raw_text, attempted,
		question_scores, score, is_adaptive, created_at, updated_at
	) VALUES (
		:id, :quiz_number, :source_id, :questions, :raw_text, :attempted,
		:question_scores, :score, :is_adaptive, :created_at, :updated_at
	)`
	if _, err := a.db.NamedExecContext(ctx, query, model); err != nil {
		return fmt.Errorf("failed to save quiz: %w", err)
	}
	return nil
}

// GetByID implements domain.QuizRepository
func (a *QuizDatabaseAdapter) GetByID(ctx context.Context, id string) (*domain.Quiz, error) {
	var model models.Quiz
	query := `SELECT` + quizColumns + ` FROM quizzes WHERE id = ?`
	if err := a.db.GetContext(ctx, &model, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	return toDomainQuiz(&model)
}

// GetBySourceID implements domain.QuizRepository
func (a *QuizDatabaseAdapter) GetBySourceID(ctx context.Context, sourceID string) ([]*domain.Quiz, error) {
	var rows []models.Quiz
	query := `SELECT` + quizColumns + ` FROM quizzes WHERE source_id = ? ORDER BY quiz_number ASC`
	if err := a.db.SelectContext(ctx, &rows, query, sourceID); err != nil {
		return nil, fmt.Errorf("failed to list quizzes for source: %w", err)
	}

	quizzes := make([]*domain.Quiz, 0, len(rows))
	for i := range rows {
		quiz, err := toDomainQuiz(&rows[i])
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, quiz)
	}
	return quizzes, nil
}

// CountBySourceID implements domain.QuizRepository
func (a *QuizDatabaseAdapter) CountBySourceID(ctx context.Context, sourceID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM quizzes WHERE source_id = ?`
	if err := a.db.GetContext(ctx, &count, query, sourceID); err != nil {
		return 0, fmt.Errorf("failed to count quizzes for source: %w", err)
	}
	return count, nil
}

// Update implements domain.QuizRepository. The only legal mutation is
// completing an attempt, and only while the stored row is unattempted;
// the guard in the WHERE clause makes completion atomic.
func (a *QuizDatabaseAdapter) Update(ctx context.Context, quiz *domain.Quiz) error {
	model, err := toModelQuiz(quiz)
	if err != nil {
		return fmt.Errorf("failed to convert quiz: %w", err)
	}
	model.UpdatedAt = time.Now()

	query := `UPDATE quizzes SET
		attempted = :attempted,
		question_scores = :question_scores,
		score = :score,
		updated_at = :updated_at
	WHERE id = :id AND attempted = 0`
	res, err := a.db.NamedExecContext(ctx, query, model)
	if err != nil {
		return fmt.Errorf("failed to update quiz: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return domain.NewQuizAttemptedError(quiz.ID)
	}
	return nil
}

func toModelQuiz(quiz *domain.Quiz) (*models.Quiz, error) {
	questions, err := models.MarshalInto(quiz.Questions)
	if err != nil {
		return nil, err
	}
	var scores models.JSONColumn
	if len(quiz.QuestionScores) > 0 {
		scores, err = models.MarshalInto(quiz.QuestionScores)
		if err != nil {
			return nil, err
		}
	}
	var score models.JSONColumn
	if quiz.Score != nil {
		score, err = models.MarshalInto(quiz.Score)
		if err != nil {
			return nil, err
		}
	}
	return &models.Quiz{
		ID:             quiz.ID,
		QuizNumber:     quiz.QuizNumber,
		SourceID:       quiz.SourceID,
		Questions:      questions,
		RawText:        quiz.RawText,
		Attempted:      quiz.Attempted,
		QuestionScores: scores,
		Score:          score,
		IsAdaptive:     quiz.IsAdaptive,
		CreatedAt:      quiz.Timestamp,
		UpdatedAt:      quiz.Timestamp,
	}, nil
}

func toDomainQuiz(model *models.Quiz) (*domain.Quiz, error) {
	quiz := &domain.Quiz{
		ID:         model.ID,
		QuizNumber: model.QuizNumber,
		SourceID:   model.SourceID,
		RawText:    model.RawText,
		Timestamp:  model.CreatedAt,
		Attempted:  model.Attempted,
		IsAdaptive: model.IsAdaptive,
	}
	if err := model.Questions.UnmarshalTo(&quiz.Questions); err != nil {
		return nil, fmt.Errorf("failed to decode questions for %s: %w", model.ID, err)
	}
	if err := model.QuestionScores.UnmarshalTo(&quiz.QuestionScores); err != nil {
		return nil, fmt.Errorf("failed to decode question scores for %s: %w", model.ID, err)
	}
	if len(model.Score) > 0 {
		var score domain.Score
		if err := model.Score.UnmarshalTo(&score); err != nil {
			return nil, fmt.Errorf("failed to decode score for %s: %w", model.ID, err)
		}
		quiz.Score = &score
	}
	return quiz, nil
}
