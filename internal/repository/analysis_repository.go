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

// AnalysisDatabaseAdapter implements domain.AnalysisRepository using sqlx.DB
type AnalysisDatabaseAdapter struct {
	db *sqlx.DB
}

// NewAnalysisDatabaseAdapter creates a new instance of AnalysisDatabaseAdapter
func NewAnalysisDatabaseAdapter(db *sqlx.DB) domain.AnalysisRepository {
	return &AnalysisDatabaseAdapter{db: db}
}

const analysisColumns = `
	id, file_name, markdown, structured_data, description,
	original_extraction, pages, created_at, updated_at`

// Save implements domain.AnalysisRepository
func (a *AnalysisDatabaseAdapter) Save(ctx context.Context, result *domain.AnalysisResult) error {
	model, err := toModelAnalysis(result)
	if err != nil {
		return fmt.Errorf("failed to convert analysis result: %w", err)
	}

	query := `INSERT INTO analysis_results (
		id, file_name, markdown, structured_data, description,
		original_extraction, pages, created_at, updated_at
	) VALUES (
		:id, :file_name, :markdown, :structured_data, :description,
		:original_extraction, :pages, :created_at, :updated_at
	)`
	if _, err := a.db.NamedExecContext(ctx, query, model); err != nil {
		return fmt.Errorf("failed to save analysis result: %w", err)
	}
	return nil
}

// GetByID implements domain.AnalysisRepository
func (a *AnalysisDatabaseAdapter) GetByID(ctx context.Context, id string) (*domain.AnalysisResult, error) {
	var model models.AnalysisResult
	query := `SELECT` + analysisColumns + ` FROM analysis_results WHERE id = ?`
	if err := a.db.GetContext(ctx, &model, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get analysis result: %w", err)
	}
	return toDomainAnalysis(&model)
}

// GetAll implements domain.AnalysisRepository
func (a *AnalysisDatabaseAdapter) GetAll(ctx context.Context) ([]*domain.AnalysisResult, error) {
	var rows []models.AnalysisResult
	query := `SELECT` + analysisColumns + ` FROM analysis_results ORDER BY created_at DESC`
	if err := a.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list analysis results: %w", err)
	}

	results := make([]*domain.AnalysisResult, 0, len(rows))
	for i := range rows {
		result, err := toDomainAnalysis(&rows[i])
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

// Update implements domain.AnalysisRepository. Only re-structuring updates
// a stored result.
func (a *AnalysisDatabaseAdapter) Update(ctx context.Context, result *domain.AnalysisResult) error {
	model, err := toModelAnalysis(result)
	if err != nil {
		return fmt.Errorf("failed to convert analysis result: %w", err)
	}
	model.UpdatedAt = time.Now()

	query := `UPDATE analysis_results SET
		markdown = :markdown,
		structured_data = :structured_data,
		description = :description,
		updated_at = :updated_at
	WHERE id = :id`
	res, err := a.db.NamedExecContext(ctx, query, model)
	if err != nil {
		return fmt.Errorf("failed to update analysis result: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return domain.NewAnalysisNotFoundError(result.ID)
	}
	return nil
}

func toModelAnalysis(result *domain.AnalysisResult) (*models.AnalysisResult, error) {
	var structured models.JSONColumn
	if result.HasTree() {
		var err error
		structured, err = models.MarshalInto(result.StructuredData)
		if err != nil {
			return nil, err
		}
	}
	return &models.AnalysisResult{
		ID:                 result.ID,
		FileName:           result.FileName,
		Markdown:           toNullString(result.Markdown),
		StructuredData:     structured,
		Description:        toNullString(result.Description),
		OriginalExtraction: result.OriginalExtraction,
		Pages:              result.Pages,
		CreatedAt:          result.Timestamp,
		UpdatedAt:          result.Timestamp,
	}, nil
}

func toDomainAnalysis(model *models.AnalysisResult) (*domain.AnalysisResult, error) {
	result := &domain.AnalysisResult{
		ID:                 model.ID,
		FileName:           model.FileName,
		Timestamp:          model.CreatedAt,
		Markdown:           model.Markdown.String,
		Description:        model.Description.String,
		OriginalExtraction: model.OriginalExtraction,
		Pages:              model.Pages,
	}
	if err := model.StructuredData.UnmarshalTo(&result.StructuredData); err != nil {
		return nil, fmt.Errorf("failed to decode structured data for %s: %w", model.ID, err)
	}
	return result, nil
}

func toNullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
