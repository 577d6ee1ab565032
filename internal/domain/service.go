package domain

import "context"

// ImageInput is one uploaded notes photograph.
type ImageInput struct {
	FileName string
	MIMEType string
	Data     []byte
}

// ModelClient is the port to the external multimodal model. The response
// is free-form text that downstream engines treat as best-effort.
type ModelClient interface {
	// GenerateText sends a text-only prompt and returns the raw response.
	GenerateText(ctx context.Context, prompt string) (string, error)

	// GenerateFromImage sends a prompt together with inline image bytes.
	GenerateFromImage(ctx context.Context, prompt string, mimeType string, image []byte) (string, error)
}

// AnalysisRepository defines the interface for analysis result persistence.
type AnalysisRepository interface {
	// Save persists a new analysis result
	Save(ctx context.Context, result *AnalysisResult) error

	// GetByID retrieves an analysis result by its ID; nil when absent
	GetByID(ctx context.Context, id string) (*AnalysisResult, error)

	// GetAll returns all stored analysis results, newest first
	GetAll(ctx context.Context) ([]*AnalysisResult, error)

	// Update replaces a stored analysis result (re-structuring only)
	Update(ctx context.Context, result *AnalysisResult) error
}

// QuizRepository defines the interface for quiz persistence.
type QuizRepository interface {
	// Save persists a new quiz
	Save(ctx context.Context, quiz *Quiz) error

	// GetByID retrieves a quiz by its ID; nil when absent
	GetByID(ctx context.Context, id string) (*Quiz, error)

	// GetBySourceID returns all quizzes generated from one analysis result
	GetBySourceID(ctx context.Context, sourceID string) ([]*Quiz, error)

	// CountBySourceID returns how many quizzes exist for a source
	CountBySourceID(ctx context.Context, sourceID string) (int, error)

	// Update replaces a stored quiz (attempt completion only)
	Update(ctx context.Context, quiz *Quiz) error
}
