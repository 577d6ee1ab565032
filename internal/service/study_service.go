package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"snapstudy/internal/adaptive"
	"snapstudy/internal/domain"
	"snapstudy/internal/dto"
	"snapstudy/internal/logger"
	"snapstudy/internal/normalize"
	"snapstudy/internal/prompt"
	"snapstudy/internal/repair"
	"snapstudy/internal/structurer"
	"snapstudy/internal/util"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Default question mix when the request does not specify one.
const (
	defaultQuestionCount = 10
	defaultMCQCount      = 7
)

// StudyService sequences the extract -> structure -> quiz-generate
// pipeline, applies the recovery engines to each model response, and
// persists the final entities. Stages never fail on malformed content;
// they fail only on broken call setup or transport.
type StudyService interface {
	AnalyzeImages(ctx context.Context, images []domain.ImageInput) (*dto.AnalysisResponse, error)
	Restructure(ctx context.Context, analysisID string) (*dto.AnalysisResponse, error)
	GetAnalysis(ctx context.Context, analysisID string) (*dto.AnalysisResponse, error)
	ListAnalyses(ctx context.Context) (*dto.AnalysisListResponse, error)

	GenerateQuiz(ctx context.Context, sourceID string, req *dto.GenerateQuizRequest) (*dto.QuizResponse, error)
	GetQuiz(ctx context.Context, quizID string) (*dto.QuizResponse, error)
	ListQuizzes(ctx context.Context, sourceID string) (*dto.QuizListResponse, error)
	SubmitQuiz(ctx context.Context, quizID string, req *dto.SubmitQuizRequest) (*dto.QuizResultResponse, error)
}

type studyService struct {
	model           domain.ModelClient
	analyses        domain.AnalysisRepository
	quizzes         domain.QuizRepository
	extractionCache ExtractionCacheService
}

// NewStudyService creates a new StudyService instance.
func NewStudyService(
	model domain.ModelClient,
	analyses domain.AnalysisRepository,
	quizzes domain.QuizRepository,
	extractionCache ExtractionCacheService,
) StudyService {
	return &studyService{
		model:           model,
		analyses:        analyses,
		quizzes:         quizzes,
		extractionCache: extractionCache,
	}
}

// AnalyzeImages runs the full extract+structure round trip over a batch of
// uploaded note photographs. Extraction calls are issued concurrently; the
// single structuring call runs strictly after all extractions resolve.
func (s *studyService) AnalyzeImages(ctx context.Context, images []domain.ImageInput) (*dto.AnalysisResponse, error) {
	l := logger.Get()
	if len(images) == 0 {
		return nil, domain.NewError(domain.CodeNoImages, "At least one image is required", nil)
	}

	// Fire all extractions, await all. Results stay in page order.
	pages := make([]string, len(images))
	g, gctx := errgroup.WithContext(ctx)
	for i := range images {
		i := i
		g.Go(func() error {
			img := images[i]
			if text, ok := s.extractionCache.GetExtraction(gctx, img.Data); ok {
				pages[i] = text
				return nil
			}
			text, err := s.model.GenerateFromImage(gctx, prompt.Extraction, img.MIMEType, img.Data)
			if err != nil {
				return fmt.Errorf("extraction failed for %s: %w", img.FileName, err)
			}
			pages[i] = text
			s.extractionCache.PutExtraction(gctx, img.Data, text)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		l.Error("batch extraction failed", zap.Error(err), zap.Int("images", len(images)))
		return nil, err
	}

	combined := prompt.JoinPages(pages)
	l.Info("extraction complete",
		zap.Int("pages", len(pages)),
		zap.Int("combined_len", len(combined)))

	// A transport failure here aborts the stage: nothing is persisted. A
	// successful call whose payload refuses to parse degrades instead.
	structured, err := s.model.GenerateText(ctx, prompt.ForStructuring(combined))
	if err != nil {
		return nil, err
	}
	tree := structurer.Structure(structured)

	result := &domain.AnalysisResult{
		ID:                 util.NewULID(),
		FileName:           images[0].FileName,
		Timestamp:          time.Now(),
		StructuredData:     tree,
		OriginalExtraction: combined,
		Pages:              len(images),
	}
	if tree == nil {
		// Keep the structuring response as display markdown; it often is
		// readable even when it is not the JSON we asked for.
		result.Markdown = repair.StripFences(structured)
		l.Warn("structuring degraded to raw text", zap.String("analysis_id", result.ID))
	}

	if err := result.Validate(); err != nil {
		return nil, err
	}
	if err := s.analyses.Save(ctx, result); err != nil {
		return nil, domain.NewInternalError("Failed to persist analysis result", err)
	}

	l.Info("analysis persisted",
		zap.String("analysis_id", result.ID),
		zap.Bool("structured", tree != nil),
		zap.Int("pages", result.Pages))
	return toAnalysisResponse(result), nil
}

// Restructure re-runs the structuring call over a stored result's original
// extraction text. This is the only mutation an analysis result permits.
func (s *studyService) Restructure(ctx context.Context, analysisID string) (*dto.AnalysisResponse, error) {
	result, err := s.analyses.GetByID(ctx, analysisID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load analysis result", err)
	}
	if result == nil {
		return nil, domain.NewAnalysisNotFoundError(analysisID)
	}

	structured, err := s.model.GenerateText(ctx, prompt.ForStructuring(result.OriginalExtraction))
	if err != nil {
		return nil, err
	}
	tree := structurer.Structure(structured)
	result.StructuredData = tree
	if tree == nil {
		result.Markdown = repair.StripFences(structured)
	} else {
		result.Markdown = ""
	}

	if err := s.analyses.Update(ctx, result); err != nil {
		return nil, err
	}
	return toAnalysisResponse(result), nil
}

func (s *studyService) GetAnalysis(ctx context.Context, analysisID string) (*dto.AnalysisResponse, error) {
	result, err := s.analyses.GetByID(ctx, analysisID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load analysis result", err)
	}
	if result == nil {
		return nil, domain.NewAnalysisNotFoundError(analysisID)
	}
	return toAnalysisResponse(result), nil
}

func (s *studyService) ListAnalyses(ctx context.Context) (*dto.AnalysisListResponse, error) {
	results, err := s.analyses.GetAll(ctx)
	if err != nil {
		return nil, domain.NewInternalError("Failed to list analysis results", err)
	}
	resp := &dto.AnalysisListResponse{Analyses: make([]dto.AnalysisResponse, 0, len(results))}
	for _, result := range results {
		resp.Analyses = append(resp.Analyses, *toAnalysisResponse(result))
	}
	return resp, nil
}

// GenerateQuiz creates the next quiz for a source. When the source has
// attempted quizzes, the generation prompt is biased by the performance
// profile mined from them; otherwise the standard prompt is used.
func (s *studyService) GenerateQuiz(ctx context.Context, sourceID string, req *dto.GenerateQuizRequest) (*dto.QuizResponse, error) {
	l := logger.Get()

	source, err := s.analyses.GetByID(ctx, sourceID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load analysis result", err)
	}
	if source == nil {
		return nil, domain.NewAnalysisNotFoundError(sourceID)
	}

	total, mcq, subjective := questionMix(req)

	history, err := s.quizzes.GetBySourceID(ctx, sourceID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load quiz history", err)
	}
	profile := adaptive.Analyze(history, sourceID)
	directives := adaptive.Directives(profile)

	rawText, err := s.model.GenerateText(ctx, prompt.ForQuiz(total, mcq, subjective, directives, notesText(source)))
	if err != nil {
		return nil, err
	}

	// Malformed content is never fatal: repair recovers what it can and
	// normalization fills the gaps.
	parsed := repair.ToArray(rawText)
	normalized := normalize.Normalize(parsed)
	if len(normalized.Questions) == 0 {
		l.Error("quiz generation produced no usable questions",
			zap.String("source_id", sourceID),
			zap.Int("dropped", normalized.Dropped),
			zap.Int("raw_len", len(rawText)))
		return nil, domain.NewGenerationFailedError("The model response contained no usable questions")
	}

	count, err := s.quizzes.CountBySourceID(ctx, sourceID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to count quizzes", err)
	}

	quiz := &domain.Quiz{
		ID:         util.NewULID(),
		QuizNumber: count + 1,
		SourceID:   sourceID,
		Questions:  normalized.Questions,
		RawText:    rawText,
		Timestamp:  time.Now(),
		Attempted:  false,
		IsAdaptive: profile != nil,
	}
	if err := quiz.Validate(); err != nil {
		return nil, err
	}
	if err := s.quizzes.Save(ctx, quiz); err != nil {
		return nil, domain.NewInternalError("Failed to persist quiz", err)
	}

	l.Info("quiz generated",
		zap.String("quiz_id", quiz.ID),
		zap.String("source_id", sourceID),
		zap.Int("questions", len(quiz.Questions)),
		zap.Bool("adaptive", quiz.IsAdaptive))
	return toQuizResponse(quiz), nil
}

func (s *studyService) GetQuiz(ctx context.Context, quizID string) (*dto.QuizResponse, error) {
	quiz, err := s.quizzes.GetByID(ctx, quizID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load quiz", err)
	}
	if quiz == nil {
		return nil, domain.NewQuizNotFoundError(quizID)
	}
	return toQuizResponse(quiz), nil
}

func (s *studyService) ListQuizzes(ctx context.Context, sourceID string) (*dto.QuizListResponse, error) {
	quizzes, err := s.quizzes.GetBySourceID(ctx, sourceID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to list quizzes", err)
	}
	resp := &dto.QuizListResponse{Quizzes: make([]dto.QuizResponse, 0, len(quizzes))}
	for _, quiz := range quizzes {
		resp.Quizzes = append(resp.Quizzes, *toQuizResponse(quiz))
	}
	return resp, nil
}

// SubmitQuiz grades a completed quiz and records the attempt. A quiz can
// be completed exactly once; afterwards it is load-for-review only.
func (s *studyService) SubmitQuiz(ctx context.Context, quizID string, req *dto.SubmitQuizRequest) (*dto.QuizResultResponse, error) {
	quiz, err := s.quizzes.GetByID(ctx, quizID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load quiz", err)
	}
	if quiz == nil {
		return nil, domain.NewQuizNotFoundError(quizID)
	}
	if quiz.Attempted {
		return nil, domain.NewQuizAttemptedError(quizID)
	}

	obtained := 0
	scores := make([]domain.ScoreEntry, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		answer := req.Answers[q.ID]
		correct := false
		switch q.Type {
		case domain.QuestionTypeMCQ:
			correct = answer != "" && answer == q.CorrectAnswer
		case domain.QuestionTypeSubjective:
			// Subjective questions are self-assessed against the sample answer.
			correct = req.SelfScores[q.ID]
		}
		if correct {
			obtained++
		}
		scores = append(scores, domain.ScoreEntry{
			QuestionID: q.ID,
			Question:   q.Question,
			Correct:    correct,
			UserAnswer: answer,
			Topic:      q.Topic,
		})
	}

	total := len(quiz.Questions)
	quiz.Attempted = true
	quiz.QuestionScores = scores
	quiz.Score = &domain.Score{
		Obtained:   obtained,
		Total:      total,
		Percentage: float64(obtained) / float64(total) * 100,
	}

	if err := s.quizzes.Update(ctx, quiz); err != nil {
		return nil, err
	}

	logger.Get().Info("quiz attempt recorded",
		zap.String("quiz_id", quizID),
		zap.Int("obtained", obtained),
		zap.Int("total", total))
	return &dto.QuizResultResponse{
		QuizID:         quizID,
		Score:          *quiz.Score,
		QuestionScores: scores,
	}, nil
}

func questionMix(req *dto.GenerateQuizRequest) (total, mcq, subjective int) {
	total = defaultQuestionCount
	mcq = defaultMCQCount
	if req != nil && req.QuestionCount > 0 {
		total = req.QuestionCount
		if total > 30 {
			total = 30
		}
		mcq = total * defaultMCQCount / defaultQuestionCount
	}
	// An explicit mcq count wins; otherwise an explicit subjective count
	// carves its share out of the total.
	if req != nil && req.MCQCount > 0 && req.MCQCount <= total {
		mcq = req.MCQCount
	} else if req != nil && req.SubjCount > 0 && req.SubjCount <= total {
		mcq = total - req.SubjCount
	}
	subjective = total - mcq
	return total, mcq, subjective
}

// notesText picks the best available text form of the source notes for the
// generation prompt: the structured tree rendered as an outline, else
// markdown, else the original extraction.
func notesText(source *domain.AnalysisResult) string {
	if source.HasTree() {
		var b strings.Builder
		for _, topic := range source.StructuredData {
			fmt.Fprintf(&b, "# %s\n", topic.Title)
			for _, sub := range topic.Subtopics {
				fmt.Fprintf(&b, "## %s\n", sub.Title)
				for _, concept := range sub.Concepts {
					fmt.Fprintf(&b, "- %s: %s\n", concept.Name, concept.Definition)
					for _, f := range concept.Formulae {
						fmt.Fprintf(&b, "  formula: %s\n", f)
					}
					for _, e := range concept.Examples {
						fmt.Fprintf(&b, "  example: %s\n", e)
					}
				}
			}
		}
		return b.String()
	}
	if source.Markdown != "" {
		return source.Markdown
	}
	return source.OriginalExtraction
}

func toAnalysisResponse(result *domain.AnalysisResult) *dto.AnalysisResponse {
	return &dto.AnalysisResponse{
		ID:                 result.ID,
		FileName:           result.FileName,
		Timestamp:          result.Timestamp,
		Markdown:           result.Markdown,
		StructuredData:     result.StructuredData,
		Description:        result.Description,
		OriginalExtraction: result.OriginalExtraction,
		Pages:              result.Pages,
		Degraded:           !result.HasTree(),
	}
}

func toQuizResponse(quiz *domain.Quiz) *dto.QuizResponse {
	return &dto.QuizResponse{
		ID:         quiz.ID,
		QuizNumber: quiz.QuizNumber,
		SourceID:   quiz.SourceID,
		Questions:  quiz.Questions,
		Timestamp:  quiz.Timestamp,
		Attempted:  quiz.Attempted,
		IsAdaptive: quiz.IsAdaptive,
		Scores:     quiz.QuestionScores,
		Score:      quiz.Score,
	}
}
