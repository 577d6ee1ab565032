package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"snapstudy/internal/domain"
	"snapstudy/internal/dto"
	"snapstudy/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStudyService struct {
	mock.Mock
}

func (m *mockStudyService) AnalyzeImages(ctx context.Context, images []domain.ImageInput) (*dto.AnalysisResponse, error) {
	args := m.Called(ctx, images)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AnalysisResponse), args.Error(1)
}

func (m *mockStudyService) Restructure(ctx context.Context, analysisID string) (*dto.AnalysisResponse, error) {
	args := m.Called(ctx, analysisID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AnalysisResponse), args.Error(1)
}

func (m *mockStudyService) GetAnalysis(ctx context.Context, analysisID string) (*dto.AnalysisResponse, error) {
	args := m.Called(ctx, analysisID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AnalysisResponse), args.Error(1)
}

func (m *mockStudyService) ListAnalyses(ctx context.Context) (*dto.AnalysisListResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AnalysisListResponse), args.Error(1)
}

func (m *mockStudyService) GenerateQuiz(ctx context.Context, sourceID string, req *dto.GenerateQuizRequest) (*dto.QuizResponse, error) {
	args := m.Called(ctx, sourceID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.QuizResponse), args.Error(1)
}

func (m *mockStudyService) GetQuiz(ctx context.Context, quizID string) (*dto.QuizResponse, error) {
	args := m.Called(ctx, quizID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.QuizResponse), args.Error(1)
}

func (m *mockStudyService) ListQuizzes(ctx context.Context, sourceID string) (*dto.QuizListResponse, error) {
	args := m.Called(ctx, sourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.QuizListResponse), args.Error(1)
}

func (m *mockStudyService) SubmitQuiz(ctx context.Context, quizID string, req *dto.SubmitQuizRequest) (*dto.QuizResultResponse, error) {
	args := m.Called(ctx, quizID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.QuizResultResponse), args.Error(1)
}

func newTestApp(svc *mockStudyService) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
	NewStudyHandler(svc).RegisterRoutes(app.Group("/api"))
	return app
}

func imageUploadRequest(t *testing.T, fileNames ...string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, name := range fileNames {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="images"; filename="`+name+`"`)
		header.Set("Content-Type", "image/jpeg")
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write([]byte("fake image bytes for " + name))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/analyses", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, v))
}

func TestAnalyzeImagesEndpoint(t *testing.T) {
	svc := new(mockStudyService)
	app := newTestApp(svc)

	svc.On("AnalyzeImages", mock.Anything, mock.MatchedBy(func(images []domain.ImageInput) bool {
		return len(images) == 2 &&
			images[0].FileName == "p1.jpg" &&
			images[0].MIMEType == "image/jpeg" &&
			len(images[0].Data) > 0
	})).Return(&dto.AnalysisResponse{ID: "an1", FileName: "p1.jpg", Pages: 2}, nil)

	resp, err := app.Test(imageUploadRequest(t, "p1.jpg", "p2.jpg"))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var body dto.AnalysisResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, "an1", body.ID)
	svc.AssertExpectations(t)
}

func TestAnalyzeImagesEndpointNoFiles(t *testing.T) {
	app := newTestApp(new(mockStudyService))

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("unrelated", "value"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/analyses", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var errBody middleware.ErrorResponse
	decodeBody(t, resp, &errBody)
	assert.Equal(t, string(domain.CodeNoImages), errBody.Code)
}

func TestAnalyzeImagesEndpointRejectsNonImage(t *testing.T) {
	app := newTestApp(new(mockStudyService))

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="images"; filename="notes.pdf"`)
	header.Set("Content-Type", "application/pdf")
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/analyses", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestGetAnalysisEndpointNotFound(t *testing.T) {
	svc := new(mockStudyService)
	app := newTestApp(svc)

	svc.On("GetAnalysis", mock.Anything, "missing").
		Return(nil, domain.NewAnalysisNotFoundError("missing"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/analyses/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestGenerateQuizEndpoint(t *testing.T) {
	svc := new(mockStudyService)
	app := newTestApp(svc)

	svc.On("GenerateQuiz", mock.Anything, "an1", &dto.GenerateQuizRequest{QuestionCount: 5}).
		Return(&dto.QuizResponse{ID: "qz1", SourceID: "an1", QuizNumber: 1, Timestamp: time.Now()}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/analyses/an1/quizzes",
		bytes.NewBufferString(`{"questionCount": 5}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var body dto.QuizResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, "qz1", body.ID)
}

func TestGenerateQuizEndpointDefaultsWithoutBody(t *testing.T) {
	svc := new(mockStudyService)
	app := newTestApp(svc)

	svc.On("GenerateQuiz", mock.Anything, "an1", &dto.GenerateQuizRequest{}).
		Return(&dto.QuizResponse{ID: "qz1"}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/analyses/an1/quizzes", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
}

func TestSubmitQuizEndpoint(t *testing.T) {
	svc := new(mockStudyService)
	app := newTestApp(svc)

	svc.On("SubmitQuiz", mock.Anything, "qz1", &dto.SubmitQuizRequest{
		Answers: map[string]string{"q1": "a"},
	}).Return(&dto.QuizResultResponse{
		QuizID: "qz1",
		Score:  domain.Score{Obtained: 1, Total: 1, Percentage: 100},
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/quizzes/qz1/submit",
		bytes.NewBufferString(`{"answers": {"q1": "a"}}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body dto.QuizResultResponse
	decodeBody(t, resp, &body)
	assert.Equal(t, 100.0, body.Score.Percentage)
}

func TestSubmitQuizEndpointRequiresAnswers(t *testing.T) {
	app := newTestApp(new(mockStudyService))

	req := httptest.NewRequest(http.MethodPost, "/api/quizzes/qz1/submit",
		bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSubmitQuizEndpointConflictWhenAttempted(t *testing.T) {
	svc := new(mockStudyService)
	app := newTestApp(svc)

	svc.On("SubmitQuiz", mock.Anything, "qz1", mock.Anything).
		Return(nil, domain.NewQuizAttemptedError("qz1"))

	req := httptest.NewRequest(http.MethodPost, "/api/quizzes/qz1/submit",
		bytes.NewBufferString(`{"answers": {"q1": "a"}}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestGenerationFailureMapsToServiceUnavailable(t *testing.T) {
	svc := new(mockStudyService)
	app := newTestApp(svc)

	svc.On("GenerateQuiz", mock.Anything, "an1", mock.Anything).
		Return(nil, domain.NewGenerationFailedError("no usable questions"))

	req := httptest.NewRequest(http.MethodPost, "/api/analyses/an1/quizzes", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}
