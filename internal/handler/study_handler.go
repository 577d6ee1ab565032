package handler

import (
	"io"
	"mime/multipart"
	"strings"

	"snapstudy/internal/domain"
	"snapstudy/internal/dto"
	"snapstudy/internal/logger"
	"snapstudy/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Uploads beyond this size are rejected before reaching the model.
const maxImageBytes = 10 << 20

// StudyHandler handles the analysis and quiz HTTP endpoints
type StudyHandler struct {
	service service.StudyService
}

// NewStudyHandler creates a new StudyHandler instance
func NewStudyHandler(service service.StudyService) *StudyHandler {
	return &StudyHandler{service: service}
}

// RegisterRoutes wires the handler into the fiber app
func (h *StudyHandler) RegisterRoutes(api fiber.Router) {
	api.Post("/analyses", h.AnalyzeImages)
	api.Get("/analyses", h.ListAnalyses)
	api.Get("/analyses/:id", h.GetAnalysis)
	api.Post("/analyses/:id/restructure", h.Restructure)
	api.Post("/analyses/:id/quizzes", h.GenerateQuiz)
	api.Get("/analyses/:id/quizzes", h.ListQuizzes)
	api.Get("/quizzes/:id", h.GetQuiz)
	api.Post("/quizzes/:id/submit", h.SubmitQuiz)
}

// AnalyzeImages handles POST /api/analyses. It accepts one or more images
// in a multipart "images" field and runs the extract+structure pipeline.
func (h *StudyHandler) AnalyzeImages(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return domain.NewInvalidInputError("Request must be multipart form data")
	}
	files := form.File["images"]
	if len(files) == 0 {
		return domain.NewError(domain.CodeNoImages, "At least one image file is required", nil)
	}

	images := make([]domain.ImageInput, 0, len(files))
	for _, file := range files {
		img, err := readImageFile(file)
		if err != nil {
			return err
		}
		images = append(images, img)
	}

	logger.Get().Info("analyze request received",
		zap.Int("images", len(images)),
		zap.String("first_file", images[0].FileName))

	resp, err := h.service.AnalyzeImages(c.Context(), images)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// ListAnalyses handles GET /api/analyses
func (h *StudyHandler) ListAnalyses(c *fiber.Ctx) error {
	resp, err := h.service.ListAnalyses(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// GetAnalysis handles GET /api/analyses/:id
func (h *StudyHandler) GetAnalysis(c *fiber.Ctx) error {
	resp, err := h.service.GetAnalysis(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// Restructure handles POST /api/analyses/:id/restructure
func (h *StudyHandler) Restructure(c *fiber.Ctx) error {
	resp, err := h.service.Restructure(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// GenerateQuiz handles POST /api/analyses/:id/quizzes. The request body is
// optional; defaults produce a ten-question mixed quiz.
func (h *StudyHandler) GenerateQuiz(c *fiber.Ctx) error {
	var req dto.GenerateQuizRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return domain.NewInvalidInputError("Invalid request body")
		}
	}
	resp, err := h.service.GenerateQuiz(c.Context(), c.Params("id"), &req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// ListQuizzes handles GET /api/analyses/:id/quizzes
func (h *StudyHandler) ListQuizzes(c *fiber.Ctx) error {
	resp, err := h.service.ListQuizzes(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// GetQuiz handles GET /api/quizzes/:id
func (h *StudyHandler) GetQuiz(c *fiber.Ctx) error {
	resp, err := h.service.GetQuiz(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// SubmitQuiz handles POST /api/quizzes/:id/submit
func (h *StudyHandler) SubmitQuiz(c *fiber.Ctx) error {
	var req dto.SubmitQuizRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewInvalidInputError("Invalid request body")
	}
	if len(req.Answers) == 0 && len(req.SelfScores) == 0 {
		return domain.NewInvalidInputError("Answers are required")
	}
	resp, err := h.service.SubmitQuiz(c.Context(), c.Params("id"), &req)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

func readImageFile(file *multipart.FileHeader) (domain.ImageInput, error) {
	if file.Size > maxImageBytes {
		return domain.ImageInput{}, domain.NewInvalidInputError("Image exceeds the 10MB size limit: " + file.Filename)
	}

	mimeType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(mimeType, "image/") {
		return domain.ImageInput{}, domain.NewInvalidInputError("Unsupported file type: " + file.Filename)
	}

	f, err := file.Open()
	if err != nil {
		return domain.ImageInput{}, domain.NewInternalError("Failed to open uploaded file", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return domain.ImageInput{}, domain.NewInternalError("Failed to read uploaded file", err)
	}

	return domain.ImageInput{
		FileName: file.Filename,
		MIMEType: mimeType,
		Data:     data,
	}, nil
}
