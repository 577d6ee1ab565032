// Command batch_analyze runs the extract+structure pipeline over a
// directory of note photographs from the command line, treating every
// image in the directory as one multi-page document.
package main

import (
	"context"
	"flag"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"snapstudy/internal/adapter/llm"
	"snapstudy/internal/config"
	"snapstudy/internal/database"
	"snapstudy/internal/domain"
	"snapstudy/internal/logger"
	"snapstudy/internal/repository"
	"snapstudy/internal/service"

	"go.uber.org/zap"
)

func main() {
	dir := flag.String("dir", "", "directory of note images to analyze")
	quiz := flag.Bool("quiz", false, "also generate a quiz from the result")
	flag.Parse()

	if *dir == "" {
		fmt.Println("usage: batch_analyze -dir <image-directory> [-quiz]")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Initialize(cfg.Logger.Env, cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	l := logger.Get()

	images, err := loadImages(*dir)
	if err != nil {
		l.Fatal("Failed to load images", zap.Error(err))
	}
	if len(images) == 0 {
		l.Fatal("No images found in directory", zap.String("dir", *dir))
	}
	l.Info("Batch analyze starting", zap.Int("images", len(images)))

	db, err := database.NewSQLXSQLiteDB(cfg.GetDSN())
	if err != nil {
		l.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()
	if err := database.RunMigrations(db, "database/migrations"); err != nil {
		l.Fatal("Failed to run migrations", zap.Error(err))
	}

	ctx := context.Background()
	geminiClient, err := llm.NewGeminiClient(ctx, cfg.Gemini)
	if err != nil {
		l.Fatal("Failed to create Gemini client", zap.Error(err))
	}

	studyService := service.NewStudyService(
		geminiClient,
		repository.NewAnalysisDatabaseAdapter(db),
		repository.NewQuizDatabaseAdapter(db),
		service.NewExtractionCacheService(nil),
	)

	analysis, err := studyService.AnalyzeImages(ctx, images)
	if err != nil {
		l.Fatal("Analysis failed", zap.Error(err))
	}
	l.Info("Analysis complete",
		zap.String("analysis_id", analysis.ID),
		zap.Int("pages", analysis.Pages),
		zap.Bool("degraded", analysis.Degraded))

	if *quiz {
		quizResp, err := studyService.GenerateQuiz(ctx, analysis.ID, nil)
		if err != nil {
			l.Fatal("Quiz generation failed", zap.Error(err))
		}
		l.Info("Quiz generated",
			zap.String("quiz_id", quizResp.ID),
			zap.Int("questions", len(quizResp.Questions)))
	}
}

func loadImages(dir string) ([]domain.ImageInput, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(entry.Name())))
		if strings.HasPrefix(mimeType, "image/") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	images := make([]domain.ImageInput, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		images = append(images, domain.ImageInput{
			FileName: name,
			MIMEType: mime.TypeByExtension(strings.ToLower(filepath.Ext(name))),
			Data:     data,
		})
	}
	return images, nil
}
