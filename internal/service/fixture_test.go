package service

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"wellcoach_backend/internal/catalog"
	"wellcoach_backend/internal/config"
	"wellcoach_backend/internal/model"
	"wellcoach_backend/internal/repository"
	"wellcoach_backend/internal/testutil"

	"gorm.io/gorm"
)

func testModules() []model.TrainingModule {
	return []model.TrainingModule{
		{
			ID:       "m1",
			Number:   1,
			Title:    "Foundations of Wellbeing",
			Required: true,
			Sections: []model.ModuleSection{
				{ID: "s1", Order: 1, Title: "One", Exercises: []model.Exercise{
					{ID: "e1", Type: model.ExReflection, Title: "Reflect"},
				}},
				{ID: "s2", Order: 2, Title: "Two", Exercises: []model.Exercise{
					{ID: "e2", Type: model.ExQuiz, Title: "Quiz", Config: map[string]any{
						"answer_key": map[string]any{"q1": "cortisol", "q2": "true"},
					}},
				}},
				{ID: "s3", Order: 3, Title: "Three", Exercises: []model.Exercise{
					{ID: "e3", Type: model.ExGratitude, Title: "Gratitude"},
					{ID: "e4", Type: model.ExBreathing, Title: "Breathe"},
				}},
			},
			Resources: []model.ModuleResource{
				{ID: "r1", Title: "Workbook", Kind: model.ResourcePDF, URL: "https://example.com/w.pdf"},
			},
		},
		{
			ID:            "m2",
			Number:        2,
			Title:         "Mindful Awareness",
			Required:      true,
			Prerequisites: []string{"m1"},
			Sections: []model.ModuleSection{
				{ID: "m2s1", Order: 1, Title: "Only", Exercises: []model.Exercise{
					{ID: "m2e1", Type: model.ExMindfulness},
				}},
			},
		},
		{
			ID:     "m3",
			Number: 3,
			Title:  "Sustainable Habits",
			Sections: []model.ModuleSection{
				{ID: "m3s1", Order: 1, Title: "Only"},
			},
		},
	}
}

type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{objects: make(map[string][]byte)}
}

func (m *memStorage) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = buf.Bytes()
	return m.GetURL(key), nil
}

func (m *memStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memStorage) GetURL(key string) string {
	return "mem://" + key
}

func (m *memStorage) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

type fixture struct {
	db          *gorm.DB
	clock       *testutil.Clock
	storage     *memStorage
	progress    *ProgressService
	exercise    *ExerciseService
	certs       *CertificateService
	annotations *AnnotationService
	overview    *OverviewService
	resources   *ResourceService
}

func newFixture(t *testing.T, training config.TrainingConfig) *fixture {
	t.Helper()

	cat, err := catalog.New(testModules())
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	db := testutil.NewDB(t)
	clock := testutil.NewClock()
	storage := newMemStorage()

	progressRepo := repository.NewProgressRepository(db)
	submissionRepo := repository.NewExerciseSubmissionRepository(db)
	certRepo := repository.NewCertificateRepository(db)

	annotations := NewAnnotationService(cat, repository.NewBookmarkRepository(db), repository.NewNoteRepository(db))
	annotations.now = clock.Now

	progress := NewProgressService(cat, progressRepo, annotations, &training)
	progress.now = clock.Now

	exercise := NewExerciseService(cat, submissionRepo, progress, NewScoringRegistry(), NewFeedbackPolicy(nil))
	exercise.now = clock.Now

	certs := NewCertificateService(cat, progressRepo, certRepo, storage, NewCertificateRenderer(), nil, &training)
	certs.now = clock.Now

	resources := NewResourceService(cat, repository.NewResourceDownloadRepository(db))
	resources.now = clock.Now

	return &fixture{
		db:          db,
		clock:       clock,
		storage:     storage,
		progress:    progress,
		exercise:    exercise,
		certs:       certs,
		annotations: annotations,
		overview:    NewOverviewService(cat, progress, certRepo, submissionRepo),
		resources:   resources,
	}
}

// completeModule 完成模块全部小节
func (f *fixture) completeModule(t *testing.T, userID, moduleID string, sections ...string) {
	t.Helper()
	for _, s := range sections {
		if _, err := f.progress.CompleteSection(context.Background(), userID, moduleID, s); err != nil {
			t.Fatalf("complete section %s: %v", s, err)
		}
	}
}
