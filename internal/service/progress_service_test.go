package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"wellcoach_backend/internal/config"
	"wellcoach_backend/internal/model"
	"wellcoach_backend/internal/util"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 0.01
}

func TestStartModule(t *testing.T) {
	f := newFixture(t, config.TrainingConfig{})
	ctx := context.Background()

	p, err := f.progress.StartModule(ctx, "u1", "m1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if p.Status != model.StatusInProgress {
		t.Fatalf("expected in_progress, got %s", p.Status)
	}
	if p.StartedAt == nil {
		t.Fatal("expected startedAt to be set")
	}
	if p.ProgressPercentage != 0 || len(p.CompletedSections) != 0 || len(p.CompletedExercises) != 0 {
		t.Fatalf("expected empty progress, got %+v", p)
	}

	again, err := f.progress.StartModule(ctx, "u1", "m1")
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if again.Status != model.StatusInProgress {
		t.Fatalf("expected in_progress, got %s", again.Status)
	}
	if !again.StartedAt.Equal(*p.StartedAt) {
		t.Fatalf("startedAt changed: %v -> %v", p.StartedAt, again.StartedAt)
	}
	if !again.LastAccessedAt.After(p.LastAccessedAt) {
		t.Fatalf("lastAccessedAt not refreshed: %v -> %v", p.LastAccessedAt, again.LastAccessedAt)
	}

	var count int64
	f.db.Model(&model.UserModuleProgress{}).Where("user_id = ?", "u1").Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 progress row, got %d", count)
	}
}

func TestStartModuleUnknown(t *testing.T) {
	f := newFixture(t, config.TrainingConfig{})
	if _, err := f.progress.StartModule(context.Background(), "u1", "nope"); !errors.Is(err, util.ErrModuleNotFound) {
		t.Fatalf("expected ErrModuleNotFound, got %v", err)
	}
}

func TestCompleteSectionsToCompletion(t *testing.T) {
	f := newFixture(t, config.TrainingConfig{})
	ctx := context.Background()

	if _, err := f.progress.StartModule(ctx, "u1", "m1"); err != nil {
		t.Fatal(err)
	}

	p, err := f.progress.CompleteSection(ctx, "u1", "m1", "s1")
	if err != nil {
		t.Fatal(err)
	}
	p, err = f.progress.CompleteSection(ctx, "u1", "m1", "s2")
	if err != nil {
		t.Fatal(err)
	}
	if !approx(p.ProgressPercentage, 66.67) {
		t.Fatalf("expected ~66.67%%, got %v", p.ProgressPercentage)
	}
	if p.Status != model.StatusInProgress {
		t.Fatalf("expected in_progress, got %s", p.Status)
	}
	if p.CompletedAt != nil {
		t.Fatal("completedAt set too early")
	}

	p, err = f.progress.CompleteSection(ctx, "u1", "m1", "s3")
	if err != nil {
		t.Fatal(err)
	}
	if p.ProgressPercentage != 100 {
		t.Fatalf("expected 100%%, got %v", p.ProgressPercentage)
	}
	if p.Status != model.StatusCompleted || p.CompletedAt == nil {
		t.Fatalf("expected completed with completedAt, got %s %v", p.Status, p.CompletedAt)
	}
	completedAt := *p.CompletedAt

	// 已完成后重复完成小节不改变完成时间
	p, err = f.progress.CompleteSection(ctx, "u1", "m1", "s1")
	if err != nil {
		t.Fatal(err)
	}
	if p.Status != model.StatusCompleted {
		t.Fatalf("completed must be terminal, got %s", p.Status)
	}
	if !p.CompletedAt.Equal(completedAt) {
		t.Fatalf("completedAt changed: %v -> %v", completedAt, p.CompletedAt)
	}
	if len(p.CompletedSections) != 3 {
		t.Fatalf("expected 3 sections, got %v", p.CompletedSections)
	}

	// 再次开始模块也不会回退状态
	p, err = f.progress.StartModule(ctx, "u1", "m1")
	if err != nil {
		t.Fatal(err)
	}
	if p.Status != model.StatusCompleted || !p.CompletedAt.Equal(completedAt) {
		t.Fatalf("start after completion changed state: %s %v", p.Status, p.CompletedAt)
	}
}

func TestCompleteSectionWithoutStart(t *testing.T) {
	f := newFixture(t, config.TrainingConfig{})

	p, err := f.progress.CompleteSection(context.Background(), "u1", "m1", "s2")
	if err != nil {
		t.Fatal(err)
	}
	if p.Status != model.StatusInProgress || p.StartedAt == nil {
		t.Fatalf("expected in_progress with startedAt, got %s %v", p.Status, p.StartedAt)
	}
	if !approx(p.ProgressPercentage, 33.33) {
		t.Fatalf("expected ~33.33%%, got %v", p.ProgressPercentage)
	}
}

func TestCompleteSectionErrors(t *testing.T) {
	f := newFixture(t, config.TrainingConfig{})
	ctx := context.Background()

	if _, err := f.progress.CompleteSection(ctx, "u1", "nope", "s1"); !errors.Is(err, util.ErrModuleNotFound) {
		t.Fatalf("expected ErrModuleNotFound, got %v", err)
	}
	if _, err := f.progress.CompleteSection(ctx, "u1", "m1", "m2s1"); !errors.Is(err, util.ErrSectionNotFound) {
		t.Fatalf("expected ErrSectionNotFound, got %v", err)
	}

	var count int64
	f.db.Model(&model.UserModuleProgress{}).Count(&count)
	if count != 0 {
		t.Fatalf("failed calls must not create progress, got %d rows", count)
	}
}

func TestCompleteExercise(t *testing.T) {
	f := newFixture(t, config.TrainingConfig{})
	ctx := context.Background()

	if _, err := f.progress.CompleteExercise(ctx, "u1", "m1", "e1", &model.ExerciseSubmission{TimeSpent: 30}); err != nil {
		t.Fatal(err)
	}
	p, err := f.progress.CompleteExercise(ctx, "u1", "m1", "e1", &model.ExerciseSubmission{TimeSpent: 45})
	if err != nil {
		t.Fatal(err)
	}

	if len(p.CompletedExercises) != 1 || p.CompletedExercises[0] != "e1" {
		t.Fatalf("expected [e1], got %v", p.CompletedExercises)
	}
	if p.TimeSpent != 75 {
		t.Fatalf("expected timeSpent 75, got %d", p.TimeSpent)
	}
	if len(p.CompletedSections) != 0 || p.ProgressPercentage != 0 {
		t.Fatalf("exercises must not complete sections: %v %v", p.CompletedSections, p.ProgressPercentage)
	}

	p, err = f.progress.CompleteExercise(ctx, "u1", "m1", "e2", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.CompletedExercises) != 2 || p.TimeSpent != 75 {
		t.Fatalf("unexpected progress %v %d", p.CompletedExercises, p.TimeSpent)
	}
}

func TestGetProgress(t *testing.T) {
	f := newFixture(t, config.TrainingConfig{})
	ctx := context.Background()

	if _, err := f.progress.GetProgress(ctx, "u1", "m1"); !errors.Is(err, util.ErrProgressNotFound) {
		t.Fatalf("expected ErrProgressNotFound, got %v", err)
	}
	if _, err := f.progress.GetProgress(ctx, "u1", "nope"); !errors.Is(err, util.ErrModuleNotFound) {
		t.Fatalf("expected ErrModuleNotFound, got %v", err)
	}

	f.completeModule(t, "u1", "m1", "s1")
	if _, err := f.annotations.AddBookmark(ctx, "u1", "m1", BookmarkInput{SectionID: "s1"}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.annotations.AddNote(ctx, "u1", "m1", NoteInput{Content: "breathe"}); err != nil {
		t.Fatal(err)
	}
	// 其它用户的数据不应出现
	if _, err := f.annotations.AddNote(ctx, "u2", "m1", NoteInput{Content: "other"}); err != nil {
		t.Fatal(err)
	}

	p, err := f.progress.GetProgress(ctx, "u1", "m1")
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Bookmarks) != 1 || len(p.Notes) != 1 {
		t.Fatalf("expected 1 bookmark and 1 note, got %d and %d", len(p.Bookmarks), len(p.Notes))
	}
	if !approx(p.ProgressPercentage, 33.33) {
		t.Fatalf("expected ~33.33%%, got %v", p.ProgressPercentage)
	}
}

func TestGetAllProgressRecomputes(t *testing.T) {
	f := newFixture(t, config.TrainingConfig{})
	ctx := context.Background()

	f.completeModule(t, "u1", "m1", "s1", "s2")
	f.completeModule(t, "u1", "m3", "m3s1")

	// 存储中的百分比被篡改，读取时以目录为准
	f.db.Model(&model.UserModuleProgress{}).Where("user_id = ?", "u1").Update("progress_percentage", 12)
	// 目录中不存在的模块
	f.db.Create(&model.UserModuleProgress{UserID: "u1", ModuleID: "retired", Status: model.StatusInProgress})

	list, err := f.progress.GetAllProgress(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 records, got %d", len(list))
	}
	got := map[string]model.UserModuleProgress{}
	for _, p := range list {
		got[p.ModuleID] = p
	}
	if !approx(got["m1"].ProgressPercentage, 66.67) {
		t.Fatalf("m1: expected ~66.67%%, got %v", got["m1"].ProgressPercentage)
	}
	if got["m3"].ProgressPercentage != 100 || got["m3"].Status != model.StatusCompleted {
		t.Fatalf("m3: expected completed 100%%, got %s %v", got["m3"].Status, got["m3"].ProgressPercentage)
	}
	if len(got["m1"].CompletedSections) != 2 {
		t.Fatalf("m1: expected 2 sections, got %v", got["m1"].CompletedSections)
	}
}

func TestPrerequisites(t *testing.T) {
	ctx := context.Background()

	t.Run("not enforced", func(t *testing.T) {
		f := newFixture(t, config.TrainingConfig{})
		if _, err := f.progress.StartModule(ctx, "u1", "m2"); err != nil {
			t.Fatalf("expected start without prerequisites, got %v", err)
		}
	})

	t.Run("enforced", func(t *testing.T) {
		f := newFixture(t, config.TrainingConfig{EnforcePrerequisites: true})
		if _, err := f.progress.StartModule(ctx, "u1", "m2"); !errors.Is(err, util.ErrPrerequisitesNotMet) {
			t.Fatalf("expected ErrPrerequisitesNotMet, got %v", err)
		}
		f.completeModule(t, "u1", "m1", "s1", "s2", "s3")
		if _, err := f.progress.StartModule(ctx, "u1", "m2"); err != nil {
			t.Fatalf("expected start after prerequisites, got %v", err)
		}
	})
}

func TestConcurrentSectionCompletion(t *testing.T) {
	f := newFixture(t, config.TrainingConfig{})
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 9)
	for i := 0; i < 3; i++ {
		for _, s := range []string{"s1", "s2", "s3"} {
			wg.Add(1)
			go func(section string) {
				defer wg.Done()
				if _, err := f.progress.CompleteSection(ctx, "u1", "m1", section); err != nil {
					errs <- fmt.Errorf("%s: %w", section, err)
				}
			}(s)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}

	p, err := f.progress.GetProgress(ctx, "u1", "m1")
	if err != nil {
		t.Fatal(err)
	}
	if len(p.CompletedSections) != 3 || p.Status != model.StatusCompleted || p.ProgressPercentage != 100 {
		t.Fatalf("lost update: %v %s %v", p.CompletedSections, p.Status, p.ProgressPercentage)
	}
}

func TestCompletionIgnoresIDsOutsideCatalog(t *testing.T) {
	f := newFixture(t, config.TrainingConfig{})
	ctx := context.Background()

	// 目录调整前遗留的小节记录
	stale := []model.CompletedSection{
		{UserID: "u1", ModuleID: "m1", SectionID: "old-1"},
		{UserID: "u1", ModuleID: "m1", SectionID: "old-2"},
	}
	if err := f.db.Create(&stale).Error; err != nil {
		t.Fatal(err)
	}
	if err := f.db.Create(&model.CompletedExercise{UserID: "u1", ModuleID: "m1", ExerciseID: "old-e"}).Error; err != nil {
		t.Fatal(err)
	}

	p, err := f.progress.CompleteSection(ctx, "u1", "m1", "s1")
	if err != nil {
		t.Fatal(err)
	}
	if p.Status != model.StatusInProgress || p.CompletedAt != nil {
		t.Fatalf("stale rows must not complete the module: %s %v", p.Status, p.CompletedAt)
	}
	if len(p.CompletedSections) != 1 || !approx(p.ProgressPercentage, 33.33) {
		t.Fatalf("unexpected progress %v %v", p.CompletedSections, p.ProgressPercentage)
	}
	if len(p.CompletedExercises) != 0 {
		t.Fatalf("unexpected exercises %v", p.CompletedExercises)
	}

	list, err := f.progress.GetAllProgress(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || len(list[0].CompletedSections) != 1 || len(list[0].CompletedExercises) != 0 {
		t.Fatalf("unexpected progress list %+v", list)
	}

	f.completeModule(t, "u1", "m1", "s2", "s3")
	p, err = f.progress.GetProgress(ctx, "u1", "m1")
	if err != nil {
		t.Fatal(err)
	}
	if p.Status != model.StatusCompleted || p.ProgressPercentage != 100 {
		t.Fatalf("expected completed, got %s %v", p.Status, p.ProgressPercentage)
	}
}
