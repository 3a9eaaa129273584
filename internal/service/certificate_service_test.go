package service

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"wellcoach_backend/internal/config"
	"wellcoach_backend/internal/model"
	"wellcoach_backend/internal/util"
)

var certificateNumberPattern = regexp.MustCompile(`^WT-\d+-[0-9A-F]{8}$`)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func TestGenerateCertificateRequiresCompletion(t *testing.T) {
	f := newFixture(t, config.TrainingConfig{})
	ctx := context.Background()

	if _, err := f.certs.GenerateCertificate(ctx, "u1", "m1", "Ada"); !errors.Is(err, util.ErrCertificateNotAllowed) {
		t.Fatalf("no progress: expected ErrCertificateNotAllowed, got %v", err)
	}

	f.completeModule(t, "u1", "m1", "s1", "s2")
	if _, err := f.certs.GenerateCertificate(ctx, "u1", "m1", "Ada"); !errors.Is(err, util.ErrCertificateNotAllowed) {
		t.Fatalf("in progress: expected ErrCertificateNotAllowed, got %v", err)
	}
	if _, err := f.certs.GenerateCertificate(ctx, "u1", "nope", "Ada"); !errors.Is(err, util.ErrCertificateNotAllowed) {
		t.Fatalf("unknown module: expected ErrCertificateNotAllowed, got %v", err)
	}

	var count int64
	f.db.Model(&model.ModuleCertificate{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected no certificates, got %d", count)
	}
	if f.storage.count() != 0 {
		t.Fatalf("expected no uploads, got %d", f.storage.count())
	}
}

func TestGenerateCertificate(t *testing.T) {
	f := newFixture(t, config.TrainingConfig{})
	ctx := context.Background()

	if _, err := f.exercise.SubmitExercise(ctx, "u1", "m1", "e1", SubmitExerciseRequest{
		Responses: map[string]any{"a": "x"},
		TimeSpent: intPtr(300),
	}); err != nil {
		t.Fatal(err)
	}
	f.completeModule(t, "u1", "m1", "s1", "s2", "s3")

	cert, err := f.certs.GenerateCertificate(ctx, "u1", "m1", "  Ada Lovelace ")
	if err != nil {
		t.Fatal(err)
	}
	if !certificateNumberPattern.MatchString(cert.CertificateNumber) {
		t.Fatalf("unexpected certificate number %q", cert.CertificateNumber)
	}
	meta := cert.Metadata.Data()
	if meta.ModuleTitle != "Foundations of Wellbeing" || meta.ModuleNumber != 1 {
		t.Fatalf("unexpected module metadata %+v", meta)
	}
	if meta.RecipientName != "Ada Lovelace" {
		t.Fatalf("recipient name not trimmed: %q", meta.RecipientName)
	}
	if meta.CompletionTime != 300 {
		t.Fatalf("expected completion time 300, got %d", meta.CompletionTime)
	}
	if meta.SectionsCompleted != 3 || meta.TotalSections != 3 {
		t.Fatalf("unexpected sections %d/%d", meta.SectionsCompleted, meta.TotalSections)
	}
	if meta.ExercisesCompleted != 1 || meta.TotalExercises != 4 {
		t.Fatalf("unexpected exercises %d/%d", meta.ExercisesCompleted, meta.TotalExercises)
	}
	if meta.StartedAt == nil || meta.CompletedAt == nil {
		t.Fatal("expected start and completion timestamps")
	}

	if f.storage.count() != 1 || cert.FileURL == "" {
		t.Fatalf("expected uploaded image, got %d objects url %q", f.storage.count(), cert.FileURL)
	}

	again, err := f.certs.GenerateCertificate(ctx, "u1", "m1", "Someone Else")
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != cert.ID || again.CertificateNumber != cert.CertificateNumber {
		t.Fatalf("expected the same certificate, got %s", again.CertificateNumber)
	}
	if again.FileURL != cert.FileURL {
		t.Fatalf("file url not persisted: %q", again.FileURL)
	}
	if again.Metadata.Data().RecipientName != "Ada Lovelace" {
		t.Fatal("existing certificate must not be rewritten")
	}
}

func TestGenerateCertificateConcurrent(t *testing.T) {
	f := newFixture(t, config.TrainingConfig{})
	f.completeModule(t, "u1", "m3", "m3s1")

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers = map[string]bool{}
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cert, err := f.certs.GenerateCertificate(context.Background(), "u1", "m3", "Ada")
			if err != nil {
				t.Errorf("generate: %v", err)
				return
			}
			mu.Lock()
			numbers[cert.CertificateNumber] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(numbers) != 1 {
		t.Fatalf("expected a single certificate number, got %v", numbers)
	}
	var count int64
	f.db.Model(&model.ModuleCertificate{}).Where("user_id = ? AND module_id = ?", "u1", "m3").Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 certificate row, got %d", count)
	}
}

func TestCompletionSeconds(t *testing.T) {
	f := newFixture(t, config.TrainingConfig{})
	start := f.clock.Now()
	end := start.Add(90 * time.Second)

	if got := completionSeconds(&model.UserModuleProgress{TimeSpent: 42, StartedAt: &start, CompletedAt: &end}); got != 42 {
		t.Errorf("expected time spent, got %d", got)
	}
	if got := completionSeconds(&model.UserModuleProgress{StartedAt: &start, CompletedAt: &end}); got != 90 {
		t.Errorf("expected elapsed 90, got %d", got)
	}
	if got := completionSeconds(&model.UserModuleProgress{}); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
}

func TestListAndVerifyCertificates(t *testing.T) {
	f := newFixture(t, config.TrainingConfig{})
	ctx := context.Background()

	list, err := f.certs.ListCertificates(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if list == nil || len(list) != 0 {
		t.Fatalf("expected empty list, got %v", list)
	}

	f.completeModule(t, "u1", "m1", "s1", "s2", "s3")
	f.completeModule(t, "u1", "m3", "m3s1")
	c1, err := f.certs.GenerateCertificate(ctx, "u1", "m1", "Ada")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.certs.GenerateCertificate(ctx, "u1", "m3", "Ada"); err != nil {
		t.Fatal(err)
	}

	list, err = f.certs.ListCertificates(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 certificates, got %d", len(list))
	}

	v, err := f.certs.VerifyCertificate(ctx, c1.CertificateNumber)
	if err != nil {
		t.Fatal(err)
	}
	if !v.Valid || v.ModuleID != "m1" || v.RecipientName != "Ada" {
		t.Fatalf("unexpected verification %+v", v)
	}
	if _, err := f.certs.VerifyCertificate(ctx, "WT-0-DEADBEEF"); !errors.Is(err, util.ErrCertificateNotFound) {
		t.Fatalf("expected ErrCertificateNotFound, got %v", err)
	}
}

func TestRenderCertificate(t *testing.T) {
	f := newFixture(t, config.TrainingConfig{})
	ctx := context.Background()

	f.completeModule(t, "u1", "m3", "m3s1")
	cert, err := f.certs.GenerateCertificate(ctx, "u1", "m3", "")
	if err != nil {
		t.Fatal(err)
	}

	got, png, err := f.certs.RenderCertificate(ctx, "u1", cert.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != cert.ID {
		t.Fatalf("unexpected certificate %s", got.ID)
	}
	if !bytes.HasPrefix(png, pngHeader) {
		t.Fatal("expected PNG data")
	}

	if _, _, err := f.certs.RenderCertificate(ctx, "u2", cert.ID); !errors.Is(err, util.ErrCertificateNotFound) {
		t.Fatalf("other user: expected ErrCertificateNotFound, got %v", err)
	}
	if _, _, err := f.certs.RenderCertificate(ctx, "u1", "missing"); !errors.Is(err, util.ErrCertificateNotFound) {
		t.Fatalf("missing: expected ErrCertificateNotFound, got %v", err)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := map[int]string{
		0:    "under a minute",
		29:   "under a minute",
		90:   "2 min",
		600:  "10 min",
		3600: "1h 0m",
		5430: "1h 31m",
	}
	for seconds, want := range tests {
		if got := formatDuration(seconds); got != want {
			t.Errorf("formatDuration(%d) = %q, want %q", seconds, got, want)
		}
	}
}

func TestCertificateCountsOnlyCatalogExercises(t *testing.T) {
	f := newFixture(t, config.TrainingConfig{})
	ctx := context.Background()

	for _, id := range []string{"e1", "e2", "e3", "e4", "retired-1", "retired-2"} {
		if _, err := f.exercise.SubmitExercise(ctx, "u1", "m1", id, SubmitExerciseRequest{
			Responses: map[string]any{"a": "x"},
		}); err != nil {
			t.Fatalf("submit %s: %v", id, err)
		}
	}
	f.completeModule(t, "u1", "m1", "s1", "s2", "s3")

	cert, err := f.certs.GenerateCertificate(ctx, "u1", "m1", "Ada")
	if err != nil {
		t.Fatal(err)
	}
	meta := cert.Metadata.Data()
	if meta.ExercisesCompleted != 4 || meta.TotalExercises != 4 {
		t.Fatalf("exercises %d/%d, want 4/4", meta.ExercisesCompleted, meta.TotalExercises)
	}
}
