package service

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"wellcoach_backend/internal/model"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	certWidth  = 1600
	certHeight = 1131
)

// CertificateRenderer 使用内置 Go Regular 字体绘制证书 PNG。
// truetype face 带内部缓存，不能并发使用，Render 整体串行。
type CertificateRenderer struct {
	once  sync.Once
	font  *truetype.Font
	err   error
	mu    sync.Mutex
	faces map[float64]font.Face
}

func NewCertificateRenderer() *CertificateRenderer {
	return &CertificateRenderer{faces: make(map[float64]font.Face)}
}

func (r *CertificateRenderer) face(size float64) (font.Face, error) {
	r.once.Do(func() {
		r.font, r.err = truetype.Parse(goregular.TTF)
	})
	if r.err != nil {
		return nil, r.err
	}

	if f, ok := r.faces[size]; ok {
		return f, nil
	}
	f := truetype.NewFace(r.font, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	r.faces[size] = f
	return f, nil
}

type certificateLine struct {
	text  string
	size  float64
	y     float64
	color string
}

// Render 返回 PNG 字节
func (r *CertificateRenderer) Render(cert *model.ModuleCertificate) ([]byte, error) {
	meta := cert.Metadata.Data()
	recipient := meta.RecipientName
	if recipient == "" {
		recipient = "Wellness Training Participant"
	}

	lines := []certificateLine{
		{"CERTIFICATE OF COMPLETION", 56, 250, "#2F4858"},
		{"This certifies that", 32, 380, "#555555"},
		{recipient, 72, 480, "#1B3A4B"},
		{"has successfully completed", 32, 580, "#555555"},
		{meta.ModuleTitle, 52, 670, "#33658A"},
		{fmt.Sprintf("%d of %d exercises  ·  %s of practice", meta.ExercisesCompleted, meta.TotalExercises, formatDuration(meta.CompletionTime)), 28, 760, "#555555"},
		{fmt.Sprintf("Issued %s", cert.IssuedAt.Format("January 2, 2006")), 28, 900, "#555555"},
		{fmt.Sprintf("Certificate No. %s", cert.CertificateNumber), 24, 950, "#888888"},
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	dc := gg.NewContext(certWidth, certHeight)
	dc.SetHexColor("#FBFAF5")
	dc.Clear()

	dc.SetHexColor("#86BBD8")
	dc.SetLineWidth(12)
	dc.DrawRectangle(40, 40, certWidth-80, certHeight-80)
	dc.Stroke()
	dc.SetHexColor("#F6AE2D")
	dc.SetLineWidth(3)
	dc.DrawRectangle(70, 70, certWidth-140, certHeight-140)
	dc.Stroke()

	for _, l := range lines {
		if l.text == "" {
			continue
		}
		f, err := r.face(l.size)
		if err != nil {
			return nil, fmt.Errorf("load font: %w", err)
		}
		dc.SetFontFace(f)
		dc.SetHexColor(l.color)
		dc.DrawStringAnchored(l.text, certWidth/2, l.y, 0.5, 0.5)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func formatDuration(seconds int) string {
	d := (time.Duration(seconds) * time.Second).Round(time.Minute)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case m > 0:
		return fmt.Sprintf("%d min", m)
	default:
		return "under a minute"
	}
}
