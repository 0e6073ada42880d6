package storage

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sofimed-core/internal/app/config"
	"sofimed-core/internal/infrastructure/logger"
)

func newTestStorage(t *testing.T, maxBytes int64) *LocalStorage {
	t.Helper()
	cfg := &config.Config{Storage: config.StorageConfig{
		AttachmentsDir: filepath.Join(t.TempDir(), "pieces"),
		MaxUploadBytes: maxBytes,
	}}
	s, err := NewLocalStorage(cfg, logger.NewDiscardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return s
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestSaveDocumentKeepsExtension(t *testing.T) {
	s := newTestStorage(t, 1024)

	stored, err := s.Save("../../Bon de commande.PDF", strings.NewReader("%PDF-1.4 contenu"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(stored.Nom, ".pdf") || strings.Contains(stored.Nom, "Bon") {
		t.Fatalf("expected generated name with .pdf extension, got %q", stored.Nom)
	}
	if stored.Miniature != "" || stored.Taille != 16 {
		t.Fatalf("unexpected stored file %+v", stored)
	}

	path, err := s.Resolve(stored.Nom)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	content, _ := os.ReadFile(path)
	if string(content) != "%PDF-1.4 contenu" {
		t.Fatalf("unexpected content %q", content)
	}
}

func TestSaveImageCreatesThumbnail(t *testing.T) {
	s := newTestStorage(t, 1<<20)

	stored, err := s.Save("radio.png", bytes.NewReader(pngBytes(t, 640, 320)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.ContentType != "image/png" || !strings.HasPrefix(stored.Miniature, thumbnailPrefix) {
		t.Fatalf("expected png with thumbnail, got %+v", stored)
	}

	path, err := s.Resolve(stored.Miniature)
	if err != nil {
		t.Fatalf("thumbnail not found: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("thumbnail is not an image: %v", err)
	}
	if cfg.Width != thumbnailWidth || cfg.Height != 100 {
		t.Fatalf("unexpected thumbnail size %dx%d", cfg.Width, cfg.Height)
	}

	s.Remove(stored.Nom, stored.Miniature)
	if _, err := s.Resolve(stored.Nom); !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("expected removed file, got %v", err)
	}
}

func TestSaveRejectsOversizedAndEmptyFiles(t *testing.T) {
	s := newTestStorage(t, 8)

	if _, err := s.Save("a.txt", strings.NewReader("123456789")); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	if _, err := s.Save("a.txt", strings.NewReader("")); !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("expected ErrEmptyFile, got %v", err)
	}
	if _, err := s.Save("a.txt", strings.NewReader("12345678")); err != nil {
		t.Fatalf("file at the limit must be accepted: %v", err)
	}
}

func TestResolveRejectsTraversal(t *testing.T) {
	s := newTestStorage(t, 1024)

	for _, name := range []string{"../secret", "..", "a/b.pdf", `..\win.ini`, ".env", "", "a b.pdf"} {
		if _, err := s.Resolve(name); !errors.Is(err, ErrInvalidName) {
			t.Fatalf("%q: expected ErrInvalidName, got %v", name, err)
		}
	}
	if _, err := s.Resolve("absent.pdf"); !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
}
