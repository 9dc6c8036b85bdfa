package graph

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteRefByCopyUsesMediaExtension(t *testing.T) {
	dir := t.TempDir()
	rel, err := WriteRefByCopy(dir, Artifact{Name: "logo", Media: "image/png", Content: []byte("PNGDATA")})
	if err != nil {
		t.Fatalf("WriteRefByCopy: %v", err)
	}
	if rel != filepath.Join("assets", "logo.png") {
		t.Fatalf("rel = %q, want assets/logo.png", rel)
	}
	data, err := os.ReadFile(filepath.Join(dir, rel))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "PNGDATA" {
		t.Fatalf("content = %q, want PNGDATA", data)
	}
}

func TestWriteRefByCopyKeepsExplicitExtension(t *testing.T) {
	dir := t.TempDir()
	rel, err := WriteRefByCopy(dir, Artifact{Name: "report.txt", Media: "image/png", Content: []byte("x")})
	if err != nil {
		t.Fatalf("WriteRefByCopy: %v", err)
	}
	if rel != filepath.Join("assets", "report.txt") {
		t.Fatalf("rel = %q, want assets/report.txt", rel)
	}
}

func TestWriteRefByCopyUnknownMediaFallsBackToBin(t *testing.T) {
	dir := t.TempDir()
	rel, err := WriteRefByCopy(dir, Artifact{Name: "blob", Media: "application/octet-stream", Content: []byte("x")})
	if err != nil {
		t.Fatalf("WriteRefByCopy: %v", err)
	}
	if rel != filepath.Join("assets", "blob.bin") {
		t.Fatalf("rel = %q, want assets/blob.bin", rel)
	}
}

func TestWriteRefByCopySanitizesPathTraversal(t *testing.T) {
	dir := t.TempDir()
	rel, err := WriteRefByCopy(dir, Artifact{Name: "../../etc/passwd", Media: "text/plain", Content: []byte("x")})
	if err != nil {
		t.Fatalf("WriteRefByCopy: %v", err)
	}
	if rel != filepath.Join("assets", "passwd.txt") {
		t.Fatalf("rel = %q, want assets/passwd.txt", rel)
	}
	if _, err := os.Stat(filepath.Join(dir, rel)); err != nil {
		t.Fatalf("expected file written inside assets dir: %v", err)
	}
}

func TestWriteRefByCopySerializesConcurrentWriters(t *testing.T) {
	dir := t.TempDir()
	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		i := i
		go func() {
			_, err := WriteRefByCopy(dir, Artifact{
				Name:    "shared.txt",
				Media:   "text/plain",
				Content: []byte{byte('a' + i)},
			})
			done <- err
		}()
	}
	for i := 0; i < 8; i++ {
		if err := <-done; err != nil {
			t.Fatalf("WriteRefByCopy: %v", err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "assets", "shared.txt")); err != nil {
		t.Fatalf("expected shared.txt to exist: %v", err)
	}
}
