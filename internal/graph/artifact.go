package graph

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

// Artifact is a named byte object produced by EXEC or copied out by
// REF-BY-COPY (spec glossary).
type Artifact struct {
	Name    string
	Media   string
	Content []byte
}

// mediaExtensions covers the media types the bundled rulesets and S1-S6 ever
// produce or copy; anything else falls back to ".bin".
var mediaExtensions = map[string]string{
	"text/html":       ".html",
	"text/markdown":   ".md",
	"text/plain":      ".txt",
	"image/png":       ".png",
	"image/jpeg":      ".jpg",
	"image/svg+xml":   ".svg",
	"text/css":        ".css",
	"application/json": ".json",
}

func extensionFor(media string) string {
	if ext, ok := mediaExtensions[media]; ok {
		return ext
	}
	return ".bin"
}

// WriteRefByCopy materialises a REF-BY-COPY artifact at
// <outputDir>/assets/<name><ext> (spec §6), serializing concurrent writers
// across process instances with a flock lock file in outputDir — the same
// library and pattern the teacher's own daemon uses to guard its PID file
// (deeklead-horde/internal/daemon/daemon.go).
func WriteRefByCopy(outputDir string, a Artifact) (string, error) {
	assetsDir := filepath.Join(outputDir, "assets")
	if err := os.MkdirAll(assetsDir, 0o755); err != nil {
		return "", fmt.Errorf("graph: creating assets dir: %w", err)
	}

	lockPath := filepath.Join(outputDir, ".murkdown.lock")
	fileLock := flock.New(lockPath)
	if err := fileLock.Lock(); err != nil {
		return "", fmt.Errorf("graph: locking %s: %w", lockPath, err)
	}
	defer func() { _ = fileLock.Unlock() }()

	name := sanitizeAssetName(a.Name)
	ext := filepath.Ext(name)
	if ext == "" {
		ext = extensionFor(a.Media)
		name += ext
	}
	dest := filepath.Join(assetsDir, name)
	if err := os.WriteFile(dest, a.Content, 0o644); err != nil {
		return "", fmt.Errorf("graph: writing %s: %w", dest, err)
	}
	return filepath.Join("assets", name), nil
}

// sanitizeAssetName strips any directory components so a maliciously or
// accidentally path-like artifact name can't escape the assets directory.
func sanitizeAssetName(name string) string {
	name = filepath.Base(name)
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "artifact"
	}
	return strings.TrimPrefix(name, string(filepath.Separator))
}
