// utils/manuscript.go
package utils

import (
	"archive/zip"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
)

// ManuscriptChapter is one chapter extracted from an uploaded manuscript
// archive.
type ManuscriptChapter struct {
	Title   string
	Content string
}

// maxChapterSize caps a single chapter entry at 2MB of text.
const maxChapterSize = 2 * 1024 * 1024

// ExtractManuscript reads a zip of .txt/.md files and returns one chapter
// per entry, ordered by filename. Entries with path traversal in their names
// are rejected outright. Reading straight from the upload keeps manuscript
// archives off the local disk entirely.
func ExtractManuscript(src io.ReaderAt, size int64) ([]ManuscriptChapter, error) {
	r, err := zip.NewReader(src, size)
	if err != nil {
		return nil, err
	}

	// Sort by name so "01-intro.md", "02-storm.md" land in order.
	files := make([]*zip.File, len(r.File))
	copy(files, r.File)
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	var chapters []ManuscriptChapter
	for _, f := range files {
		// ✅ Security: prevent zip slip (path traversal)
		if strings.Contains(f.Name, "..") || filepath.IsAbs(f.Name) {
			return nil, fmt.Errorf("illegal file path: %s", f.Name)
		}
		if f.FileInfo().IsDir() {
			continue
		}

		ext := strings.ToLower(filepath.Ext(f.Name))
		if ext != ".txt" && ext != ".md" {
			continue
		}
		if f.UncompressedSize64 > maxChapterSize {
			return nil, fmt.Errorf("chapter %s too large (max 2MB)", f.Name)
		}

		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		content, err := io.ReadAll(io.LimitReader(rc, maxChapterSize+1))
		rc.Close()
		if err != nil {
			return nil, err
		}

		chapters = append(chapters, ManuscriptChapter{
			Title:   chapterTitle(f.Name),
			Content: string(content),
		})
	}

	return chapters, nil
}

// chapterTitle derives a human title from an archive entry name:
// "chapters/03_the-long-night.md" → "the long night".
func chapterTitle(name string) string {
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	// Strip a leading numeric ordering prefix like "03_" or "12-".
	trimmed := strings.TrimLeft(base, "0123456789")
	trimmed = strings.TrimLeft(trimmed, "-_. ")
	if trimmed != "" {
		base = trimmed
	}

	base = strings.ReplaceAll(base, "-", " ")
	base = strings.ReplaceAll(base, "_", " ")
	return strings.TrimSpace(base)
}
