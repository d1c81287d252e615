package utils

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManuscriptZip(t *testing.T, entries map[string]string) *bytes.Reader {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return bytes.NewReader(buf.Bytes())
}

func TestExtractManuscriptOrdersAndFilters(t *testing.T) {
	src := writeManuscriptZip(t, map[string]string{
		"02-the-storm.md":    "Rain again.",
		"01_landfall.txt":    "The ship came in at dawn.",
		"cover.png":          "not text",
		"notes/outline.docx": "skip me",
	})

	chapters, err := ExtractManuscript(src, src.Size())
	require.NoError(t, err)
	require.Len(t, chapters, 2)
	assert.Equal(t, "landfall", chapters[0].Title)
	assert.Equal(t, "The ship came in at dawn.", chapters[0].Content)
	assert.Equal(t, "the storm", chapters[1].Title)
}

func TestExtractManuscriptRejectsPathTraversal(t *testing.T) {
	src := writeManuscriptZip(t, map[string]string{
		"../evil.md": "nope",
	})

	_, err := ExtractManuscript(src, src.Size())
	assert.Error(t, err)
}

func TestChapterTitle(t *testing.T) {
	cases := map[string]string{
		"chapters/03_the-long-night.md": "the long night",
		"12-epilogue.txt":               "epilogue",
		"prologue.md":                   "prologue",
		"07.md":                         "07",
	}
	for in, want := range cases {
		assert.Equal(t, want, chapterTitle(in), in)
	}
}
