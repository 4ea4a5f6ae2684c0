package upload

import (
	"bytes"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })
	return form.File["file"][0]
}

func newTestStore(t *testing.T, max int64) (*Store, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "uploads")
	s, err := NewStore(dir, max)
	require.NoError(t, err)
	return s, dir
}

func TestSave(t *testing.T) {
	s, dir := newTestStore(t, 1024)

	f, err := s.Save(fileHeader(t, "Lecture Notes.TXT", []byte("binary search trees\n")))
	require.NoError(t, err)
	assert.Equal(t, "Lecture Notes.TXT", f.Name)
	assert.EqualValues(t, 20, f.Size)
	assert.True(t, strings.HasPrefix(f.Type, "text/plain"), f.Type)
	assert.Equal(t, dir, filepath.Dir(f.Path))
	assert.Equal(t, ".txt", filepath.Ext(f.Path))
	assert.True(t, s.Exists(f.Path))

	data, err := os.ReadFile(f.Path)
	require.NoError(t, err)
	assert.Equal(t, "binary search trees\n", string(data))

	img, err := s.Save(fileHeader(t, "diagram.png", pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.Type)
	assert.NotEqual(t, f.Path, img.Path)
}

func TestSave_Rejects(t *testing.T) {
	s, dir := newTestStore(t, 8)

	_, err := s.Save(nil)
	assert.ErrorIs(t, err, ErrNoFile)

	_, err = s.Save(fileHeader(t, "script.exe", []byte("MZ")))
	assert.ErrorIs(t, err, ErrInvalidFileType)

	_, err = s.Save(fileHeader(t, "noext", []byte("x")))
	assert.ErrorIs(t, err, ErrInvalidFileType)

	_, err = s.Save(fileHeader(t, "big.txt", []byte("more than eight bytes")))
	assert.ErrorIs(t, err, ErrFileTooLarge)

	lying := fileHeader(t, "lying.txt", []byte("more than eight bytes"))
	lying.Size = 1
	_, err = s.Save(lying)
	assert.ErrorIs(t, err, ErrFileTooLarge)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "rejected uploads leave nothing on disk")
}

func TestSave_StripsDirectoryFromName(t *testing.T) {
	s, dir := newTestStore(t, 1024)

	f, err := s.Save(fileHeader(t, "../../etc/notes.pdf", []byte("%PDF-1.4\n")))
	require.NoError(t, err)
	assert.Equal(t, "notes.pdf", f.Name)
	assert.Equal(t, dir, filepath.Dir(f.Path))
}

func TestRemove(t *testing.T) {
	s, _ := newTestStore(t, 1024)

	f, err := s.Save(fileHeader(t, "a.txt", []byte("hello")))
	require.NoError(t, err)

	require.NoError(t, s.Remove(f.Path))
	assert.False(t, s.Exists(f.Path))
	assert.NoError(t, s.Remove(f.Path), "removing twice is fine")
}
