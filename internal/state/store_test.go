package state

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestOpen_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "attachments")
	s, err := Open(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, s.Dir())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	_, err = Open("")
	assert.Error(t, err)
}

func TestCursor_MissingIsNil(t *testing.T) {
	s := openTemp(t)
	c, err := s.LoadCursor()
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestCursor_RoundTrip(t *testing.T) {
	s := openTemp(t)
	want := Cursor{ID: "m1", ReceivedDateTime: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)}
	require.NoError(t, s.SaveCursor(want))

	got, err := s.LoadCursor()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.ID, got.ID)
	assert.True(t, want.ReceivedDateTime.Equal(got.ReceivedDateTime))

	raw, err := os.ReadFile(s.Path(CursorFile))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"receivedDateTime": "2024-01-01T10:00:00Z"`)
}

func TestCursor_ReadsCompactFile(t *testing.T) {
	s := openTemp(t)
	compact := `{"id": "AAMk=", "receivedDateTime": "2024-05-06T07:08:09Z"}`
	require.NoError(t, os.WriteFile(s.Path(CursorFile), []byte(compact), 0o644))

	c, err := s.LoadCursor()
	require.NoError(t, err)
	assert.Equal(t, "AAMk=", c.ID)
	assert.Equal(t, time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC), c.ReceivedDateTime.UTC())
}

func TestCursor_Corrupt(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, os.WriteFile(s.Path(CursorFile), []byte("{not json"), 0o644))

	_, err := s.LoadCursor()
	assert.ErrorContains(t, err, "failed to parse cursor")
}

func TestAppendMatched(t *testing.T) {
	s := openTemp(t)

	first := MatchedEmail{
		Subject:          "User Creation/Modification Request",
		From:             "a@example.com",
		ReceivedDateTime: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		BodyPreview:      "<b>please</b> & thanks",
	}
	second := first
	second.From = "b@example.com"

	require.NoError(t, s.AppendMatched(first))
	require.NoError(t, s.AppendMatched(second))

	entries, err := s.LoadMatched()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a@example.com", entries[0].From)
	assert.Equal(t, "b@example.com", entries[1].From)

	raw, err := os.ReadFile(s.Path(MatchedFile))
	require.NoError(t, err)
	text := string(raw)
	assert.True(t, strings.HasPrefix(text, "[\n    {\n        \"subject\""), text)
	assert.Contains(t, text, "<b>please</b> & thanks")
}

func TestAppendMatched_EmptyFile(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, os.WriteFile(s.Path(MatchedFile), nil, 0o644))

	require.NoError(t, s.AppendMatched(MatchedEmail{Subject: "x"}))
	entries, err := s.LoadMatched()
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteAttachment(t *testing.T) {
	s := openTemp(t)

	path, err := s.WriteAttachment("form_1.pdf", []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Dir(), "form_1.pdf"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data))

	for _, bad := range []string{"", "../x.pdf", "a/b.pdf"} {
		_, err := s.WriteAttachment(bad, nil)
		assert.Error(t, err, bad)
	}
}

func TestLock_Contention(t *testing.T) {
	dir := t.TempDir()
	a, err := Open(dir)
	require.NoError(t, err)
	b, err := Open(dir)
	require.NoError(t, err)

	require.NoError(t, a.Lock())

	err = b.Lock()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLocked))

	require.NoError(t, a.Unlock())
	require.NoError(t, b.Lock())
	require.NoError(t, b.Unlock())
}

func TestUnlock_WithoutLock(t *testing.T) {
	assert.NoError(t, openTemp(t).Unlock())
}
