package lesson

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/lesson-catalog/internal/domain/shared"
)

func sampleRecords() []Record {
	return []Record{
		{File: "lesson1.md", Title: "Урок 1. Что такое Агент"},
		{File: "lesson2.md", Title: "Урок 2. Что такое LLM"},
		{File: "lesson3.md", Title: "Урок 3. Сообщения и Специальные Токены"},
	}
}

func TestNew_RejectsInvalidRecords(t *testing.T) {
	_, err := New([]Record{{File: "", Title: "Урок 1"}})
	assert.ErrorIs(t, err, shared.ErrEmptyFile)
	assert.True(t, shared.IsValidation(err))

	_, err = New([]Record{{File: "lesson1.md", Title: ""}})
	assert.ErrorIs(t, err, shared.ErrEmptyTitle)

	_, err = New([]Record{{File: "lesson1.md", Title: "   "}})
	assert.ErrorIs(t, err, shared.ErrEmptyTitle)

	_, err = New([]Record{{File: " \t", Title: "Урок 1"}})
	assert.ErrorIs(t, err, shared.ErrEmptyFile)

	_, err = New([]Record{
		{File: "lesson1.md", Title: "Урок 1. A"},
		{File: "lesson1.md", Title: "Урок 1. B"},
	})
	assert.ErrorIs(t, err, shared.ErrDuplicateFile)
	assert.Contains(t, err.Error(), "lesson1.md")
}

func TestNew_CopiesInput(t *testing.T) {
	in := sampleRecords()
	m, err := New(in)
	require.NoError(t, err)

	in[0].Title = "changed"
	got, err := m.ByFile("lesson1.md")
	require.NoError(t, err)
	assert.Equal(t, "Урок 1. Что такое Агент", got.Title)
}

func TestMustNew_Panics(t *testing.T) {
	assert.Panics(t, func() {
		MustNew([]Record{{File: "lesson1.md"}})
	})
}

func TestManifest_AllIsDefensiveCopy(t *testing.T) {
	m := MustNew(sampleRecords())

	first := m.All()
	first[0].Title = "mutated"
	first = append(first, Record{File: "extra.md", Title: "extra"})
	assert.Len(t, first, 4)

	second := m.All()
	if diff := cmp.Diff(sampleRecords(), second); diff != "" {
		t.Errorf("All() changed after caller mutation (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, m.Count())
}

func TestManifest_ByFile(t *testing.T) {
	m := MustNew(sampleRecords())

	rec, err := m.ByFile("lesson2.md")
	require.NoError(t, err)
	assert.Equal(t, "Урок 2. Что такое LLM", rec.Title)

	_, err = m.ByFile("LESSON2.md")
	assert.True(t, shared.IsNotFound(err), "lookup must be case-sensitive")

	_, err = m.ByFile("does-not-exist.md")
	assert.ErrorIs(t, err, shared.ErrLessonNotFound)
}

func TestManifest_Empty(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Count())
	assert.Empty(t, m.All())
	assert.True(t, m.Validate().OK())
}

func TestManifest_Position(t *testing.T) {
	m := MustNew(sampleRecords())

	pos, err := m.Position("lesson3.md")
	require.NoError(t, err)
	assert.Equal(t, 3, pos)

	_, err = m.Position("lesson4.md")
	assert.True(t, shared.IsNotFound(err))
}

func TestManifest_Neighbors(t *testing.T) {
	m := MustNew(sampleRecords())

	first, err := m.Neighbors("lesson1.md")
	require.NoError(t, err)
	assert.True(t, first.IsFirst())
	assert.False(t, first.IsLast())
	require.NotNil(t, first.Next)
	assert.Equal(t, "lesson2.md", first.Next.File)
	assert.Equal(t, 1, first.Position)
	assert.Equal(t, 3, first.Total)

	middle, err := m.Neighbors("lesson2.md")
	require.NoError(t, err)
	require.NotNil(t, middle.Previous)
	require.NotNil(t, middle.Next)
	assert.Equal(t, "lesson1.md", middle.Previous.File)
	assert.Equal(t, "lesson3.md", middle.Next.File)

	last, err := m.Neighbors("lesson3.md")
	require.NoError(t, err)
	assert.True(t, last.IsLast())

	// Navigation must not leak references into the manifest.
	middle.Next.Title = "mutated"
	again, _ := m.ByFile("lesson3.md")
	assert.NotEqual(t, "mutated", again.Title)

	_, err = m.Neighbors("nope.md")
	assert.True(t, shared.IsNotFound(err))
}

func TestManifest_Fingerprint(t *testing.T) {
	a := MustNew(sampleRecords())
	b := MustNew(sampleRecords())
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.Len(t, a.Fingerprint(), 64)

	reordered := sampleRecords()
	reordered[0], reordered[1] = reordered[1], reordered[0]
	c := MustNew(reordered)
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestManifest_Snapshot(t *testing.T) {
	m := MustNew(sampleRecords())
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.FixedZone("ALMT", 5*3600))

	snap := m.Snapshot(at)
	assert.Equal(t, m.Fingerprint(), snap.Version)
	assert.Equal(t, time.UTC, snap.PublishedAt.Location())
	assert.True(t, at.Equal(snap.PublishedAt))

	snap.Records[0].File = "mutated.md"
	_, err := m.ByFile("lesson1.md")
	assert.NoError(t, err)
}
