package query

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/lesson-catalog/internal/domain/lesson"
	"github.com/alem-hub/lesson-catalog/internal/domain/shared"
)

func TestListLessons_Full(t *testing.T) {
	h := NewListLessonsHandler(lesson.Catalog())

	res, err := h.Handle(context.Background(), ListLessonsQuery{})
	require.NoError(t, err)

	assert.Equal(t, 33, res.Count)
	assert.Len(t, res.Lessons, 33)
	assert.Equal(t, lesson.Catalog().Fingerprint(), res.Version)

	first := res.Lessons[0]
	assert.Equal(t, "lesson1.md", first.File)
	assert.Equal(t, 1, first.Position)
	assert.Equal(t, 1, first.Number)
	assert.Nil(t, first.Previous)
	require.NotNil(t, first.Next)
	assert.Equal(t, "lesson2.md", first.Next.File)

	last := res.Lessons[32]
	assert.Equal(t, "lesson33.md", last.File)
	assert.Nil(t, last.Next)

	for i, l := range res.Lessons {
		assert.Equal(t, i+1, l.Position)
	}
}

func TestListLessons_Pagination(t *testing.T) {
	h := NewListLessonsHandler(lesson.Catalog())
	ctx := context.Background()

	tests := []struct {
		name      string
		q         ListLessonsQuery
		wantFiles []string
		wantLimit int
	}{
		{"first page", ListLessonsQuery{Offset: 0, Limit: 2}, []string{"lesson1.md", "lesson2.md"}, 2},
		{"middle", ListLessonsQuery{Offset: 10, Limit: 1}, []string{"lesson11.md"}, 1},
		{"tail shorter than limit", ListLessonsQuery{Offset: 31, Limit: 5}, []string{"lesson32.md", "lesson33.md"}, 5},
		{"past the end", ListLessonsQuery{Offset: 40, Limit: 5}, []string{}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := h.Handle(ctx, tt.q)
			require.NoError(t, err)

			files := make([]string, 0, len(res.Lessons))
			for _, l := range res.Lessons {
				files = append(files, l.File)
			}
			if diff := cmp.Diff(tt.wantFiles, files); diff != "" {
				t.Errorf("files mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, 33, res.Count)
			assert.Equal(t, tt.wantLimit, res.Limit)
		})
	}
}

func TestListLessons_Validation(t *testing.T) {
	h := NewListLessonsHandler(lesson.Catalog())

	_, err := h.Handle(context.Background(), ListLessonsQuery{Offset: -1})
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	assert.Contains(t, err.Error(), "offset cannot be negative")

	_, err = h.Handle(context.Background(), ListLessonsQuery{Limit: -1})
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))

	res, err := h.Handle(context.Background(), ListLessonsQuery{Limit: 1000})
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, res.Limit)
	assert.Len(t, res.Lessons, 33)
}

func TestGetLesson(t *testing.T) {
	h := NewGetLessonHandler(lesson.Catalog())

	res, err := h.Handle(context.Background(), GetLessonQuery{File: "lesson10.md"})
	require.NoError(t, err)
	assert.Equal(t, "Урок 10. Создание агента с smolagents", res.Title)
	assert.Equal(t, 10, res.Position)
	assert.Equal(t, 10, res.Number)
	assert.Equal(t, "lesson9.md", res.Previous.File)
	assert.Equal(t, "lesson11.md", res.Next.File)
}

func TestGetLesson_NotFound(t *testing.T) {
	h := NewGetLessonHandler(lesson.Catalog())

	for _, file := range []string{"lesson99.md", "LESSON1.MD", "lesson1"} {
		_, err := h.Handle(context.Background(), GetLessonQuery{File: file})
		assert.ErrorIs(t, err, shared.ErrLessonNotFound, file)
		assert.True(t, shared.IsNotFound(err), file)
	}

	_, err := h.Handle(context.Background(), GetLessonQuery{File: "  "})
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.False(t, shared.IsNotFound(err))
}
