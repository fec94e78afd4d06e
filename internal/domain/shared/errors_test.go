package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Error(t *testing.T) {
	assert.Equal(t, "lesson.Find: lesson not found", ErrLessonNotFound.Error())

	wrapped := WrapError("catalog", "Publish", ErrServiceUnavailable, "redis down", errors.New("dial tcp: refused"))
	assert.Equal(t, "catalog.Publish: redis down: dial tcp: refused", wrapped.Error())
}

func TestDomainError_Is(t *testing.T) {
	err := fmt.Errorf("lookup lesson99.md: %w", ErrLessonNotFound)

	assert.True(t, IsNotFound(err))
	assert.True(t, errors.Is(err, ErrLessonNotFound))
	assert.False(t, IsValidation(err))
	assert.False(t, IsRetryable(err))
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	wrapped := WrapError("catalog", "Publish", ErrServiceUnavailable, "sink failed", cause)

	assert.Equal(t, cause, errors.Unwrap(wrapped))
	assert.True(t, errors.Is(wrapped, cause))
	assert.True(t, IsRetryable(wrapped))
	assert.True(t, IsExternalService(wrapped))

	bare := NewDomainError("lesson", "Find", ErrNotFound, "missing")
	assert.Equal(t, ErrNotFound, errors.Unwrap(bare))
}

func TestValidationErrors(t *testing.T) {
	assert.True(t, IsValidation(ErrEmptyFile))
	assert.True(t, IsValidation(ErrEmptyTitle))
	assert.False(t, IsValidation(ErrDuplicateFile))
	assert.True(t, IsAlreadyExists(ErrDuplicateFile))
}
