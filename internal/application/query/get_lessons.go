// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"errors"
	"strings"

	"github.com/alem-hub/lesson-catalog/internal/domain/lesson"
	"github.com/alem-hub/lesson-catalog/internal/domain/shared"
)

// MaxPageSize - максимальный размер страницы списка уроков.
const MaxPageSize = 100

// ══════════════════════════════════════════════════════════════════════════════
// DTO
// ══════════════════════════════════════════════════════════════════════════════

// NavLinkDTO - ссылка на соседний урок.
type NavLinkDTO struct {
	File  string `json:"file" yaml:"file"`
	Title string `json:"title" yaml:"title"`
}

// LessonDTO - урок с позицией в курсе и ссылками на соседей.
type LessonDTO struct {
	File  string `json:"file" yaml:"file"`
	Title string `json:"title" yaml:"title"`

	// Number - номер урока из имени файла (0, если имя нестандартное).
	Number int `json:"number,omitempty" yaml:"number,omitempty"`

	// Position - позиция в каталоге, начиная с 1.
	Position int `json:"position" yaml:"position"`

	Previous *NavLinkDTO `json:"previous,omitempty" yaml:"previous,omitempty"`
	Next     *NavLinkDTO `json:"next,omitempty" yaml:"next,omitempty"`
}

// LessonListDTO - страница каталога.
type LessonListDTO struct {
	// Count - общее количество уроков в каталоге, не на странице.
	Count int `json:"count" yaml:"count"`

	// Version - отпечаток каталога.
	Version string `json:"version" yaml:"version"`

	Offset  int         `json:"offset" yaml:"offset"`
	Limit   int         `json:"limit" yaml:"limit"`
	Lessons []LessonDTO `json:"lessons" yaml:"lessons"`
}

func toNavLink(r *lesson.Record) *NavLinkDTO {
	if r == nil {
		return nil
	}
	return &NavLinkDTO{File: r.File, Title: r.Title}
}

func toLessonDTO(nav lesson.Navigation) LessonDTO {
	number, _ := nav.Current.Number()
	return LessonDTO{
		File:     nav.Current.File,
		Title:    nav.Current.Title,
		Number:   number,
		Position: nav.Position,
		Previous: toNavLink(nav.Previous),
		Next:     toNavLink(nav.Next),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// LIST LESSONS QUERY
// Возвращает каталог уроков в порядке курса, целиком или постранично.
// ══════════════════════════════════════════════════════════════════════════════

// ListLessonsQuery содержит параметры постраничного вывода.
type ListLessonsQuery struct {
	// Offset - сколько уроков пропустить.
	Offset int

	// Limit - размер страницы (0 = весь каталог).
	Limit int
}

// Validate проверяет параметры запроса.
func (q *ListLessonsQuery) Validate() error {
	if q.Offset < 0 {
		return errors.New("offset cannot be negative")
	}
	if q.Limit < 0 {
		return errors.New("limit cannot be negative")
	}
	if q.Limit > MaxPageSize {
		q.Limit = MaxPageSize
	}
	return nil
}

// ListLessonsHandler обрабатывает ListLessonsQuery.
type ListLessonsHandler struct {
	manifest *lesson.Manifest
}

// NewListLessonsHandler создаёт обработчик над каталогом.
func NewListLessonsHandler(manifest *lesson.Manifest) *ListLessonsHandler {
	return &ListLessonsHandler{manifest: manifest}
}

// Handle выполняет запрос. Смещение за концом каталога даёт пустую страницу.
func (h *ListLessonsHandler) Handle(_ context.Context, q ListLessonsQuery) (*LessonListDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, shared.WrapError("query", "ListLessons", shared.ErrInvalidInput, "invalid pagination", err)
	}

	all := h.manifest.All()
	start := min(q.Offset, len(all))
	end := len(all)
	if q.Limit > 0 {
		end = min(start+q.Limit, len(all))
	}

	lessons := make([]LessonDTO, 0, end-start)
	for i := start; i < end; i++ {
		nav, err := h.manifest.Neighbors(all[i].File)
		if err != nil {
			return nil, err
		}
		lessons = append(lessons, toLessonDTO(nav))
	}

	return &LessonListDTO{
		Count:   len(all),
		Version: h.manifest.Fingerprint(),
		Offset:  q.Offset,
		Limit:   q.Limit,
		Lessons: lessons,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// GET LESSON QUERY
// Находит урок по имени файла. Сравнение точное, с учётом регистра.
// ══════════════════════════════════════════════════════════════════════════════

// GetLessonQuery содержит имя файла урока.
type GetLessonQuery struct {
	File string
}

// Validate проверяет параметры запроса.
func (q GetLessonQuery) Validate() error {
	if strings.TrimSpace(q.File) == "" {
		return errors.New("file is required")
	}
	return nil
}

// GetLessonHandler обрабатывает GetLessonQuery.
type GetLessonHandler struct {
	manifest *lesson.Manifest
}

// NewGetLessonHandler создаёт обработчик над каталогом.
func NewGetLessonHandler(manifest *lesson.Manifest) *GetLessonHandler {
	return &GetLessonHandler{manifest: manifest}
}

// Handle выполняет запрос.
// Возвращает shared.ErrLessonNotFound, если урока нет в каталоге.
func (h *GetLessonHandler) Handle(_ context.Context, q GetLessonQuery) (*LessonDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetLesson", shared.ErrValidation, "invalid lesson query", err)
	}

	nav, err := h.manifest.Neighbors(q.File)
	if err != nil {
		return nil, err
	}

	dto := toLessonDTO(nav)
	return &dto, nil
}
