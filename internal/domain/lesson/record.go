package lesson

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/alem-hub/lesson-catalog/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD
// ══════════════════════════════════════════════════════════════════════════════

var (
	// fileNumberPattern - соглашение об именовании файлов: lesson<N>.md.
	fileNumberPattern = regexp.MustCompile(`^lesson(\d+)\.md$`)

	// titleNumberPattern - номер урока в заголовке: "Урок N. ...".
	titleNumberPattern = regexp.MustCompile(`^Урок\s+(\d+)`)
)

// Record - одна запись каталога: файл с содержимым урока и его заголовок.
type Record struct {
	// File - идентификатор документа урока, например "lesson12.md".
	File string `json:"file" yaml:"file"`

	// Title - отображаемый заголовок с номером урока.
	Title string `json:"title" yaml:"title"`
}

// NewRecord создаёт запись и проверяет, что оба поля заполнены.
// Пробелы по краям удаляются.
func NewRecord(file, title string) (Record, error) {
	r := Record{
		File:  strings.TrimSpace(file),
		Title: strings.TrimSpace(title),
	}
	if err := r.Validate(); err != nil {
		return Record{}, err
	}
	return r, nil
}

// Validate проверяет обязательные поля записи. Поле из одних пробелов
// считается пустым.
func (r Record) Validate() error {
	if strings.TrimSpace(r.File) == "" {
		return shared.ErrEmptyFile
	}
	if strings.TrimSpace(r.Title) == "" {
		return shared.ErrEmptyTitle
	}
	return nil
}

// Number возвращает N из имени файла lesson<N>.md.
// Второй результат false, если имя не следует соглашению.
func (r Record) Number() (int, bool) {
	return parseNumber(fileNumberPattern, r.File)
}

// TitleNumber возвращает номер урока, указанный в заголовке.
func (r Record) TitleNumber() (int, bool) {
	return parseNumber(titleNumberPattern, r.Title)
}

// String возвращает строковое представление записи.
func (r Record) String() string {
	return r.File + ": " + r.Title
}

func parseNumber(pattern *regexp.Regexp, s string) (int, bool) {
	m := pattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
