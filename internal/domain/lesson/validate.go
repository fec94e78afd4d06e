package lesson

import (
	"fmt"
	"strings"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALIDATION
// Необязательная проверка согласованности каталога. Жёсткие инварианты
// (непустые поля, уникальный File) проверяются в New; здесь - мягкие.
// ══════════════════════════════════════════════════════════════════════════════

// IssueKind - тип найденного расхождения.
type IssueKind string

const (
	// IssueFileNaming - имя файла не соответствует шаблону lesson<N>.md.
	IssueFileNaming IssueKind = "file_naming"
	// IssueTitleNumber - в заголовке нет номера "Урок N".
	IssueTitleNumber IssueKind = "title_number"
	// IssueNumberMismatch - номер в файле и номер в заголовке различаются.
	IssueNumberMismatch IssueKind = "number_mismatch"
	// IssueOrder - номер урока не совпадает с его позицией в каталоге.
	IssueOrder IssueKind = "order"
)

// Issue - одно расхождение, найденное при проверке.
type Issue struct {
	Kind     IssueKind `json:"kind"`
	File     string    `json:"file"`
	Position int       `json:"position"`
	Message  string    `json:"message"`
}

// String возвращает строковое представление расхождения.
func (i Issue) String() string {
	return fmt.Sprintf("#%d %s [%s]: %s", i.Position, i.File, i.Kind, i.Message)
}

// ValidationReport - результат проверки каталога.
type ValidationReport struct {
	Checked int     `json:"checked"`
	Issues  []Issue `json:"issues,omitempty"`
}

// OK возвращает true, если расхождений не найдено.
func (r ValidationReport) OK() bool {
	return len(r.Issues) == 0
}

// String возвращает многострочное описание отчёта.
func (r ValidationReport) String() string {
	if r.OK() {
		return fmt.Sprintf("%d lessons checked, no issues", r.Checked)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d lessons checked, %d issue(s):", r.Checked, len(r.Issues))
	for _, issue := range r.Issues {
		b.WriteString("\n  - ")
		b.WriteString(issue.String())
	}
	return b.String()
}

// Validate проверяет, что номер в имени файла совпадает с номером в
// заголовке и с позицией урока. Каталог при этом не меняется.
func (m *Manifest) Validate() ValidationReport {
	report := ValidationReport{Checked: len(m.records)}

	for i, r := range m.records {
		pos := i + 1
		add := func(kind IssueKind, format string, args ...any) {
			report.Issues = append(report.Issues, Issue{
				Kind:     kind,
				File:     r.File,
				Position: pos,
				Message:  fmt.Sprintf(format, args...),
			})
		}

		fileNum, fileOK := r.Number()
		titleNum, titleOK := r.TitleNumber()

		if !fileOK {
			add(IssueFileNaming, "file name does not match lesson<N>.md")
		}
		if !titleOK {
			add(IssueTitleNumber, "title %q has no lesson number", r.Title)
		}
		if fileOK && titleOK && fileNum != titleNum {
			add(IssueNumberMismatch, "file says %d, title says %d", fileNum, titleNum)
		}
		if fileOK && fileNum != pos {
			add(IssueOrder, "lesson %d declared at position %d", fileNum, pos)
		}
	}

	return report
}
