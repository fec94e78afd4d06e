package lesson

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"time"

	"github.com/alem-hub/lesson-catalog/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MANIFEST
// ══════════════════════════════════════════════════════════════════════════════

// Manifest - упорядоченный неизменяемый каталог уроков.
// После создания не меняется, поэтому безопасен для одновременного чтения
// из любого количества горутин без синхронизации.
type Manifest struct {
	records     []Record
	index       map[string]int // File -> позиция в records
	fingerprint string
}

// New создаёт каталог из записей в порядке объявления.
// Каждая запись проверяется через Record.Validate, File должен быть уникален.
// Входной срез копируется: дальнейшие изменения у вызывающего не влияют на каталог.
func New(records []Record) (*Manifest, error) {
	m := &Manifest{
		records: slices.Clone(records),
		index:   make(map[string]int, len(records)),
	}

	for i, r := range m.records {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		if _, dup := m.index[r.File]; dup {
			return nil, fmt.Errorf("%w: %s", shared.ErrDuplicateFile, r.File)
		}
		m.index[r.File] = i
	}

	m.fingerprint = fingerprint(m.records)
	return m, nil
}

// MustNew как New, но паникует при ошибке.
// Используется только для каталога, объявленного в коде.
func MustNew(records []Record) *Manifest {
	m, err := New(records)
	if err != nil {
		panic(fmt.Sprintf("lesson: invalid manifest: %v", err))
	}
	return m
}

// All возвращает все записи в каноническом порядке.
// Каждый вызов возвращает новую копию.
func (m *Manifest) All() []Record {
	return slices.Clone(m.records)
}

// ByFile ищет запись по точному (с учётом регистра) имени файла.
// Возвращает ошибку, совместимую с shared.ErrLessonNotFound, если записи нет.
func (m *Manifest) ByFile(file string) (Record, error) {
	i, ok := m.index[file]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", shared.ErrLessonNotFound, file)
	}
	return m.records[i], nil
}

// Count возвращает количество записей.
func (m *Manifest) Count() int {
	return len(m.records)
}

// Position возвращает позицию урока в каталоге, начиная с 1.
func (m *Manifest) Position(file string) (int, error) {
	i, ok := m.index[file]
	if !ok {
		return 0, fmt.Errorf("%w: %s", shared.ErrLessonNotFound, file)
	}
	return i + 1, nil
}

// Fingerprint возвращает sha256 от упорядоченного содержимого каталога.
// Одинаковые каталоги дают одинаковый отпечаток.
func (m *Manifest) Fingerprint() string {
	return m.fingerprint
}

// ══════════════════════════════════════════════════════════════════════════════
// NAVIGATION
// ══════════════════════════════════════════════════════════════════════════════

// Navigation описывает урок и его соседей для ссылок "назад" / "дальше".
type Navigation struct {
	Current  Record
	Position int // 1-based
	Total    int
	Previous *Record // nil для первого урока
	Next     *Record // nil для последнего урока
}

// IsFirst возвращает true для первого урока.
func (n Navigation) IsFirst() bool {
	return n.Previous == nil
}

// IsLast возвращает true для последнего урока.
func (n Navigation) IsLast() bool {
	return n.Next == nil
}

// Neighbors возвращает предыдущий и следующий уроки относительно file.
func (m *Manifest) Neighbors(file string) (Navigation, error) {
	i, ok := m.index[file]
	if !ok {
		return Navigation{}, fmt.Errorf("%w: %s", shared.ErrLessonNotFound, file)
	}

	nav := Navigation{
		Current:  m.records[i],
		Position: i + 1,
		Total:    len(m.records),
	}
	if i > 0 {
		prev := m.records[i-1]
		nav.Previous = &prev
	}
	if i < len(m.records)-1 {
		next := m.records[i+1]
		nav.Next = &next
	}
	return nav, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT
// ══════════════════════════════════════════════════════════════════════════════

// Snapshot - каталог, подготовленный к публикации во внешние хранилища.
type Snapshot struct {
	Version     string    `json:"version"`
	Records     []Record  `json:"records"`
	PublishedAt time.Time `json:"published_at"`
}

// Snapshot возвращает копию каталога с версией и временем публикации.
func (m *Manifest) Snapshot(at time.Time) Snapshot {
	return Snapshot{
		Version:     m.fingerprint,
		Records:     m.All(),
		PublishedAt: at.UTC(),
	}
}

func fingerprint(records []Record) string {
	h := sha256.New()
	for _, r := range records {
		h.Write([]byte(r.File))
		h.Write([]byte{0})
		h.Write([]byte(r.Title))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
