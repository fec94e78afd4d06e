package lesson

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Контракт для внешних хранилищ, куда публикуется каталог.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Sink - хранилище, в которое публикуется снимок каталога.
type Sink interface {
	// Name возвращает имя хранилища для логов и отчётов ("postgres", "redis").
	Name() string

	// Replace полностью заменяет опубликованный каталог снимком.
	// Операция атомарна: читатели видят либо старый, либо новый каталог.
	Replace(ctx context.Context, snapshot Snapshot) error
}

// VersionReader сообщает, какая версия каталога уже опубликована.
type VersionReader interface {
	// CurrentVersion возвращает опубликованную версию.
	// Пустая строка без ошибки означает, что каталог ещё не публиковался.
	CurrentVersion(ctx context.Context) (string, error)
}

// Store - хранилище, которое умеет и публиковать, и отдавать версию.
type Store interface {
	Sink
	VersionReader
}
