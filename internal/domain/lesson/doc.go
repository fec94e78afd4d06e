// Package lesson содержит доменную модель каталога уроков курса по AI-агентам.
//
// Каталог - это упорядоченный, неизменяемый список записей Record, каждая из
// которых связывает файл с содержимым урока ("lesson12.md") и его заголовок
// ("Урок 12. Почему выбирают smolagents"). Порядок объявления определяет
// порядок навигации: урок 1, урок 2, ... урок 33.
//
// Каталог создаётся один раз и больше не меняется; потребители получают
// только копии записей.
//
// # Пример использования
//
//	catalog := lesson.Catalog()
//
//	rec, err := catalog.ByFile("lesson1.md")
//	if shared.IsNotFound(err) {
//	    // нет такого урока
//	}
//
//	nav, _ := catalog.Neighbors(rec.File)
//	if nav.Next != nil {
//	    fmt.Println("Дальше:", nav.Next.Title)
//	}
//
// # Проверка каталога
//
// Validate выполняет необязательную проверку согласованности номера в имени
// файла и номера в заголовке. Расхождения не являются ошибкой построения
// каталога, они возвращаются как предупреждения в ValidationReport.
//
// # Публикация
//
// Пакет определяет интерфейсы Sink и VersionReader, которые реализуются в
// infrastructure (PostgreSQL, Redis). Snapshot - единица публикации.
package lesson
