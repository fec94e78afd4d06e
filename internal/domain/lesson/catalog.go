package lesson

// catalogRecords - уроки курса в порядке прохождения.
var catalogRecords = []Record{
	{File: "lesson1.md", Title: "Урок 1. Что такое Агент"},
	{File: "lesson2.md", Title: "Урок 2. Что такое LLM"},
	{File: "lesson3.md", Title: "Урок 3. Сообщения и Специальные Токены"},
	{File: "lesson4.md", Title: "Урок 4. Что такое Инструменты"},
	{File: "lesson5.md", Title: "Урок 5. Понимание AI Агентов через цикл Мысль - Действие - Наблюдение"},
	{File: "lesson6.md", Title: "Урок 6. Мысль: Внутреннее Рассуждение и Re-Act подход"},
	{File: "lesson7.md", Title: "Урок 7. Действия агента"},
	{File: "lesson8.md", Title: "Урок 8. Наблюдения агента"},
	{File: "lesson9.md", Title: "Урок 9. Библиотека Фиктивного Агента"},
	{File: "lesson10.md", Title: "Урок 10. Создание агента с smolagents"},
	{File: "lesson11.md", Title: "Урок 11. Введение в агентные фреймворки"},
	{File: "lesson12.md", Title: "Урок 12. Почему выбирают smolagents"},
	{File: "lesson13.md", Title: "Урок 13. Написание действий в виде сниппетов кода или JSON-структур"},
	{File: "lesson14.md", Title: "Урок 14. Tools в smolagents"},
	{File: "lesson15.md", Title: "Урок 15. Построение Agentic RAG систем"},
	{File: "lesson16.md", Title: "Урок 16. Мульти-агентные системы"},
	{File: "lesson17.md", Title: "Урок 17. Визуальные агенты в smolagents"},
	{File: "lesson18.md", Title: "Урок 18. Введение в LlamaIndex"},
	{File: "lesson19.md", Title: "Урок 19. Введение в LlamaHub"},
	{File: "lesson20.md", Title: "Урок 20. Компоненты в LlamaIndex"},
	{File: "lesson21.md", Title: "Урок 21. Использование инструментов в LlamaIndex"},
	{File: "lesson22.md", Title: "Урок 22. Использование агентов в LlamaIndex"},
	{File: "lesson23.md", Title: "Урок 23. Создание агентных workflow в LlamaIndex"},
	{File: "lesson24.md", Title: "Урок 24. Введение в LangGraph"},
	{File: "lesson25.md", Title: "Урок 25. Основные компоненты LangGraph"},
	{File: "lesson26.md", Title: "Урок 26. Создание первого графа в LangGraph"},
	{File: "lesson27.md", Title: "Урок 27. Document Analysis Graph"},
	{File: "lesson28.md", Title: "Урок 28. Agentic RAG для организации гала-ужина"},
	{File: "lesson29.md", Title: "Урок 29. Создание RAG-инструмента для информации о гостях"},
	{File: "lesson30.md", Title: "Урок 30. Интеграция инструментов для агента"},
	{File: "lesson31.md", Title: "Урок 31. Создание интеллектуального агента Alfred для организации мероприятий"},
	{File: "lesson32.md", Title: "Урок 32. Финальный проект - создание агента для прохождения GAIA Benchmark"},
	{File: "lesson33.md", Title: "Урок 33. Практическое руководство по отправке агента на GAIA Benchmark"},
}

// catalog создаётся один раз при инициализации пакета.
var catalog = MustNew(catalogRecords)

// Catalog возвращает каталог уроков курса.
// Каталог неизменяем; All() и другие методы отдают только копии.
func Catalog() *Manifest {
	return catalog
}
