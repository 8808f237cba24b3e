package models

// SortKey задаёт порядок сортировки списка задач.
type SortKey string

const (
	// SortDefault — сначала незавершённые по возрастанию дедлайна, затем завершённые от новых к старым.
	SortDefault SortKey = ""
	// SortByDate — по возрастанию дедлайна, задачи без дедлайна в конце.
	SortByDate SortKey = "date"
	// SortByAmount — по убыванию суммы.
	SortByAmount SortKey = "amount"
	// SortByCompletedAt — по убыванию даты завершения, незавершённые в конце.
	SortByCompletedAt SortKey = "completedAt"
)

// ListFilter описывает параметры выборки задач пользователя.
type ListFilter struct {
	Completed *bool   // nil — без фильтра по статусу
	SortBy    SortKey // ключ сортировки
}

// Valid сообщает, известен ли ключ сортировки.
func (k SortKey) Valid() bool {
	switch k {
	case SortDefault, SortByDate, SortByAmount, SortByCompletedAt:
		return true
	}
	return false
}
