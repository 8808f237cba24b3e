package tasks

import (
	"slices"
	"time"

	"github.com/magabrotheeeer/ebt/internal/models"
)

// Sort упорядочивает задачи по ключу на месте. Сортировка устойчивая,
// оставшиеся равенства разрешаются по возрастанию ID.
func Sort(list []models.Task, key models.SortKey) {
	var cmp func(a, b models.Task) int
	switch key {
	case models.SortByDate:
		cmp = func(a, b models.Task) int { return compareNilLast(a.Deadline, b.Deadline, false) }
	case models.SortByAmount:
		cmp = func(a, b models.Task) int { return b.Amount.Cmp(a.Amount) }
	case models.SortByCompletedAt:
		cmp = func(a, b models.Task) int { return compareNilLast(a.CompletedAt, b.CompletedAt, true) }
	default:
		cmp = compareDefault
	}
	slices.SortStableFunc(list, func(a, b models.Task) int {
		if c := cmp(a, b); c != 0 {
			return c
		}
		return compareID(a.ID, b.ID)
	})
}

// compareDefault: незавершённые раньше завершённых; незавершённые по возрастанию
// дедлайна (без дедлайна в конце), завершённые по убыванию даты создания.
func compareDefault(a, b models.Task) int {
	if a.Completed != b.Completed {
		if !a.Completed {
			return -1
		}
		return 1
	}
	if !a.Completed {
		return compareNilLast(a.Deadline, b.Deadline, false)
	}
	return b.CreatedAt.Compare(a.CreatedAt)
}

func compareNilLast(a, b *time.Time, desc bool) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case desc:
		return b.Compare(*a)
	default:
		return a.Compare(*b)
	}
}

func compareID(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
