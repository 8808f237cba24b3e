// Package period содержит календарные вычисления для статистики:
// границы месяца и недели, ключи дневных, недельных и месячных корзин.
// Все функции работают в часовом поясе переданного времени.
package period

import (
	"fmt"
	"time"
)

const (
	// DayLayout — формат ключа дня и недели.
	DayLayout = "2006-01-02"
	// MonthLayout — формат ключа месяца.
	MonthLayout = "2006-01"
)

// StartOfDay возвращает полночь того же дня.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// StartOfMonth возвращает первое число месяца, 00:00.
func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// StartOfNextMonth возвращает первое число следующего месяца, 00:00.
// Месяц считается полуинтервалом [StartOfMonth, StartOfNextMonth).
func StartOfNextMonth(t time.Time) time.Time {
	return StartOfMonth(t).AddDate(0, 1, 0)
}

// StartOfPrevMonth возвращает первое число предыдущего месяца, 00:00.
func StartOfPrevMonth(t time.Time) time.Time {
	return StartOfMonth(t).AddDate(0, -1, 0)
}

// StartOfWeek возвращает ближайшее воскресенье (неделя начинается с воскресенья), 00:00.
func StartOfWeek(t time.Time) time.Time {
	day := StartOfDay(t)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// DayKey возвращает ключ дня вида 2006-01-02.
func DayKey(t time.Time) string {
	return t.Format(DayLayout)
}

// WeekKey возвращает дату начала недели вида 2006-01-02.
func WeekKey(t time.Time) string {
	return StartOfWeek(t).Format(DayLayout)
}

// MonthKey возвращает ключ месяца вида 2006-01.
func MonthKey(t time.Time) string {
	return t.Format(MonthLayout)
}

// ParseDate разбирает дату в формате RFC 3339 или 2006-01-02.
// Дата без времени трактуется как полночь в loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	const op = "period.ParseDate"
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(DayLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: unsupported date %q", op, s)
	}
	return t, nil
}
