// Package stats считает отчёт по заработку пользователя за один проход
// по списку задач. Пакет не обращается к хранилищу и не зависит от часов:
// текущее время передаётся параметром, календарные границы считаются
// в его часовом поясе.
package stats

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/ebt/internal/lib/period"
	"github.com/magabrotheeeer/ebt/internal/models"
)

const (
	// DailyHorizonDays — глубина дневной серии в календарных днях.
	DailyHorizonDays = 30
	// SeriesLimit — сколько последних недель и месяцев попадает в серии.
	SeriesLimit = 12
)

var hundred = decimal.NewFromInt(100)

type bucket struct {
	amount decimal.Decimal
	count  int
}

type series map[string]*bucket

func (s series) add(key string, amount decimal.Decimal) {
	b, ok := s[key]
	if !ok {
		b = &bucket{}
		s[key] = b
	}
	b.amount = b.amount.Add(amount)
	b.count++
}

// points возвращает корзины по возрастанию ключа, оставляя не больше limit последних.
// limit <= 0 означает без ограничения.
func (s series) points(limit int) []models.BucketPoint {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if limit > 0 && len(keys) > limit {
		keys = keys[len(keys)-limit:]
	}

	out := make([]models.BucketPoint, 0, len(keys))
	for _, k := range keys {
		b := s[k]
		out = append(out, models.BucketPoint{
			Date:   k,
			Amount: b.amount.InexactFloat64(),
			Count:  b.count,
		})
	}
	return out
}

// Compute строит отчёт по задачам на момент now. Входной срез не изменяется.
//
// Задача попадает в окно, только если она завершена и CompletedAt лежит внутри окна.
// Месяц — полуинтервал [1 число 00:00, 1 число следующего месяца 00:00),
// неделя — с воскресенья 00:00 по now включительно.
func Compute(tasks []models.Task, now time.Time) models.StatsReport {
	loc := now.Location()
	monthStart := period.StartOfMonth(now)
	nextMonthStart := period.StartOfNextMonth(now)
	prevMonthStart := period.StartOfPrevMonth(now)
	weekStart := period.StartOfWeek(now)
	dailyFrom := now.AddDate(0, 0, -DailyHorizonDays)

	var (
		report models.StatsReport

		thisMonth, lastMonth, thisWeek decimal.Decimal
		pending, earned, all           decimal.Decimal
	)
	daily, weekly, monthly := series{}, series{}, series{}

	for _, t := range tasks {
		report.TotalTasks++
		all = all.Add(t.Amount)

		if !t.Completed {
			report.PendingTasks++
			pending = pending.Add(t.Amount)
			continue
		}

		report.TotalCompleted++
		earned = earned.Add(t.Amount)
		if t.CompletedAt == nil {
			continue
		}

		at := t.CompletedAt.In(loc)
		switch {
		case !at.Before(monthStart) && at.Before(nextMonthStart):
			report.CompletedThisMonth++
			thisMonth = thisMonth.Add(t.Amount)
		case !at.Before(prevMonthStart) && at.Before(monthStart):
			report.CompletedLastMonth++
			lastMonth = lastMonth.Add(t.Amount)
		}
		if !at.Before(weekStart) && !at.After(now) {
			report.CompletedThisWeek++
			thisWeek = thisWeek.Add(t.Amount)
		}

		if !at.Before(dailyFrom) {
			daily.add(period.DayKey(at), t.Amount)
		}
		weekly.add(period.WeekKey(at), t.Amount)
		monthly.add(period.MonthKey(at), t.Amount)
	}

	projected := thisMonth.Add(pending)

	report.EarnedThisMonth = thisMonth.InexactFloat64()
	report.EarnedLastMonth = lastMonth.InexactFloat64()
	report.EarnedThisWeek = thisWeek.InexactFloat64()
	report.PendingAmount = pending.InexactFloat64()
	report.TotalEarned = earned.InexactFloat64()
	report.ProjectedEndOfMonth = projected.InexactFloat64()
	report.PotentialEarnings = report.PendingAmount
	report.TotalProjected = report.ProjectedEndOfMonth

	report.AverageTaskAmount = average(all, report.TotalTasks)
	report.AverageCompletedAmount = average(earned, report.TotalCompleted)
	report.MonthProgress = progress(thisMonth, lastMonth)

	report.DailyStats = daily.points(0)
	report.WeeklyStats = weekly.points(SeriesLimit)
	report.MonthlyStats = monthly.points(SeriesLimit)

	return report
}

func average(sum decimal.Decimal, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum.Div(decimal.NewFromInt(int64(n))).InexactFloat64()
}

// progress — рост к прошлому месяцу в процентах. Если в прошлом месяце
// заработка не было, прогресс равен 0.
func progress(current, previous decimal.Decimal) float64 {
	if !previous.IsPositive() {
		return 0
	}
	return current.Sub(previous).Div(previous).Mul(hundred).InexactFloat64()
}
