// Package notify доставляет уведомления о задачах в Discord-вебхуки пользователей:
// строит embed, отправляет его напрямую в отдельной горутине или публикует
// событие в RabbitMQ для процесса notification-sender.
package notify

import (
	"fmt"
	"time"

	"github.com/magabrotheeeer/ebt/internal/models"
)

// Kind — тип уведомления.
type Kind string

const (
	KindCreated   Kind = "created"
	KindCompleted Kind = "completed"
	KindCancelled Kind = "cancelled"
	KindDueSoon   Kind = "due_soon"
)

// Valid сообщает, известен ли тип уведомления.
func (k Kind) Valid() bool {
	switch k {
	case KindCreated, KindCompleted, KindCancelled, KindDueSoon:
		return true
	}
	return false
}

const (
	colorBlue   = 3447003
	colorGreen  = 2280504
	colorRed    = 15158332
	colorOrange = 15105570

	footerText    = "EBT - Easy Business Task"
	noDescription = "Aucune description"
	noDeadline    = "Non définie"
)

// Payload — тело запроса к Discord-вебхуку.
type Payload struct {
	Embeds []Embed `json:"embeds"`
}

// Embed — карточка сообщения Discord.
type Embed struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Color       int        `json:"color"`
	Fields      []Field    `json:"fields"`
	Thumbnail   *Thumbnail `json:"thumbnail,omitempty"`
	Timestamp   string     `json:"timestamp"`
	Footer      Footer     `json:"footer"`
}

// Field — поле карточки.
type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// Thumbnail — миниатюра карточки.
type Thumbnail struct {
	URL string `json:"url"`
}

// Footer — подпись карточки.
type Footer struct {
	Text string `json:"text"`
}

// BuildEmbed собирает карточку уведомления о задаче на момент at.
func BuildEmbed(kind Kind, task models.Task, at time.Time) (Embed, error) {
	e := Embed{
		Description: noDescription,
		Timestamp:   at.UTC().Format("2006-01-02T15:04:05.000Z"),
		Footer:      Footer{Text: footerText},
	}
	if task.Description != nil && *task.Description != "" {
		e.Description = *task.Description
	}
	if task.ImageURL != nil && *task.ImageURL != "" {
		e.Thumbnail = &Thumbnail{URL: *task.ImageURL}
	}

	title := Field{Name: "📋 Titre", Value: task.Title}
	amount := task.Amount.StringFixed(2) + "€"

	switch kind {
	case KindCreated:
		e.Title = "✨ Nouvelle tâche créée"
		e.Color = colorBlue
		e.Fields = []Field{
			title,
			{Name: "💰 Montant", Value: amount, Inline: true},
			{Name: "📅 Date limite", Value: deadlineText(task.Deadline, at.Location()), Inline: true},
		}
	case KindCompleted:
		e.Title = "✅ Tâche complétée !"
		e.Color = colorGreen
		e.Fields = []Field{
			title,
			{Name: "💸 Revenu", Value: "**" + amount + "**", Inline: true},
			{Name: "⏱️ Complétée le", Value: frenchDateTime(at), Inline: true},
		}
	case KindCancelled:
		e.Title = "❌ Tâche annulée"
		e.Color = colorRed
		e.Fields = []Field{
			title,
			{Name: "💰 Montant prévu", Value: amount, Inline: true},
			{Name: "⏱️ Annulée le", Value: frenchDateTime(at), Inline: true},
		}
	case KindDueSoon:
		e.Title = "⏰ Échéance proche"
		e.Color = colorOrange
		e.Fields = []Field{
			title,
			{Name: "💰 Montant", Value: amount, Inline: true},
			{Name: "📅 Date limite", Value: deadlineText(task.Deadline, at.Location()), Inline: true},
		}
	default:
		return Embed{}, fmt.Errorf("notify.BuildEmbed: unknown kind %q", kind)
	}
	return e, nil
}

var frenchMonths = [...]string{
	"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}

func frenchDate(t time.Time) string {
	return fmt.Sprintf("%02d %s %d", t.Day(), frenchMonths[t.Month()-1], t.Year())
}

func frenchDateTime(t time.Time) string {
	return fmt.Sprintf("%s à %02d:%02d", frenchDate(t), t.Hour(), t.Minute())
}

func deadlineText(deadline *time.Time, loc *time.Location) string {
	if deadline == nil {
		return noDeadline
	}
	return frenchDate(deadline.In(loc))
}
