package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// суммы уходят клиентам числом, а не строкой
	decimal.MarshalJSONWithoutQuotes = true
}

// Task — задача пользователя с денежной стоимостью.
// CompletedAt заполнено тогда и только тогда, когда Completed == true.
type Task struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"user_id"`
	Title       string          `json:"title"`
	Description *string         `json:"description"`
	ImageURL    *string         `json:"image_url"`
	Deadline    *time.Time      `json:"deadline"`
	Amount      decimal.Decimal `json:"amount"`
	Completed   bool            `json:"completed"`
	CompletedAt *time.Time      `json:"completed_at"`
	CreatedAt   time.Time       `json:"created_at"`
}

// NewTask — данные новой задачи после разбора запроса.
type NewTask struct {
	Title       string
	Description *string
	ImageURL    *string
	Deadline    *time.Time
	Amount      decimal.Decimal
}

// TaskPatch — частичное обновление задачи. nil означает «поле не передано».
// ClearDeadline убирает дедлайн, пустые Description и ImageURL очищают поля.
type TaskPatch struct {
	Title         *string
	Description   *string
	ImageURL      *string
	Deadline      *time.Time
	ClearDeadline bool
	Amount        *decimal.Decimal
	Completed     *bool
}

// IsEmpty сообщает, что в патче нет ни одного поля.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.ImageURL == nil &&
		p.Deadline == nil && !p.ClearDeadline && p.Amount == nil && p.Completed == nil
}

// AmountText принимает сумму как JSON-число или строку со свободным текстом.
type AmountText string

// UnmarshalJSON реализует json.Unmarshaler.
func (a *AmountText) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	switch {
	case s == "null":
		*a = ""
	case strings.HasPrefix(s, `"`):
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*a = AmountText(str)
	default:
		*a = AmountText(s)
	}
	return nil
}

// CreateTaskRequest используется для приёма данных новой задачи из JSON.
// Дедлайн приходит строкой в формате RFC 3339 или 2006-01-02.
type CreateTaskRequest struct {
	Title       string     `json:"title" validate:"required,max=255"`
	Description *string    `json:"description,omitempty"`
	ImageURL    *string    `json:"image_url,omitempty" validate:"omitempty,url"`
	Deadline    *string    `json:"deadline,omitempty"`
	Amount      AmountText `json:"amount,omitempty" swaggertype:"string"`
}

// UpdateTaskRequest — частичное обновление задачи по ID.
// Пустая строка в deadline снимает дедлайн.
type UpdateTaskRequest struct {
	ID          int64            `json:"id" validate:"required,gt=0"`
	Title       *string          `json:"title,omitempty"`
	Description *string          `json:"description,omitempty"`
	ImageURL    *string          `json:"image_url,omitempty"`
	Deadline    *string          `json:"deadline,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty" swaggertype:"number"`
	Completed   *bool            `json:"completed,omitempty"`
}

// DeleteTaskRequest — удаление задачи по ID.
type DeleteTaskRequest struct {
	ID int64 `json:"id" validate:"required,gt=0"`
}

// DueTask — незавершённая задача с близким дедлайном и вебхук её владельца.
type DueTask struct {
	Task       Task
	WebhookURL string
}
