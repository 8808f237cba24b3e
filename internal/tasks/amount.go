package tasks

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	zero          = decimal.Zero
	leadingNumber = regexp.MustCompile(`^(-?)(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
)

// ParseAmount разбирает сумму из свободного текста: берётся числовой префикс
// ("12,5 €" → 12.5), запятая допускается как десятичный разделитель,
// пробелы между разрядами игнорируются, экспонента ("1e3") поддерживается.
// Если в строке есть и запятая, и точка, десятичным считается последний
// из разделителей, а другой отбрасывается ("1,234.50" → 1234.5).
// Нечисловой или отрицательный ввод даёт 0.
func ParseAmount(text string) decimal.Decimal {
	s := strings.TrimSpace(text)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = normalizeSeparators(s)

	m := leadingNumber.FindStringSubmatch(s)
	if m == nil {
		return zero
	}
	d, err := decimal.NewFromString(m[1] + strings.TrimSuffix(m[2], ".") + m[3])
	if err != nil || d.IsNegative() {
		return zero
	}
	return d
}

func normalizeSeparators(s string) string {
	comma, dot := strings.LastIndex(s, ","), strings.LastIndex(s, ".")
	switch {
	case comma < 0:
		return s
	case dot < 0:
		return strings.Replace(s, ",", ".", 1)
	case comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		return strings.Replace(s, ",", ".", 1)
	default:
		return strings.ReplaceAll(s, ",", "")
	}
}
