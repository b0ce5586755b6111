package ui

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatBRL renders a whole-BRL amount with space-grouped thousands,
// matching the executive deck convention ("1 234 567 BRL").
func FormatBRL(value decimal.Decimal) string {
	rounded := value.Round(0)
	digits := rounded.Abs().String()

	var grouped strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		grouped.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if grouped.Len() > 0 {
			grouped.WriteByte(' ')
		}
		grouped.WriteString(digits[i : i+3])
	}

	sign := ""
	if rounded.IsNegative() {
		sign = "-"
	}
	return sign + grouped.String() + " BRL"
}

// FormatPercent renders a ratio with one decimal, e.g. 0.123 -> "12.3%".
func FormatPercent(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}

// FormatCategoryName turns snake_case category keys into title case.
func FormatCategoryName(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// FormatCount renders an integer with space-grouped thousands.
func FormatCount(n int) string {
	return strings.TrimSuffix(FormatBRL(decimal.NewFromInt(int64(n))), " BRL")
}

var stateNames = map[string]string{
	"AC": "Acre",
	"AL": "Alagoas",
	"AP": "Amapá",
	"AM": "Amazonas",
	"BA": "Bahia",
	"CE": "Ceará",
	"DF": "Distrito Federal",
	"ES": "Espírito Santo",
	"GO": "Goiás",
	"MA": "Maranhão",
	"MT": "Mato Grosso",
	"MS": "Mato Grosso do Sul",
	"MG": "Minas Gerais",
	"PA": "Pará",
	"PB": "Paraíba",
	"PR": "Paraná",
	"PE": "Pernambuco",
	"PI": "Piauí",
	"RJ": "Rio de Janeiro",
	"RN": "Rio Grande do Norte",
	"RS": "Rio Grande do Sul",
	"RO": "Rondônia",
	"RR": "Roraima",
	"SC": "Santa Catarina",
	"SP": "São Paulo",
	"SE": "Sergipe",
	"TO": "Tocantins",
}

// StateName maps a two-letter state code to its display name, falling
// back to the code itself.
func StateName(code string) string {
	if name, ok := stateNames[code]; ok {
		return name
	}
	return code
}

// MetricLabels maps monthly metric keys to their display labels, in
// selector order.
var MetricLabels = []MetricOption{
	{Key: "net_revenue", Label: "Net revenue after freight"},
	{Key: "olist_revenue", Label: "Total platform revenue"},
	{Key: "reputation_cost", Label: "Reputation costs"},
	{Key: "gmv", Label: "Total marketplace sales"},
}

type MetricOption struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// MetricLabel returns the display label for a metric key, or the key.
func MetricLabel(key string) string {
	for _, opt := range MetricLabels {
		if opt.Key == key {
			return opt.Label
		}
	}
	return key
}

// ValidMetric reports whether key is a selectable monthly metric.
func ValidMetric(key string) bool {
	for _, opt := range MetricLabels {
		if opt.Key == key {
			return true
		}
	}
	return false
}
