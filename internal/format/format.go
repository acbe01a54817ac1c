// Package format renders amounts, dates and labels the way the Mexican
// Spanish UI displays them.
package format

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.MustParse("es-MX"))

// Currency renders an amount as Mexican pesos with the currency symbol.
func Currency(amount decimal.Decimal) string {
	return printer.Sprint(currency.Symbol(currency.MXN.Amount(amount.InexactFloat64())))
}

// Number renders an amount with two decimals and locale digit grouping.
func Number(amount decimal.Decimal) string {
	return printer.Sprintf("%.2f", amount.InexactFloat64())
}

// Percentage renders a whole-number percentage.
func Percentage(value int64) string {
	return printer.Sprintf("%d%%", value)
}

// Date renders a date as day/month/year, the order used throughout the
// UI.
func Date(t time.Time) string {
	return t.Format("02/01/2006")
}

// Truncate shortens a string to at most max runes, appending an ellipsis
// when it had to cut.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}

	runes := []rune(s)
	return string(runes[:max]) + "…"
}

// Initials derives up to two uppercase initials from a display name, for
// collaborator avatars.
func Initials(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}

	initials := string([]rune(fields[0])[0])
	if len(fields) > 1 {
		initials += string([]rune(fields[len(fields)-1])[0])
	}
	return strings.ToUpper(initials)
}
