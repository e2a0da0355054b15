package views

import (
	"math"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var usd = message.NewPrinter(language.AmericanEnglish)

// FormatPrice renders a price as US dollars rounded to cents, e.g. "$1,250.00".
func FormatPrice(price float64) string {
	return "$" + usd.Sprintf("%.2f", price)
}

// FormatDate renders the date part of t the way en-US browsers do.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("1/2/2006")
}

// Initial is the placeholder letter shown when a product has no image.
func Initial(title string) string {
	title = strings.TrimSpace(title)
	r, _ := utf8.DecodeRuneInString(title)
	if r == utf8.RuneError {
		return "?"
	}
	return string(unicode.ToUpper(r))
}

func toCents(price float64) int64 {
	return int64(math.Round(price * 100))
}
