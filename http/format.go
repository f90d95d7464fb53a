package http

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// percentFormatter renders a probability in [0, 1] as a percentage with two
// decimals, using the grouping and decimal marks of the configured locale.
type percentFormatter struct {
	printer *message.Printer
}

func newPercentFormatter(locale string) percentFormatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return percentFormatter{printer: message.NewPrinter(tag)}
}

// Format renders p, e.g. 0.82 as "82.00%" in English.
func (f percentFormatter) Format(p float64) string {
	return f.printer.Sprintf("%.2f%%", p*100)
}
