package main

import (
	"os"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// newPrinter returns a printer localized from LC_ALL, LC_NUMERIC or LANG,
// falling back to English.
func newPrinter() *message.Printer {
	return message.NewPrinter(localeTag())
}

func localeTag() language.Tag {
	for _, key := range []string{"LC_ALL", "LC_NUMERIC", "LANG"} {
		value := strings.TrimSpace(os.Getenv(key))
		if value == "" || value == "C" || value == "POSIX" {
			continue
		}
		// en_GB.UTF-8 -> en-GB
		value, _, _ = strings.Cut(value, ".")
		value = strings.ReplaceAll(value, "_", "-")
		if tag, err := language.Parse(value); err == nil {
			return tag
		}
	}
	return language.English
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(part) / float64(total)
}
