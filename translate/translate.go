package translate

import (
	"errors"
	"log"
	"os"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/message"
)

// LANG_ENV overrides the detected locales when set, ie "de-DE".
const LANG_ENV = "CHIP8_LANG"

var printer *message.Printer

func init() {
	printer = message.NewPrinter(message.MatchLanguage(locales()...))
}

// locales returns the preferred locales, most preferred first.
func locales() (list []string) {
	if lang := os.Getenv(LANG_ENV); lang != "" {
		list = append(list, lang)
	}

	detected, err := locale.GetLocales()
	if err != nil {
		log.Printf("chip8: locale: %v", err)
	}
	list = append(list, detected...)

	if len(list) == 0 {
		list = []string{"en-US"}
	}

	return
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}

// Errorf creates an error from a translated en-US Sprintf() format.
func Errorf(key message.Reference, args ...any) error {
	return errors.New(printer.Sprintf(key, args...))
}
