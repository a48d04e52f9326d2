package flow

import (
	"strings"

	"github.com/hidrotec-mx/intake-cli/internal/extract"
)

// IntentFunc is a replaceable heuristic over a raw user message. The two
// gates (questionnaire start, proposal download) are injected so they can
// be tuned without touching the state machine.
type IntentFunc func(raw string) bool

var startKeywords = []string{
	"iniciar", "comenzar", "empezar", "empecemos", "cuestionario",
	"cotizacion", "propuesta", "diagnostico", "asesoria",
	"agua", "tratamiento", "planta", "start", "questionnaire", "water",
}

// DefaultStartIntent fires on explicit trigger words, domain words, or any
// short message (short greetings default to starting the questionnaire).
func DefaultStartIntent(raw string) bool {
	folded := extract.Fold(strings.TrimSpace(raw))
	if folded == "" {
		return false
	}
	for _, kw := range startKeywords {
		if strings.Contains(folded, kw) {
			return true
		}
	}
	return len([]rune(folded)) <= 40
}

var downloadKeywords = []string{
	"pdf", "descargar", "descarga", "download", "documento",
	"propuesta", "cotizacion", "archivo",
}

var downloadPhrases = []string{
	"mandame la propuesta",
	"enviame la propuesta",
	"quiero mi propuesta",
	"dame el documento",
}

// DefaultDownloadIntent detects post-completion requests for the proposal
// document.
func DefaultDownloadIntent(raw string) bool {
	folded := extract.Fold(strings.TrimSpace(raw))
	for _, p := range downloadPhrases {
		if strings.Contains(folded, p) {
			return true
		}
	}
	for _, kw := range downloadKeywords {
		if strings.Contains(folded, kw) {
			return true
		}
	}
	return false
}
