// Package proposal turns a completed questionnaire state into the
// client-facing proposal document.
package proposal

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	ghtml "github.com/yuin/goldmark/renderer/html"

	"github.com/hidrotec-mx/intake-cli/internal/catalog"
	"github.com/hidrotec-mx/intake-cli/internal/model"
)

// ErrIncomplete is returned when a proposal is requested for a session
// whose questionnaire has not finished.
var ErrIncomplete = eris.New("proposal: questionnaire not completed")

// Section is one titled block of the proposal.
type Section struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Document is the assembled proposal. Build is deterministic on a fixed
// state, so repeated builds yield structurally equal documents.
type Document struct {
	Reference string    `json:"reference"`
	SessionID string    `json:"session_id"`
	Company   string    `json:"company"`
	Location  string    `json:"location"`
	Sector    string    `json:"sector"`
	Subsector string    `json:"subsector"`
	Sections  []Section `json:"sections"`
}

// sectorSolutions maps each sector to its canned recommendation outline.
var sectorSolutions = map[string]string{
	"Industrial": "Tren de tratamiento fisicoquímico y biológico dimensionado al caudal declarado, " +
		"con pulimento por filtración para cumplir la norma de descarga y habilitar el reúso en proceso o servicios.",
	"Comercial": "Sistema compacto de tratamiento y reúso orientado a reducir el costo de agua del inmueble, " +
		"con redes de reúso para sanitarios y riego y mejora de la calidad del agua de suministro.",
	"Municipal": "Solución de potabilización o saneamiento conforme a normatividad vigente, priorizando " +
		"bajo costo de operación y esquemas apropiados a la población servida.",
	"Residencial": "Equipo de acondicionamiento de agua de punto de entrada o punto de uso según el alcance " +
		"elegido, con protección de instalaciones y agua de bebida de calidad.",
}

// Build assembles the proposal from a completed state. ErrIncomplete is
// returned for unfinished questionnaires; the state is never mutated.
func Build(cat *catalog.Catalog, st *model.State) (*Document, error) {
	if !st.Completed {
		return nil, ErrIncomplete
	}

	doc := &Document{
		Reference: referenceCode(st.SessionID),
		SessionID: st.SessionID,
		Company:   st.Entities.Company,
		Location:  st.Entities.Location,
		Sector:    st.Sector,
		Subsector: st.Subsector,
	}

	doc.Sections = append(doc.Sections,
		Section{Title: "Antecedentes", Body: antecedentes(doc)},
		Section{Title: "Diagnóstico", Body: diagnostico(cat, st)},
		Section{Title: "Solución propuesta", Body: solucion(st)},
		Section{Title: "Siguientes pasos", Body: siguientesPasos()},
	)
	return doc, nil
}

// referenceCode derives a short, stable reference from the session id.
func referenceCode(sessionID string) string {
	trimmed := strings.ReplaceAll(sessionID, "-", "")
	if len(trimmed) > 8 {
		trimmed = trimmed[:8]
	}
	return "HT-" + strings.ToUpper(trimmed)
}

func antecedentes(doc *Document) string {
	var b strings.Builder
	company := doc.Company
	if company == "" {
		company = "el cliente"
	}
	fmt.Fprintf(&b, "Propuesta preparada para %s", company)
	if doc.Location != "" {
		fmt.Fprintf(&b, ", con sede en %s", doc.Location)
	}
	fmt.Fprintf(&b, ", del sector %s (%s). ", doc.Sector, doc.Subsector)
	b.WriteString("El presente documento resume el diagnóstico levantado en la conversación y la solución de tratamiento de agua recomendada.")
	return b.String()
}

func diagnostico(cat *catalog.Catalog, st *model.State) string {
	var b strings.Builder
	b.WriteString("Información declarada durante el diagnóstico:\n")
	for _, q := range cat.QuestionsFor(st.Sector, st.Subsector) {
		if vals, ok := st.Answers[q.ID]; ok {
			fmt.Fprintf(&b, "\n- **%s** %s", q.Prompt, strings.Join(vals, ", "))
		}
	}
	return b.String()
}

func solucion(st *model.State) string {
	if sol, ok := sectorSolutions[st.Sector]; ok {
		return sol
	}
	return "Solución de tratamiento de agua dimensionada a partir de la información declarada."
}

func siguientesPasos() string {
	return strings.Join([]string{
		"1. Visita técnica de levantamiento en sitio.",
		"2. Toma de muestras y análisis de laboratorio (si no se cuenta con análisis vigentes).",
		"3. Ingeniería básica y cotización en firme.",
		"4. Calendario de ejecución y puesta en marcha.",
	}, "\n")
}

// Markdown renders the document as markdown text.
func (d *Document) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Propuesta de tratamiento de agua\n\n")
	fmt.Fprintf(&b, "**Referencia:** %s\n\n", d.Reference)
	for _, s := range d.Sections {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", s.Title, s.Body)
	}
	return b.String()
}

var htmlRenderer = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(ghtml.WithHardWraps()),
)

// RenderHTML converts the document's markdown into HTML.
func (d *Document) RenderHTML() ([]byte, error) {
	var buf bytes.Buffer
	if err := htmlRenderer.Convert([]byte(d.Markdown()), &buf); err != nil {
		return nil, eris.Wrap(err, "proposal: render html")
	}
	return buf.Bytes(), nil
}
