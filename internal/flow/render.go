package flow

import (
	"fmt"
	"strings"

	"github.com/hidrotec-mx/intake-cli/internal/catalog"
	"github.com/hidrotec-mx/intake-cli/internal/model"
)

const welcomeText = `¡Hola! Soy el asistente de diagnóstico de tratamiento de agua.
Con unas cuantas preguntas preparo una propuesta técnica y económica a la medida de tu proyecto.
Empecemos.`

const completionText = `¡Listo! Con esto tenemos la información necesaria.
Tu propuesta técnica y económica está preparada. Escribe "descargar propuesta" para obtener el documento, o hazme cualquier pregunta sobre la recomendación.`

const rePromptText = `No logré identificar esa opción. Por favor responde con el número de la opción o con su nombre.`

var acknowledgments = []string{
	"Perfecto, gracias.",
	"Entendido.",
	"Excelente, tomo nota.",
	"Muy bien.",
	"Gracias por el dato.",
}

// questionResponse renders the five-part template: acknowledgment → fact →
// explanation → bolded question → numbered options.
type questionResponse struct {
	Ack         string
	Fact        string
	Question    catalog.Question
	IncludeAck  bool
	IncludeFact bool
}

func (r questionResponse) String() string {
	var b strings.Builder

	if r.IncludeAck && r.Ack != "" {
		b.WriteString(r.Ack)
		b.WriteString("\n\n")
	}
	if r.IncludeFact && r.Fact != "" {
		b.WriteString("💧 ¿Sabías que...? ")
		b.WriteString(r.Fact)
		b.WriteString("\n\n")
	}
	if r.Question.Explanation != "" {
		b.WriteString(r.Question.Explanation)
		b.WriteString("\n\n")
	}
	b.WriteString("**")
	b.WriteString(r.Question.Prompt)
	b.WriteString("**")

	if r.Question.Kind.Choice() {
		b.WriteString("\n")
		for i, opt := range r.Question.Options {
			fmt.Fprintf(&b, "\n%d. %s", i+1, opt)
		}
		if r.Question.Kind == catalog.KindMultiChoice {
			b.WriteString("\n\nPuedes elegir varias opciones, por ejemplo: 1,3")
		}
	}

	if r.Question.SuggestDocument {
		b.WriteString("\n\nSi cuentas con el documento, puedes adjuntarlo en la conversación para afinar la propuesta.")
	}

	return b.String()
}

func ackFor(count int) string {
	return acknowledgments[count%len(acknowledgments)]
}

func factFor(facts []string, count int) string {
	if len(facts) == 0 {
		return ""
	}
	return facts[count%len(facts)]
}

// renderSummary builds the interim recap shown every summary interval. It
// lists the selections and every catalog answer in catalog order.
func renderSummary(cat *catalog.Catalog, st *model.State) string {
	var b strings.Builder
	b.WriteString("📋 **Resumen de tu diagnóstico hasta ahora**\n")

	if st.Sector != "" {
		fmt.Fprintf(&b, "\n- Sector: %s", st.Sector)
	}
	if st.Subsector != "" {
		fmt.Fprintf(&b, "\n- Subsector: %s", st.Subsector)
	}
	for _, q := range cat.QuestionsFor(st.Sector, st.Subsector) {
		if vals, ok := st.Answers[q.ID]; ok {
			fmt.Fprintf(&b, "\n- %s %s", q.Prompt, strings.Join(vals, ", "))
		}
	}

	b.WriteString("\n\nVamos muy bien. Cuando quieras, continuamos con la siguiente pregunta.")
	return b.String()
}

// renderDownload is the fixed download-link template for post-completion
// document requests.
func renderDownload(sessionID string) string {
	return fmt.Sprintf(`Aquí está tu propuesta lista para descargar:

📄 /api/sessions/%s/proposal.html

El documento incluye el diagnóstico, la solución recomendada y los siguientes pasos. Si quieres ajustar algún dato, con gusto te ayudo.`, sessionID)
}

// answersContext flattens the completed questionnaire into a system-prompt
// context block for post-completion Q&A.
func answersContext(cat *catalog.Catalog, st *model.State) string {
	var b strings.Builder
	b.WriteString("Contexto del cliente (cuestionario completado):\n")
	fmt.Fprintf(&b, "Sector: %s. Subsector: %s.\n", st.Sector, st.Subsector)
	if st.Entities.Company != "" {
		fmt.Fprintf(&b, "Empresa: %s.\n", st.Entities.Company)
	}
	if st.Entities.Location != "" {
		fmt.Fprintf(&b, "Ubicación: %s.\n", st.Entities.Location)
	}
	for _, q := range cat.QuestionsFor(st.Sector, st.Subsector) {
		if vals, ok := st.Answers[q.ID]; ok {
			fmt.Fprintf(&b, "%s %s\n", q.Prompt, strings.Join(vals, ", "))
		}
	}
	return b.String()
}
