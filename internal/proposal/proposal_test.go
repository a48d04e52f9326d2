package proposal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hidrotec-mx/intake-cli/internal/catalog"
	"github.com/hidrotec-mx/intake-cli/internal/model"
)

func completedState(t *testing.T) (*catalog.Catalog, *model.State) {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)

	st := model.NewState("a1b2c3d4-e5f6-7890-abcd-ef1234567890")
	st.Sector = "Industrial"
	st.Subsector = "Textil"
	st.Completed = true
	st.Entities = model.KeyEntities{Company: "Textiles del Norte SA", Location: "Torreón, Coahuila"}
	st.SetAnswer(catalog.SectorAnswerKey, "Industrial")
	st.SetAnswer(catalog.SubsectorAnswerKey, "Textil")
	st.SetAnswer("nombre_empresa", "Textiles del Norte SA")
	st.SetAnswer("ubicacion", "Torreón, Coahuila")
	st.SetAnswer("proceso_principal", "Teñido y acabado")
	st.SetAnswer("consumo_agua", "200 a 500 m³/día")
	st.SetAnswer("fuente_agua", "Pozo propio", "Red municipal")
	st.SetAnswer("problema_principal", "Color intenso", "pH fuera de norma")
	st.SetAnswer("analisis_agua", "Sí, de los últimos 6 meses")
	st.SetAnswer("objetivo_reuso", "Sí, en teñido")
	return cat, st
}

func TestBuild_Incomplete(t *testing.T) {
	cat, st := completedState(t)
	st.Completed = false

	doc, err := Build(cat, st)

	require.ErrorIs(t, err, ErrIncomplete)
	assert.Nil(t, doc)
}

func TestBuild_Sections(t *testing.T) {
	cat, st := completedState(t)

	doc, err := Build(cat, st)
	require.NoError(t, err)

	assert.Equal(t, "HT-A1B2C3D4", doc.Reference)
	assert.Equal(t, "Textiles del Norte SA", doc.Company)
	assert.Equal(t, "Industrial", doc.Sector)
	assert.Equal(t, "Textil", doc.Subsector)

	require.Len(t, doc.Sections, 4)
	assert.Equal(t, "Antecedentes", doc.Sections[0].Title)
	assert.Equal(t, "Diagnóstico", doc.Sections[1].Title)
	assert.Equal(t, "Solución propuesta", doc.Sections[2].Title)
	assert.Equal(t, "Siguientes pasos", doc.Sections[3].Title)

	assert.Contains(t, doc.Sections[0].Body, "Textiles del Norte SA")
	assert.Contains(t, doc.Sections[0].Body, "Torreón, Coahuila")
	assert.Contains(t, doc.Sections[1].Body, "Teñido y acabado")
	assert.Contains(t, doc.Sections[1].Body, "Pozo propio, Red municipal")
	assert.Contains(t, doc.Sections[2].Body, "fisicoquímico")
}

func TestBuild_Deterministic(t *testing.T) {
	cat, st := completedState(t)

	first, err := Build(cat, st)
	require.NoError(t, err)
	second, err := Build(cat, st)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestBuild_DoesNotMutateState(t *testing.T) {
	cat, st := completedState(t)
	answersBefore := len(st.Answers)

	_, err := Build(cat, st)
	require.NoError(t, err)

	assert.Len(t, st.Answers, answersBefore)
	assert.True(t, st.Completed)
}

func TestBuild_MissingCompanyFallsBack(t *testing.T) {
	cat, st := completedState(t)
	st.Entities = model.KeyEntities{}

	doc, err := Build(cat, st)
	require.NoError(t, err)

	assert.Contains(t, doc.Sections[0].Body, "el cliente")
}

func TestReferenceCode_ShortSessionID(t *testing.T) {
	assert.Equal(t, "HT-ABC", referenceCode("abc"))
	assert.Equal(t, "HT-A1B2C3D4", referenceCode("a1-b2-c3-d4-e5"))
}

func TestMarkdown(t *testing.T) {
	cat, st := completedState(t)
	doc, err := Build(cat, st)
	require.NoError(t, err)

	md := doc.Markdown()

	assert.Contains(t, md, "# Propuesta de tratamiento de agua")
	assert.Contains(t, md, "**Referencia:** HT-A1B2C3D4")
	assert.Contains(t, md, "## Diagnóstico")
	assert.Contains(t, md, "## Siguientes pasos")
}

func TestRenderHTML(t *testing.T) {
	cat, st := completedState(t)
	doc, err := Build(cat, st)
	require.NoError(t, err)

	html, err := doc.RenderHTML()
	require.NoError(t, err)

	assert.Contains(t, string(html), "<h1>Propuesta de tratamiento de agua</h1>")
	assert.Contains(t, string(html), "<h2>Diagnóstico</h2>")
	assert.Contains(t, string(html), "<strong>Referencia:</strong>")
}

func TestSolucion_UnknownSectorDefault(t *testing.T) {
	st := model.NewState("s1")
	st.Sector = "Agropecuario"

	assert.Contains(t, solucion(st), "dimensionada a partir de la información declarada")
}
