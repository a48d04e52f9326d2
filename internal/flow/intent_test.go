package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultStartIntent(t *testing.T) {
	cases := []struct {
		raw  string
		want bool
	}{
		{"quiero iniciar el cuestionario", true},
		{"necesito una cotización para tratamiento", true},
		{"me interesa una propuesta para mi planta", true},
		{"TENGO UN PROBLEMA CON EL AGUA DE MI EMPRESA", true},
		{"hola", true},  // short greeting defaults to starting
		{"buenos días", true},
		{"", false},
		{"   ", false},
		{"quisiera hablar con alguien del área de recursos humanos sobre una vacante que vi publicada", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DefaultStartIntent(tc.raw), "raw=%q", tc.raw)
	}
}

func TestDefaultDownloadIntent(t *testing.T) {
	cases := []struct {
		raw  string
		want bool
	}{
		{"descargar pdf", true},
		{"DESCARGA el documento por favor", true},
		{"mándame la propuesta", true},
		{"quiero el archivo", true},
		{"¿qué garantía tiene el equipo?", false},
		{"gracias por todo", false},
		{"", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DefaultDownloadIntent(tc.raw), "raw=%q", tc.raw)
	}
}
