package slug_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/materiales-api/pkg/slug"
)

func TestFileName(t *testing.T) {
	cases := map[string]string{
		"Plano Fachada Nº2 (revisión).PDF": "plano-fachada-no2-revision.pdf",
		"cotización_ñandú.xlsx":            "cotizacion_nandu.xlsx",
		"../../etc/passwd":                 "passwd",
		"C:\\Users\\obra\\foto 1.JPG":      "foto-1.jpg",
		"???.png":                          "archivo.png",
		"":                                 "archivo",
	}
	for in, want := range cases {
		assert.Equal(t, want, slug.FileName(in), in)
	}
}
