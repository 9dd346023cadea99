package lang

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	cases := []struct {
		text string
		want Language
	}{
		{"What is the difference between these two reports?", English},
		{"Hoe werkt de opslag van deze documenten?", Dutch},
		{"¿Cuál es el resumen de este informe?", Spanish},
		{"", English},
		{"zzzz qqqq", English},
	}
	for _, c := range cases {
		require.Equal(t, c.want, Detect(c.text), "text: %q", c.text)
	}
}

func TestDetectTieIsDeterministic(t *testing.T) {
	// "de" scores for both Dutch and Spanish; Dutch comes first in
	// iteration order and must win every run.
	got := Detect("de de")
	require.Equal(t, Dutch, got)
}
