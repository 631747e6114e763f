package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeLabel(t *testing.T) {
	require.Equal(t, "codice fiscale", NormalizeLabel("  Codice\n\tFiscale "))
}

func TestMatchKeyword(t *testing.T) {
	keywords := []string{"documento", "allegato", "pratica"}
	require.True(t, MatchKeyword("Codice Pratica", keywords))
	require.True(t, MatchKeyword("  ALLEGATO  ", keywords))
	require.False(t, MatchKeyword("Denominazione", keywords))
}
