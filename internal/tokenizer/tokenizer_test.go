package tokenizer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mtanig/nicocal/backend/internal/tokenizer"
)

func TestTokenizeSurfaceForms(t *testing.T) {
	tk, err := tokenizer.New()
	require.NoError(t, err)

	got, err := tk.Tokenize("すもももももももものうち")
	require.NoError(t, err)
	require.Equal(t, []string{"すもも", "も", "もも", "も", "もも", "の", "うち"}, got)
}

func TestTokenizeEmpty(t *testing.T) {
	tk, err := tokenizer.New()
	require.NoError(t, err)

	got, err := tk.Tokenize("")
	require.NoError(t, err)
	require.Empty(t, got)
}
