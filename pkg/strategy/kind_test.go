package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/nextstep/pkg/errors"
)

func TestParseKind(t *testing.T) {
	for _, k := range All() {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	aliases := map[string]Kind{
		"pagerank":   Importance,
		"PRLearn":    Learned,
		"choicerank": External,
		" Uniform ":  Uniform,
	}
	for in, want := range aliases {
		got, err := ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseKind("oracle")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig))
}

func TestParseKinds(t *testing.T) {
	got, err := ParseKinds([]string{"learned", "uniform"})
	require.NoError(t, err)
	assert.Equal(t, []Kind{Learned, Uniform}, got)

	_, err = ParseKinds([]string{"learned", "prlearn"})
	assert.Error(t, err)
}

func TestKindText(t *testing.T) {
	text, err := Jaccard.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "jaccard", string(text))

	var k Kind
	require.NoError(t, k.UnmarshalText([]byte("popularity")))
	assert.Equal(t, Popularity, k)

	_, err = Kind(-1).MarshalText()
	assert.Error(t, err)
	assert.Equal(t, "Kind(-1)", Kind(-1).String())
	assert.Len(t, All(), 7)
}
