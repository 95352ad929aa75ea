package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOfferings_CrossProduct(t *testing.T) {
	all := Offerings()
	require.Len(t, all, len(Languages)*len(Levels))

	seen := make(map[string]bool)
	for _, o := range all {
		require.False(t, seen[o.ProductID], "duplicate product id %s", o.ProductID)
		seen[o.ProductID] = true
		require.Equal(t, ProductIDFor(o.Language, o.Level), o.ProductID)
	}
}

func TestProductIDFor_Deterministic(t *testing.T) {
	require.Equal(t, "hindi_junior", ProductIDFor("Hindi", LevelJunior))
	require.Equal(t, "telugu_pre_junior", ProductIDFor("Telugu", LevelPreJunior))
	require.Equal(t, ProductIDFor("Tamil", LevelJunior), ProductIDFor("Tamil", LevelJunior))
}

func TestOfferingByProductID(t *testing.T) {
	o, ok := OfferingByProductID("hindi_pre_junior")
	require.True(t, ok)
	require.Equal(t, "Hindi", o.Language)
	require.Equal(t, LevelPreJunior, o.Level)

	_, ok = OfferingByProductID("klingon_junior")
	require.False(t, ok)
}

func TestLevelFromLabel(t *testing.T) {
	for _, label := range []string{"Pre Junior", "pre-junior", "preJunior", "PRE_JUNIOR"} {
		lvl, err := LevelFromLabel(label)
		require.NoError(t, err, label)
		require.Equal(t, LevelPreJunior, lvl)
	}

	lvl, err := LevelFromLabel("Junior")
	require.NoError(t, err)
	require.Equal(t, LevelJunior, lvl)

	_, err = LevelFromLabel("Senior")
	require.ErrorIs(t, err, ErrUnknownLevel)
}

func TestOfferingsReturnsCopy(t *testing.T) {
	first := Offerings()
	first[0].ProductID = "mutated"
	second := Offerings()
	require.NotEqual(t, "mutated", second[0].ProductID)
}
