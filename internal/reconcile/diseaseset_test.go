package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiseaseSet_InsertionOrderDeduplication(t *testing.T) {
	s := NewDiseaseSet(0)

	require.NoError(t, s.Add("Alzheimer's Disease"))
	require.NoError(t, s.Add("Cystic Fibrosis"))
	require.NoError(t, s.Add("Alzheimer's Disease"))
	require.NoError(t, s.Add(""))

	assert.Equal(t, []string{"Alzheimer's Disease", "Cystic Fibrosis"}, s.Names())
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Contains("Cystic Fibrosis"))
	assert.False(t, s.Contains("Gaucher Disease"))
}

func TestDiseaseSet_Limit(t *testing.T) {
	s := NewDiseaseSet(2)

	require.NoError(t, s.Add("Disease A"))
	require.NoError(t, s.Add("Disease B"))

	// Duplicates never count against the cap.
	require.NoError(t, s.Add("Disease A"))

	err := s.Add("Disease C")
	assert.ErrorIs(t, err, ErrDiseaseLimit)

	// Prior contents survive a refused add.
	assert.Equal(t, []string{"Disease A", "Disease B"}, s.Names())
}

func TestDiseaseSet_NamesReturnsCopy(t *testing.T) {
	s := NewDiseaseSet(0)
	require.NoError(t, s.Add("Disease A"))

	names := s.Names()
	names[0] = "mutated"

	assert.Equal(t, []string{"Disease A"}, s.Names())
}
