package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringList_Overlaps(t *testing.T) {
	spoken := StringList{"English", "Hindi"}

	assert.True(t, spoken.Overlaps([]string{"Hindi", "Tamil"}))
	assert.False(t, spoken.Overlaps([]string{"Tamil"}))
	assert.False(t, spoken.Overlaps(nil))
	assert.False(t, StringList(nil).Overlaps([]string{"English"}))
}

func TestStringList_ValueAndScan(t *testing.T) {
	value, err := StringList{"English", "Hindi"}.Value()
	require.NoError(t, err)
	assert.Equal(t, "{English,Hindi}", value)

	var scanned StringList
	require.NoError(t, scanned.Scan(`{Monday,"Tuesday"}`))
	assert.Equal(t, StringList{"Monday", "Tuesday"}, scanned)

	require.NoError(t, scanned.Scan(nil))
	assert.Nil(t, scanned)

	value, err = StringList(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, value)
}
