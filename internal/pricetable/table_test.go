package pricetable

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromColumns(t *testing.T) {
	dates := []time.Time{day(2), day(3), day(5)}
	table, err := FromColumns(dates, []string{"A", "B"}, map[string][]float64{
		"A": {1, 2, 3},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, table.Len())
	assert.Equal(t, 2.0, table.PriceOn("A", day(3)))
	assert.True(t, IsMissing(table.PriceOn("A", day(4))))
	assert.Equal(t, []string{"B"}, table.MissingSymbols())
	assert.True(t, IsMissing(table.Price("UNKNOWN", 0)))
}

func TestFromColumns_Rejects(t *testing.T) {
	_, err := FromColumns([]time.Time{day(3), day(2)}, []string{"A"}, nil)
	assert.Error(t, err)

	_, err = FromColumns([]time.Time{day(2), day(3)}, []string{"A"}, map[string][]float64{"A": {1}})
	assert.Error(t, err)
}

func TestTableNavigation(t *testing.T) {
	table, err := FromColumns([]time.Time{day(2), day(3), day(5)}, []string{"A"}, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, table.RowsUpTo(day(1)))
	assert.Equal(t, 2, table.RowsUpTo(day(4)))
	assert.Equal(t, 3, table.RowsUpTo(day(31)))

	d, ok := table.FirstOnOrAfter(day(4))
	require.True(t, ok)
	assert.Equal(t, day(5), d)

	_, ok = table.FirstOnOrAfter(day(6))
	assert.False(t, ok)
}

func TestColumnIsCopy(t *testing.T) {
	table, err := FromColumns([]time.Time{day(2)}, []string{"A"}, map[string][]float64{"A": {7}})
	require.NoError(t, err)

	col := table.Column("A")
	col[0] = 99
	assert.Equal(t, 7.0, table.Price("A", 0))
}
