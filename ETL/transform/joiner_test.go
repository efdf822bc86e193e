package transform

import (
	"testing"

	"github.com/LilVoxy/order_analytics/ETL/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoin(t *testing.T) {
	customers := map[string]models.Customer{
		"1": {ID: "1", Name: "Rohan Gupta", Region: "North"},
		"2": {ID: "2", Name: "Asha Rao", Region: "South"},
	}
	orders := []models.Order{
		{ID: "a", CustomerID: "1", OrderDate: "2024-01-01", Amount: 100},
		{ID: "b", CustomerID: "999", OrderDate: "2024-01-02", Amount: 200},
		{ID: "c", CustomerID: "1", OrderDate: "2024-01-03", Amount: 300},
		{ID: "d", CustomerID: "", OrderDate: "2024-01-04", Amount: 400},
	}

	j := Join(customers, orders)

	assert.Len(t, j.Matched, 2)
	assert.Len(t, j.Orphans, 2)
	assert.Equal(t, []models.OrphanReferenceWarning{
		{OrderID: "b", CustomerID: "999"},
		{OrderID: "d", CustomerID: ""},
	}, j.Warnings)

	assert.True(t, j.IsOrphan("999"))
	assert.True(t, j.IsOrphan(""))
	assert.False(t, j.IsOrphan("1"))

	records := j.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "1", records[0].Customer.ID)
	assert.Equal(t, []string{"a", "c"}, []string{records[0].Orders[0].ID, records[0].Orders[1].ID})
	assert.Equal(t, "2", records[1].Customer.ID)
	assert.Empty(t, records[1].Orders)

	// inputs are untouched
	assert.Len(t, orders, 4)
	assert.Equal(t, "999", orders[1].CustomerID)
}

func TestJoinEmpty(t *testing.T) {
	j := Join(map[string]models.Customer{}, nil)
	assert.NotNil(t, j.Warnings)
	assert.Empty(t, j.Matched)
	assert.Empty(t, j.Records())
}
