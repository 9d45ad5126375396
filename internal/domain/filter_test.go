package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter_Predicates(t *testing.T) {
	table := scenarioTable(t)
	minDate := testStart.AddDate(0, 0, 5)

	tests := []struct {
		name      string
		criteria  Criteria
		wantCount int
	}{
		{"india threshold and date", Criteria{Location: testIndia, MinTotalCases: 1000, MinDate: minDate}, 25},
		{"threshold only", Criteria{Location: testIndia, MinTotalCases: 1000}, 25},
		{"date only", Criteria{Location: testUS, MinDate: testStart.AddDate(0, 0, 20)}, 10},
		{"high threshold", Criteria{Location: testBrazil, MinTotalCases: 2000}, 5},
		{"case sensitive location", Criteria{Location: "india"}, 0},
		{"unknown location", Criteria{Location: "Atlantis"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subset := Filter(table, tt.criteria)
			assert.Equal(t, tt.wantCount, subset.Len())
			for i := range subset.Rows {
				row := &subset.Rows[i]
				assert.Equal(t, tt.criteria.Location, row.Location)
				assert.GreaterOrEqual(t, row.TotalCases, tt.criteria.MinTotalCases)
				assert.False(t, row.Date.Before(tt.criteria.MinDate))
			}
		})
	}
}

func TestFilter_MissingTotalCasesNeverMatches(t *testing.T) {
	table := tableOf([]float64{1, 2}, []float64{0, 0})
	table.Rows[0].TotalCases = nan()

	subset := Filter(table, Criteria{Location: testIndia})
	require.Equal(t, 1, subset.Len())
	assert.Equal(t, 2.0, subset.Rows[0].NewCases)
}

func TestFilter_DoesNotModifyInput(t *testing.T) {
	table := scenarioTable(t)
	before := table.Len()

	_ = Filter(table, Criteria{Location: testIndia})
	assert.Equal(t, before, table.Len())
}

func TestDropMissing(t *testing.T) {
	table := tableOf(
		[]float64{1, nan(), 3, nan(), 5},
		[]float64{nan(), nan(), nan(), nan(), nan()},
	)

	cleaned, err := DropMissing(table, ColNewCases)
	require.NoError(t, err)
	assert.Equal(t, 3, cleaned.Len())
	assert.LessOrEqual(t, cleaned.Len(), table.Len())
	for _, row := range cleaned.Rows {
		assert.False(t, IsMissing(row.NewCases))
	}

	all, err := DropMissing(table, ColNewDeaths)
	require.NoError(t, err)
	assert.Equal(t, 0, all.Len())

	_, err = DropMissing(table, ColLocation)
	require.ErrorIs(t, err, ErrMissingColumn)
}

func TestSelect(t *testing.T) {
	table := scenarioTable(t)

	t.Run("scenario subset", func(t *testing.T) {
		subset, err := Select(table, Criteria{
			Location:      testIndia,
			MinTotalCases: 1000,
			MinDate:       testStart.AddDate(0, 0, 5),
		})
		require.NoError(t, err)
		assert.Equal(t, 25, subset.Len())
		assert.Equal(t, testStart.AddDate(0, 0, 5), subset.Rows[0].Date)
	})

	t.Run("absent location", func(t *testing.T) {
		_, err := Select(table, Criteria{Location: "Atlantis"})
		require.ErrorIs(t, err, ErrEmptySubset)
		assert.Contains(t, err.Error(), "Atlantis")
	})

	t.Run("all new cases missing", func(t *testing.T) {
		empty := tableOf([]float64{nan(), nan()}, []float64{1, 1})
		_, err := Select(empty, Criteria{Location: testIndia})
		require.ErrorIs(t, err, ErrEmptySubset)
	})
}

func TestForLocation(t *testing.T) {
	table := scenarioTable(t)
	assert.Equal(t, 30, ForLocation(table, testBrazil).Len())
	assert.Equal(t, 0, ForLocation(table, "Atlantis").Len())
	assert.Equal(t, []string{testIndia, testUS, testBrazil}, table.Locations())
}
