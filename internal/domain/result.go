package domain

import "time"

// LocationSeries is the smoothed new-case curve for one comparison location.
type LocationSeries struct {
	Location string
	Dates    []time.Time
	Smoothed []float64
}

// CompareLocations filters t to each location independently and computes the
// rolling mean of new cases. Locations with no rows are returned in missing
// and omitted from series.
func CompareLocations(t Table, locations []string, window int, mode RollingMode) ([]LocationSeries, []string, error) {
	var (
		series  []LocationSeries
		missing []string
	)
	for _, loc := range locations {
		subset := ForLocation(t, loc)
		if subset.Len() == 0 {
			missing = append(missing, loc)
			continue
		}
		smoothed, err := RollingSeries(subset, ColNewCases, window, mode)
		if err != nil {
			return nil, nil, err
		}
		series = append(series, LocationSeries{
			Location: loc,
			Dates:    subset.Dates(),
			Smoothed: smoothed,
		})
	}
	return series, missing, nil
}

// Result is everything a pipeline run produces for rendering and output.
type Result struct {
	Location   string
	Cleaned    Table
	Comparison []LocationSeries
	// Correlation is nil when too few complete rows were available.
	Correlation *CorrelationMatrix
}
