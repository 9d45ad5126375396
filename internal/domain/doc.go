// Package domain models daily COVID-19 observations and the transformations
// applied to them: schema checking, filtering, cleaning, rolling averages and
// correlation.
//
// # Data Source
//
// The input follows the Our World in Data (OWID) COVID-19 dataset layout: one
// row per (location, date) with cumulative and daily counts. Only six columns
// are required; every other column is carried through untouched so the cleaned
// output keeps the shape of the input.
//
//	location           country or region name, e.g. "India"
//	last_updated_date  calendar date, e.g. "2020-04-08"
//	total_cases        cumulative confirmed cases
//	new_cases          daily confirmed cases
//	new_deaths         daily deaths
//	new_vaccinations   daily vaccination doses
//
// # Missing Values
//
// Numeric cells that are empty or hold one of the sentinels "NA", "NaN", "nan"
// or "null" are missing and stored as NaN. Use [IsMissing] rather than
// comparing against NaN directly. Missing values are written back as empty
// cells.
//
// # Ordering
//
// Rolling averages are positional: the value at row i averages rows
// [i-window+1, i]. A subset must therefore be strictly date-ascending with one
// row per date before [Smooth] runs; [Smooth] verifies this and returns
// [ErrUnsorted] otherwise.
//
// Gaps in the calendar are not an error. In [RollingRows] mode a window spans
// the previous rows regardless of how many days they cover. [RollingCalendar]
// mode only reports a value when the window covers consecutive days.
// [DateGaps] counts the gaps so callers can log them.
package domain
