// Package pricing implements the tiered pricing and aggregation engine.
//
// Everything here is a pure function of the record collections and an
// as-of date. Unit prices are views derived from how many installations
// share a calendar day at computation time; deleting a record changes
// the price of the remaining same-day records on the next aggregation.
package pricing

import (
	"sort"

	"installerpro/internal/core"
)

// Per-unit tier prices in centavos, by same-day installation count.
const (
	tierSingleCents int64 = 9000
	tierPairCents   int64 = 10000
	tierBulkCents   int64 = 11000
)

const (
	// FlatTier computes a day total as count times the tier unit price.
	FlatTier TotalPolicy = "flat-tier"
	// FixedBrackets uses fixed amounts for one and two installations and
	// count times the bulk price from three up. Both policies yield the
	// same totals for the current tiers; they diverge only if a bracket
	// is ever changed independently of its unit price.
	FixedBrackets TotalPolicy = "fixed-brackets"
)

const (
	FilterToday  FilterMode = "today"
	FilterMonth  FilterMode = "month"
	FilterAll    FilterMode = "all"
	FilterCustom FilterMode = "custom"
)

type (
	// TotalPolicy selects the daily-total formula.
	TotalPolicy string

	// FilterMode selects which slice of records a listing covers.
	FilterMode string

	// Range bounds a custom filter, inclusive on both ends.
	Range struct {
		Start core.Date
		End   core.Date
	}

	// DayGroup is the aggregate for one calendar day.
	DayGroup struct {
		Date      core.Date
		Count     int
		UnitPrice core.Money
		DayTotal  core.Money
	}

	// Totals summarizes a set of installations and fuel expenses.
	// Balance is always InstallTotal minus FuelTotal.
	Totals struct {
		Count        int
		InstallTotal core.Money
		FuelTotal    core.Money
		Balance      core.Money
	}

	// Dated is any record carrying a billing day.
	Dated interface {
		Day() core.Date
	}
)

// Day implements Dated for installations.
func (g DayGroup) Day() core.Date { return g.Date }

// IsValid reports whether the policy is a known one.
func (p TotalPolicy) IsValid() bool {
	return p == FlatTier || p == FixedBrackets
}

// IsValid reports whether the mode is a known one.
func (m FilterMode) IsValid() bool {
	switch m {
	case FilterToday, FilterMonth, FilterAll, FilterCustom:
		return true
	}
	return false
}

// PriceForCount returns the per-unit tier price for a day with n
// installations. n is at least 1; a day with no installations never
// reaches pricing.
func PriceForCount(n int) core.Money {
	switch {
	case n <= 1:
		return core.Money{Cents: tierSingleCents}
	case n == 2:
		return core.Money{Cents: tierPairCents}
	default:
		return core.Money{Cents: tierBulkCents}
	}
}

// DayTotalForCount returns the total earned for a day with n
// installations under the given policy.
func DayTotalForCount(n int, policy TotalPolicy) core.Money {
	if policy == FixedBrackets {
		switch {
		case n <= 1:
			return core.Money{Cents: tierSingleCents}
		case n == 2:
			return core.Money{Cents: 2 * tierPairCents}
		default:
			return core.Money{Cents: int64(n) * tierBulkCents}
		}
	}
	unit := PriceForCount(n)
	return core.Money{Cents: int64(n) * unit.Cents}
}

// AggregateByDay groups installations by calendar day and prices each
// group by its count. Every installation lands in exactly one group.
func AggregateByDay(installations []core.Installation, policy TotalPolicy) map[string]DayGroup {
	counts := make(map[string]int)
	days := make(map[string]core.Date)
	for _, inst := range installations {
		key := inst.Date.ISO()
		counts[key]++
		days[key] = inst.Date
	}

	groups := make(map[string]DayGroup, len(counts))
	for key, n := range counts {
		groups[key] = DayGroup{
			Date:      days[key],
			Count:     n,
			UnitPrice: PriceForCount(n),
			DayTotal:  DayTotalForCount(n, policy),
		}
	}
	return groups
}

// SortedDays flattens a day-group map into chronological order for
// display and report rendering.
func SortedDays(groups map[string]DayGroup) []DayGroup {
	out := make([]DayGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// PeriodTotals sums day totals over all groups and fuel amounts over
// all expenses. Callers filter both slices to the period of interest
// first; the engine does not scope by month on its own.
func PeriodTotals(installations []core.Installation, fuel []core.FuelExpense, policy TotalPolicy) Totals {
	t := Totals{Count: len(installations)}
	for _, g := range AggregateByDay(installations, policy) {
		t.InstallTotal.Cents += g.DayTotal.Cents
	}
	for _, f := range fuel {
		t.FuelTotal.Cents += f.Amount.Cents
	}
	t.Balance.Cents = t.InstallTotal.Cents - t.FuelTotal.Cents
	return t
}

// FilterByPeriod selects the records matching the mode relative to
// asOf. Custom ranges require both bounds with Start no later than End;
// anything else is a validation error, never a silent full scan.
func FilterByPeriod[T Dated](records []T, mode FilterMode, rng Range, asOf core.Date) ([]T, error) {
	switch mode {
	case FilterAll:
		return records, nil
	case FilterToday:
		day := asOf.ISO()
		return filter(records, func(d core.Date) bool { return d.ISO() == day }), nil
	case FilterMonth:
		period := asOf.Period()
		return filter(records, func(d core.Date) bool { return d.Period() == period }), nil
	case FilterCustom:
		if rng.Start.IsZero() || rng.End.IsZero() {
			return nil, core.ErrInvalidRange
		}
		if rng.End.Before(rng.Start) {
			return nil, core.ErrInvalidRange
		}
		lo, hi := rng.Start.ISO(), rng.End.ISO()
		return filter(records, func(d core.Date) bool {
			key := d.ISO()
			return lo <= key && key <= hi
		}), nil
	default:
		return nil, core.ErrInvalidRange
	}
}

func filter[T Dated](records []T, keep func(core.Date) bool) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		if keep(r.Day()) {
			out = append(out, r)
		}
	}
	return out
}
