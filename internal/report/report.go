// Package report assembles the monthly report input and renders it to
// PDF. The engine output (day groups and totals) is the whole input
// contract; nothing here reaches back into the store.
package report

import (
	"installerpro/internal/core"
	"installerpro/internal/pricing"
)

// Report is the structured input handed to a renderer.
type Report struct {
	TechnicianLabel string
	PeriodLabel     string
	Days            []pricing.DayGroup
	Totals          pricing.Totals
}

// Build assembles a report from already-filtered collections. The
// caller scopes the slices to the period; Build only derives.
func Build(tech core.Technician, period string, installations []core.Installation, fuel []core.FuelExpense, policy pricing.TotalPolicy) Report {
	label := tech.Name
	if label == "" {
		label = tech.ID
	}
	return Report{
		TechnicianLabel: label,
		PeriodLabel:     period,
		Days:            pricing.SortedDays(pricing.AggregateByDay(installations, policy)),
		Totals:          pricing.PeriodTotals(installations, fuel, policy),
	}
}
