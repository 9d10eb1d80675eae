package report

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"installerpro/internal/core"
)

// RenderPDF renders the monthly report as an A4 PDF document.
func RenderPDF(r Report) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, "Relatório "+r.PeriodLabel, props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)
	m.AddRow(8,
		text.NewCol(12, "Técnico: "+r.TechnicianLabel, props.Text{Size: 11}),
	)

	// Table header
	m.AddRow(9,
		text.NewCol(4, "Data", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Instalações", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(3, "Preço unit.", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(3, "Total do dia", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, day := range r.Days {
		m.AddRow(7,
			text.NewCol(4, day.Date.ISO(), props.Text{Size: 9}),
			text.NewCol(2, fmt.Sprintf("%d", day.Count), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(3, core.FormatBRL(day.UnitPrice.Cents), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(3, core.FormatBRL(day.DayTotal.Cents), props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(10,
		col.New(6),
		text.NewCol(3, "Instalações", props.Text{Size: 9}),
		text.NewCol(3, core.FormatBRL(r.Totals.InstallTotal.Cents), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(8,
		col.New(6),
		text.NewCol(3, "Combustível", props.Text{Size: 9}),
		text.NewCol(3, "-"+core.FormatBRL(r.Totals.FuelTotal.Cents), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(6),
		text.NewCol(3, "Saldo", props.Text{Style: fontstyle.Bold, Size: 10}),
		text.NewCol(3, core.FormatBRL(r.Totals.Balance.Cents), props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate pdf: %w", err)
	}
	return doc.GetBytes(), nil
}
