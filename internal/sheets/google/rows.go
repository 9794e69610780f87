package google

import (
	"sort"

	"github.com/shopspring/decimal"

	"svend/internal/core"
)

// planRows converts one scenario's slice of the bundle into a values
// matrix for the Sheets API: a header row, group rows with their
// categories underneath, the applied ratios, then the goal schedules.
// Groups and goals are emitted in sorted order so successive exports
// of the same plan produce identical sheets.
func planRows(bundle *core.Bundle, scenario core.Scenario) [][]interface{} {
	rows := [][]interface{}{
		{"Group", "Category", "Spending", "Recommendation", "Target"},
	}

	plan := bundle.Spending[scenario]
	groups := make([]string, 0, len(plan))
	for name := range plan {
		groups = append(groups, name)
	}
	sort.Strings(groups)

	for _, name := range groups {
		group := plan[name]
		rows = append(rows, []interface{}{
			group.Group, "", toNumber(group.Spending), toNumber(group.Recommendation), toNumber(group.Target),
		})
		for _, cat := range group.Categories {
			rows = append(rows, []interface{}{
				"", cat.Category, toNumber(cat.Spending), toNumber(cat.Recommendation), toNumber(cat.Target),
			})
		}
	}

	ratios := bundle.Ratios[scenario]
	survival := "no"
	if bundle.SurvivalMode {
		survival = "yes"
	}
	rows = append(rows,
		[]interface{}{},
		[]interface{}{"Spending cut", "", toNumber(ratios.Spending)},
		[]interface{}{"Goal funding", "", toNumber(ratios.Funding)},
		[]interface{}{"Survival mode", "", survival},
	)

	schedules := bundle.Goals[scenario]
	if len(schedules) == 0 {
		return rows
	}

	rows = append(rows,
		[]interface{}{},
		[]interface{}{"Goal", "Month", "Planned"},
	)

	goalIDs := make([]string, 0, len(schedules))
	for id := range schedules {
		goalIDs = append(goalIDs, id)
	}
	sort.Strings(goalIDs)

	for _, id := range goalIDs {
		for _, alloc := range schedules[id] {
			rows = append(rows, []interface{}{id, alloc.Date.String(), toNumber(alloc.Planned)})
		}
	}

	return rows
}

// toNumber renders an amount as a plain float cell. Amounts are already
// rounded to the cent, so the float round trip is exact for any balance
// a household ledger will see.
func toNumber(d decimal.Decimal) interface{} {
	f, _ := d.Float64()
	return f
}
