package planner

import (
	"testing"

	"github.com/shopspring/decimal"

	"svend/internal/core"
	"svend/internal/log"
)

func TestNewScheduleEqualInstallments(t *testing.T) {
	p := New(log.Nop())
	goal := core.Goal{
		ID:         "g1",
		Name:       "Emergency fund",
		Kind:       core.GoalSavings,
		Amount:     d("12000"),
		TargetDate: core.NewDate(2026, 8, 1),
	}

	schedule := p.NewSchedule(goal, testNow())
	if len(schedule) != 12 {
		t.Fatalf("schedule length = %d, want 12", len(schedule))
	}
	for i, a := range schedule {
		if !a.Planned.Equal(d("1000")) {
			t.Errorf("month %d planned = %s, want 1000", i, a.Planned)
		}
		if !a.Actual.Equal(decimal.Zero) {
			t.Errorf("month %d actual = %s, want 0", i, a.Actual)
		}
		want := core.NewDate(2025, 8, 1).AddMonths(i)
		if !a.Date.Equal(want.Time) {
			t.Errorf("month %d dated %s, want %s", i, a.Date, want)
		}
	}
}

func TestNewScheduleLastMonthAbsorbsRounding(t *testing.T) {
	p := New(log.Nop())
	goal := core.Goal{
		ID:         "g1",
		Kind:       core.GoalSavings,
		Amount:     d("1000"),
		TargetDate: core.NewDate(2025, 11, 1), // 3 months out
	}

	schedule := p.NewSchedule(goal, testNow())
	if len(schedule) != 3 {
		t.Fatalf("schedule length = %d, want 3", len(schedule))
	}
	if !schedule[0].Planned.Equal(d("333.33")) || !schedule[1].Planned.Equal(d("333.33")) {
		t.Errorf("base months = %s/%s, want 333.33", schedule[0].Planned, schedule[1].Planned)
	}
	if !schedule[2].Planned.Equal(d("333.34")) {
		t.Errorf("final month = %s, want 333.34", schedule[2].Planned)
	}

	var sum decimal.Decimal
	for _, a := range schedule {
		sum = sum.Add(a.Planned)
	}
	if !sum.Equal(d("1000")) {
		t.Errorf("schedule sums to %s, want 1000", sum)
	}
}

func TestNewScheduleStartingBalance(t *testing.T) {
	p := New(log.Nop())
	goal := core.Goal{
		ID:              "g1",
		Kind:            core.GoalSavings,
		Amount:          d("12000"),
		StartingBalance: d("6000"),
		TargetDate:      core.NewDate(2026, 8, 1),
	}

	schedule := p.NewSchedule(goal, testNow())
	if len(schedule) != 12 {
		t.Fatalf("schedule length = %d, want 12", len(schedule))
	}
	if !schedule[0].Planned.Equal(d("500")) {
		t.Errorf("planned = %s, want 500 (remaining 6000 over 12 months)", schedule[0].Planned)
	}
}

func TestNewScheduleAlreadyFunded(t *testing.T) {
	p := New(log.Nop())
	goal := core.Goal{
		ID:              "g1",
		Kind:            core.GoalSavings,
		Amount:          d("5000"),
		StartingBalance: d("5000"),
		TargetDate:      core.NewDate(2026, 8, 1),
	}
	if schedule := p.NewSchedule(goal, testNow()); len(schedule) != 0 {
		t.Fatalf("funded goal schedule length = %d, want 0", len(schedule))
	}
}

func TestNewScheduleInvalidDateFallsBackToSingleMonth(t *testing.T) {
	p := New(log.Nop())
	goal := core.Goal{
		ID:     "g1",
		Kind:   core.GoalSavings,
		Amount: d("1200"),
		// zero target date: degrade to one allocation this month
	}

	schedule := p.NewSchedule(goal, testNow())
	if len(schedule) != 1 {
		t.Fatalf("schedule length = %d, want 1", len(schedule))
	}
	if !schedule[0].Planned.Equal(d("1200")) {
		t.Errorf("planned = %s, want full 1200", schedule[0].Planned)
	}
	if !schedule[0].Date.Equal(core.NewDate(2025, 8, 1).Time) {
		t.Errorf("dated %s, want 2025-08-01", schedule[0].Date)
	}
}

func TestNewSchedulePastTargetDateClampsToOneMonth(t *testing.T) {
	p := New(log.Nop())
	goal := core.Goal{
		ID:         "g1",
		Kind:       core.GoalSavings,
		Amount:     d("900"),
		TargetDate: core.NewDate(2025, 2, 1), // already behind us
	}

	schedule := p.NewSchedule(goal, testNow())
	if len(schedule) != 1 {
		t.Fatalf("schedule length = %d, want 1", len(schedule))
	}
	if !schedule[0].Planned.Equal(d("900")) {
		t.Errorf("planned = %s, want 900", schedule[0].Planned)
	}
}

func TestRescaleScheduleZeroRatio(t *testing.T) {
	p := New(log.Nop())
	goal := fixtureGoals()[0]
	if schedule := p.RescaleSchedule(goal, d("1000"), decimal.Zero, testNow()); len(schedule) != 0 {
		t.Fatalf("zero ratio schedule length = %d, want 0", len(schedule))
	}
}

func TestRescaleScheduleUnchangedAtRatioOne(t *testing.T) {
	p := New(log.Nop())
	goal := fixtureGoals()[0] // 12000 over 12 months

	schedule := p.RescaleSchedule(goal, d("1000"), decimal.NewFromInt(1), testNow())
	if len(schedule) != 12 {
		t.Fatalf("schedule length = %d, want 12", len(schedule))
	}
	for i, a := range schedule {
		if !a.Planned.Equal(d("1000")) {
			t.Errorf("month %d = %s, want 1000", i, a.Planned)
		}
	}
}

func TestRescaleScheduleShrinksWithBoost(t *testing.T) {
	p := New(log.Nop())
	goal := fixtureGoals()[0]

	// Funding scaled up 1.4466...x: 1446.67 per month covers 12000 in 9
	// payments, re-leveled to 1333.34 with the final month absorbing.
	ratio := d("2170").Div(d("1500"))
	schedule := p.RescaleSchedule(goal, d("1000"), ratio, testNow())
	if len(schedule) != 9 {
		t.Fatalf("schedule length = %d, want 9", len(schedule))
	}
	for i := 0; i < 8; i++ {
		if !schedule[i].Planned.Equal(d("1333.34")) {
			t.Errorf("month %d = %s, want 1333.34", i, schedule[i].Planned)
		}
	}
	if !schedule[8].Planned.Equal(d("1333.28")) {
		t.Errorf("final month = %s, want 1333.28", schedule[8].Planned)
	}

	var sum decimal.Decimal
	for _, a := range schedule {
		sum = sum.Add(a.Planned)
	}
	if !sum.Equal(d("12000")) {
		t.Errorf("schedule sums to %s, want 12000", sum)
	}
}

func TestRescaleScheduleStretchesWhenReduced(t *testing.T) {
	p := New(log.Nop())
	goal := fixtureGoals()[1] // 6000 remaining

	// Half funding: 250 per month takes 24 payments.
	schedule := p.RescaleSchedule(goal, d("500"), d("0.5"), testNow())
	if len(schedule) != 24 {
		t.Fatalf("schedule length = %d, want 24", len(schedule))
	}
	if !schedule[0].Planned.Equal(d("250")) {
		t.Errorf("month 0 = %s, want 250", schedule[0].Planned)
	}
}

func TestRescaleScheduleDebtKeepsInstallmentCount(t *testing.T) {
	p := New(log.Nop())
	goal := core.Goal{
		ID:            "car_loan",
		Name:          "Car loan",
		Kind:          core.GoalDebt,
		DebtComponent: core.DebtPrincipalInterest,
		Amount:        d("12000"),
		TargetDate:    core.NewDate(2026, 8, 1), // 12 installments
	}

	// Reduced funding keeps 12 installments, only the amount moves.
	schedule := p.RescaleSchedule(goal, d("1000"), d("0.5"), testNow())
	if len(schedule) != 12 {
		t.Fatalf("debt schedule length = %d, want 12 (count never adapts)", len(schedule))
	}
	for i := 0; i < 11; i++ {
		if !schedule[i].Planned.Equal(d("500")) {
			t.Errorf("month %d = %s, want 500", i, schedule[i].Planned)
		}
	}
	// Final installment still squares the schedule with the remaining
	// balance.
	if !schedule[11].Planned.Equal(d("6500")) {
		t.Errorf("final month = %s, want 6500", schedule[11].Planned)
	}

	// A plain savings goal under the same ratio stretches instead.
	savings := goal
	savings.Kind = core.GoalSavings
	savings.DebtComponent = ""
	if stretched := p.RescaleSchedule(savings, d("1000"), d("0.5"), testNow()); len(stretched) != 24 {
		t.Fatalf("savings schedule length = %d, want 24", len(stretched))
	}
}

func TestRescaleScheduleNegativeRemaining(t *testing.T) {
	p := New(log.Nop())
	goal := core.Goal{
		ID:              "g1",
		Kind:            core.GoalSavings,
		Amount:          d("1000"),
		StartingBalance: d("1500"),
		TargetDate:      core.NewDate(2026, 8, 1),
	}
	if schedule := p.RescaleSchedule(goal, d("100"), decimal.NewFromInt(1), testNow()); len(schedule) != 0 {
		t.Fatalf("overfunded goal schedule length = %d, want 0", len(schedule))
	}
}
