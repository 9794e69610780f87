// Package planner provides the budget recommendation engine.
//
// This file implements the goal allocation scheduler: initial
// equal-installment schedules generated at goal creation, and the
// per-scenario rescaling that regenerates them on every recompute.

package planner

import (
	"time"

	"github.com/shopspring/decimal"

	"svend/internal/core"
	"svend/internal/log"
)

// NewSchedule generates a goal's initial contribution schedule: equal
// monthly installments from the current month through the target date,
// with the final month absorbing the rounding remainder so the planned
// amounts sum to the remaining balance exactly.
//
// A goal whose remaining balance is zero or negative yields an empty
// schedule. An invalid target date falls back to the current month,
// which collapses the schedule to a single allocation.
func (p *Planner) NewSchedule(goal core.Goal, now time.Time) []core.MonthlyAllocation {
	remaining := goal.Remaining()
	if remaining.LessThanOrEqual(decimal.Zero) {
		p.logger.Warn("goal has nothing left to fund, empty schedule",
			log.FieldGoalID, goal.ID,
			log.FieldRemaining, remaining)
		return []core.MonthlyAllocation{}
	}

	months := p.scheduleMonths(goal, now)
	base := core.Round2(remaining.Div(decimal.NewFromInt(int64(months))))
	return buildAllocations(remaining, base, months, core.FirstOfMonth(now))
}

// RescaleSchedule regenerates a goal's schedule under one scenario's
// funding ratio. The whole schedule is rebuilt, never patched: the
// adjusted monthly amount is the original scaled by the ratio, and the
// installment count adapts so the remaining balance still gets funded.
// Debt goals paying principal and interest keep their original count;
// amortization length is fixed, only the per-month amount moves.
//
// A ratio that zeroes the adjusted amount returns an empty schedule: the
// goal is unfunded this cycle.
func (p *Planner) RescaleSchedule(goal core.Goal, originalMonthly, ratio decimal.Decimal, now time.Time) []core.MonthlyAllocation {
	remaining := goal.Remaining()
	if remaining.LessThanOrEqual(decimal.Zero) {
		p.logger.Debug("goal already funded, empty schedule", log.FieldGoalID, goal.ID)
		return []core.MonthlyAllocation{}
	}

	adjusted := core.Round2(originalMonthly.Mul(ratio))
	if adjusted.LessThanOrEqual(decimal.Zero) {
		return []core.MonthlyAllocation{}
	}

	var months int
	var base decimal.Decimal
	if goal.Kind == core.GoalDebt && goal.DebtComponent == core.DebtPrincipalInterest {
		months = p.scheduleMonths(goal, now)
		base = adjusted
	} else {
		months = int(remaining.Div(adjusted).Ceil().IntPart())
		if months < 1 {
			p.logger.Warn("computed payment count below one, clamping",
				log.FieldGoalID, goal.ID,
				log.FieldMonths, months)
			months = 1
		}
		// Level the installments over the new count. Rounding up keeps
		// the final installment at or below the base.
		base = core.Ceil2(remaining.Div(decimal.NewFromInt(int64(months))))
	}
	return buildAllocations(remaining, base, months, core.FirstOfMonth(now))
}

// scheduleMonths is the month-granularity distance to the goal's target
// date, never below one. Unparsable target dates degrade to the current
// month.
func (p *Planner) scheduleMonths(goal core.Goal, now time.Time) int {
	target := goal.TargetDate
	if err := target.Validate(); err != nil {
		p.logger.Error("invalid goal target date, using current month",
			log.FieldGoalID, goal.ID,
			log.FieldError, err)
		target = core.Date{Time: now}
	}
	months := core.MonthsBetween(core.Date{Time: now}, target)
	if months < 1 {
		months = 1
	}
	return months
}

// buildAllocations lays out the schedule: one allocation per month dated
// the first of its month, each planned at base except the last, which
// absorbs the rounding remainder so the sum equals remaining to the cent.
func buildAllocations(remaining, base decimal.Decimal, months int, start core.Date) []core.MonthlyAllocation {
	allocations := make([]core.MonthlyAllocation, 0, months)
	for i := 0; i < months; i++ {
		planned := base
		if i == months-1 {
			planned = remaining.Sub(base.Mul(decimal.NewFromInt(int64(months - 1))))
		}
		allocations = append(allocations, core.MonthlyAllocation{
			Date:    start.AddMonths(i),
			Planned: planned,
			Actual:  decimal.Zero,
		})
	}
	return allocations
}
