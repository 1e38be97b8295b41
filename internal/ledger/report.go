package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/weekledger/internal/models"
	"github.com/mmynk/weekledger/internal/settlement"
)

// Debts is the outstanding position across all unarchived records.
type Debts struct {
	Edges    []settlement.DebtEdge
	Balances []settlement.Balance
}

// OutstandingDebts computes who still owes whom over every unarchived record,
// across weeks.
func (l *Ledger) OutstandingDebts(ctx context.Context) (*Debts, error) {
	records, err := l.store.ListRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	open := make([]*models.Record, 0, len(records))
	for _, r := range records {
		if !r.IsArchived {
			open = append(open, r)
		}
	}

	edges := settlement.OutstandingDebts(open)
	return &Debts{Edges: edges, Balances: settlement.NetBalances(edges)}, nil
}

// WeekSummary aggregates the records of one week.
type WeekSummary struct {
	Week          string
	Records       int
	Total         decimal.Decimal
	PaidShares    int
	UnpaidShares  int
	UnpaidMembers []string
	Settled       bool
	Archived      bool
}

// SummarizeWeek reports totals and settlement state for week, including
// archived records. Returns ErrNotFound when the week has no records.
func (l *Ledger) SummarizeWeek(ctx context.Context, week string) (*WeekSummary, error) {
	records, err := l.store.ListByWeek(ctx, week)
	if err != nil {
		return nil, fmt.Errorf("load week %s: %w", week, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no records found for week %s", ErrNotFound, week)
	}

	s := &WeekSummary{
		Week:          week,
		Records:       len(records),
		Total:         decimal.Zero,
		UnpaidMembers: settlement.UnpaidMembers(records),
		Settled:       settlement.IsWeekFullySettled(records),
		Archived:      true,
	}
	for _, r := range records {
		s.Total = s.Total.Add(decimal.NewFromFloat(r.Amount))
		if !r.IsArchived {
			s.Archived = false
		}
		for _, m := range r.SplitMembers {
			if m.Paid {
				s.PaidShares++
			} else {
				s.UnpaidShares++
			}
		}
	}
	return s, nil
}
