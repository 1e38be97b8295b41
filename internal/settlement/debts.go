package settlement

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/weekledger/internal/models"
)

// DebtEdge represents an outstanding debt from one person to another.
type DebtEdge struct {
	From   string // Person who owes
	To     string // Person who is owed
	Amount decimal.Decimal
}

// Balance is one person's net position across all outstanding debts.
type Balance struct {
	Name string
	// Amount is positive when the person owes money, negative when owed.
	Amount decimal.Decimal
}

var cent = decimal.New(1, -2)

// OutstandingDebts computes who owes whom across the given records.
//
// Algorithm:
//   - share = amount / number of split members
//   - each member that is neither the buyer nor paid owes the buyer one share
//   - debts in both directions between two people cancel out
//
// Net amounts of one cent or less are dropped; the rest are rounded to cents.
// The result is sorted by debtor, then creditor.
func OutstandingDebts(records []*models.Record) []DebtEdge {
	// debts[debtor][creditor] = amount
	debts := make(map[string]map[string]decimal.Decimal)
	people := make(map[string]bool)

	for _, r := range records {
		n := len(r.SplitMembers)
		if n == 0 {
			continue
		}
		share := decimal.NewFromFloat(r.Amount).Div(decimal.NewFromInt(int64(n)))

		for _, m := range r.SplitMembers {
			if m.Name == r.Buyer || m.Paid {
				continue
			}
			if debts[m.Name] == nil {
				debts[m.Name] = make(map[string]decimal.Decimal)
			}
			debts[m.Name][r.Buyer] = debts[m.Name][r.Buyer].Add(share)
			people[m.Name] = true
			people[r.Buyer] = true
		}
	}

	names := make([]string, 0, len(people))
	for p := range people {
		names = append(names, p)
	}
	sort.Strings(names)

	var edges []DebtEdge
	for i, a := range names {
		for _, b := range names[i+1:] {
			net := debts[a][b].Sub(debts[b][a])
			if !net.Abs().GreaterThan(cent) {
				continue
			}
			if net.IsPositive() {
				edges = append(edges, DebtEdge{From: a, To: b, Amount: net.Round(2)})
			} else {
				edges = append(edges, DebtEdge{From: b, To: a, Amount: net.Neg().Round(2)})
			}
		}
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
	return edges
}

// NetBalances folds debt edges into one balance per person, sorted by name.
// People whose debts and credits cancel exactly are omitted.
func NetBalances(edges []DebtEdge) []Balance {
	totals := make(map[string]decimal.Decimal)
	for _, e := range edges {
		totals[e.From] = totals[e.From].Add(e.Amount)
		totals[e.To] = totals[e.To].Sub(e.Amount)
	}

	var balances []Balance
	for name, amount := range totals {
		if amount.IsZero() {
			continue
		}
		balances = append(balances, Balance{Name: name, Amount: amount})
	}
	sort.Slice(balances, func(i, j int) bool { return balances[i].Name < balances[j].Name })
	return balances
}
