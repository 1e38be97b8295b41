// Package settlement holds the pure rules of the ledger: when a week counts
// as settled, how a payment toggle is applied to a record's members, and who
// still owes whom across unsettled records.
package settlement

import "github.com/mmynk/weekledger/internal/models"

// IsWeekFullySettled reports whether every split member of every record is paid.
// A record without split members is settled. The caller decides what an empty
// week means; for no records this returns true.
func IsWeekFullySettled(records []*models.Record) bool {
	for _, r := range records {
		for _, m := range r.SplitMembers {
			if !m.Paid {
				return false
			}
		}
	}
	return true
}

// UnpaidMembers returns the names of unpaid members across records, in
// record order, without duplicates.
func UnpaidMembers(records []*models.Record) []string {
	seen := make(map[string]bool)
	var names []string
	for _, r := range records {
		for _, m := range r.SplitMembers {
			if m.Paid || seen[m.Name] {
				continue
			}
			seen[m.Name] = true
			names = append(names, m.Name)
		}
	}
	return names
}

// SetMemberPaid returns a copy of members where every entry named name has
// its paid flag set to paid, and the number of entries that matched.
// An unmatched name is not an error.
func SetMemberPaid(members []models.SplitMember, name string, paid bool) ([]models.SplitMember, int) {
	out := make([]models.SplitMember, len(members))
	matched := 0
	for i, m := range members {
		out[i] = m.Clone()
		if m.Name == name {
			out[i].Paid = paid
			matched++
		}
	}
	return out, matched
}
