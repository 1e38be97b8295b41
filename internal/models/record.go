package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// CreatedAtLayout is the layout used to persist and render Record.CreatedAt.
const CreatedAtLayout = "2006-01-02 15:04:05"

// Record represents one shared expense within a billing week.
type Record struct {
	// ID is assigned by the store on insert and never changes.
	ID int64

	// Week is the label of the billing period (e.g., "2025-W40").
	// The format is not validated; weeks sort lexicographically.
	Week string

	// Buyer is the participant who paid for the expense.
	Buyer string

	// Description is optional free text.
	Description string

	// Amount is the total paid by the buyer.
	Amount float64

	// SplitMembers are the participants sharing the expense, in the order
	// the client supplied them.
	SplitMembers []SplitMember

	// IsArchived is set once the record's week has been settled and archived.
	// It never goes back to false.
	IsArchived bool

	// CreatedAt is set by the store at insert time (UTC, second precision).
	CreatedAt time.Time
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	c := *r
	if r.SplitMembers != nil {
		c.SplitMembers = make([]SplitMember, len(r.SplitMembers))
		for i, m := range r.SplitMembers {
			c.SplitMembers[i] = m.Clone()
		}
	}
	return &c
}

// SplitMember is one participant's share of a record.
//
// Only Name and Paid are interpreted. Any other fields present in the JSON
// form are kept in Extra and written back unchanged.
type SplitMember struct {
	Name  string
	Paid  bool
	Extra map[string]json.RawMessage
}

// Clone returns a copy of the member that shares no maps with the original.
func (m SplitMember) Clone() SplitMember {
	if m.Extra == nil {
		return m
	}
	extra := make(map[string]json.RawMessage, len(m.Extra))
	for k, v := range m.Extra {
		extra[k] = append(json.RawMessage(nil), v...)
	}
	m.Extra = extra
	return m
}

// MarshalJSON writes the member as a flat object: name, paid and the extra fields.
func (m SplitMember) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(m.Extra)+2)
	for k, v := range m.Extra {
		out[k] = v
	}

	name, err := json.Marshal(m.Name)
	if err != nil {
		return nil, err
	}
	out["name"] = name
	out["paid"] = json.RawMessage(fmt.Sprintf("%t", m.Paid))

	return json.Marshal(out)
}

// UnmarshalJSON reads a flat member object. The paid field is interpreted
// loosely: a missing or null value is false, numbers are paid when non-zero,
// strings, arrays and objects when non-empty.
func (m *SplitMember) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("split member: %w", err)
	}
	if raw == nil {
		return fmt.Errorf("split member must be an object")
	}

	*m = SplitMember{}
	if v, ok := raw["name"]; ok {
		if err := json.Unmarshal(v, &m.Name); err != nil {
			return fmt.Errorf("split member name: %w", err)
		}
		delete(raw, "name")
	}
	if v, ok := raw["paid"]; ok {
		paid, err := truthy(v)
		if err != nil {
			return fmt.Errorf("split member paid: %w", err)
		}
		m.Paid = paid
		delete(raw, "paid")
	}
	if len(raw) > 0 {
		m.Extra = raw
	}
	return nil
}

func truthy(v json.RawMessage) (bool, error) {
	var x any
	if err := json.Unmarshal(v, &x); err != nil {
		return false, err
	}
	switch t := x.(type) {
	case nil:
		return false, nil
	case bool:
		return t, nil
	case float64:
		return t != 0, nil
	case string:
		return t != "", nil
	case []any:
		return len(t) > 0, nil
	case map[string]any:
		return len(t) > 0, nil
	default:
		return false, fmt.Errorf("unsupported value %s", v)
	}
}
