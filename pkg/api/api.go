// Package api defines the request and response messages of the weekledger
// RPC services. Messages are plain structs encoded as JSON; see apiconnect
// for the service definitions.
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/weekledger/internal/models"
)

// SplitMember is a participant of an expense. Fields other than name and
// paid are kept and echoed back unchanged.
type SplitMember = models.SplitMember

// Record is the view of a stored expense record.
type Record struct {
	ID           int64         `json:"id"`
	Week         string        `json:"week"`
	Buyer        string        `json:"buyer"`
	Description  string        `json:"description"`
	Amount       float64       `json:"amount"`
	SplitMembers []SplitMember `json:"split_members"`
	IsArchived   bool          `json:"is_archived"`
	CreatedAt    string        `json:"created_at"`
}

// NewRecord converts a stored record to its view.
func NewRecord(r *models.Record) *Record {
	members := r.SplitMembers
	if members == nil {
		members = []SplitMember{}
	}
	return &Record{
		ID:           r.ID,
		Week:         r.Week,
		Buyer:        r.Buyer,
		Description:  r.Description,
		Amount:       r.Amount,
		SplitMembers: members,
		IsArchived:   r.IsArchived,
		CreatedAt:    r.CreatedAt.UTC().Format(models.CreatedAtLayout),
	}
}

// NewRecords converts a slice of stored records, never returning nil.
func NewRecords(records []*models.Record) []*Record {
	out := make([]*Record, 0, len(records))
	for _, r := range records {
		out = append(out, NewRecord(r))
	}
	return out
}

// Status values reported by mutating operations.
const (
	StatusOK       = "ok"
	StatusDeleted  = "deleted"
	StatusUpdated  = "updated"
	StatusArchived = "archived"
)

// StatusResponse acknowledges a mutation.
type StatusResponse struct {
	Status string `json:"status"`
	ID     int64  `json:"id,omitempty"`
	Week   string `json:"week,omitempty"`
}

type CreateRecordRequest struct {
	Week         string        `json:"week"`
	Buyer        string        `json:"buyer"`
	Description  string        `json:"description"`
	Amount       float64       `json:"amount"`
	SplitMembers []SplitMember `json:"split_members"`
}

type ListRecordsResponse struct {
	Records []*Record `json:"records"`
}

type ListUnsettledRecordsRequest struct {
	Week string `json:"week"`
}

type DeleteRecordRequest struct {
	ID int64 `json:"id"`
}

type ListUnarchivedWeeksResponse struct {
	Weeks []string `json:"weeks"`
}

// UpdateMemberPaidStatusRequest sets the paid flag of a split member.
// Paid is required; a missing value is rejected rather than read as false.
type UpdateMemberPaidStatusRequest struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Paid *bool  `json:"paid"`
}

type ArchiveWeekRequest struct {
	Week string `json:"week"`
}

type SummarizeWeekRequest struct {
	Week string `json:"week"`
}

type WeekSummary struct {
	Week          string          `json:"week"`
	Records       int             `json:"records"`
	Total         decimal.Decimal `json:"total"`
	PaidShares    int             `json:"paid_shares"`
	UnpaidShares  int             `json:"unpaid_shares"`
	UnpaidMembers []string        `json:"unpaid_members"`
	Settled       bool            `json:"settled"`
	Archived      bool            `json:"archived"`
}

// Debt is an amount one person still owes another.
type Debt struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

// Balance is a person's net position; positive means they owe.
type Balance struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

type ListOutstandingDebtsResponse struct {
	Debts    []Debt    `json:"debts"`
	Balances []Balance `json:"balances"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
