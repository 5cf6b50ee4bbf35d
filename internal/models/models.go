package models

import (
	"encoding/json"
	"time"
)

// Transaction kinds and sources as stored in xp_transactions.
const (
	KindEarn  = "earn"
	KindSpend = "spend"

	SourceProgram = "program"
	SourceReward  = "reward"

	RedemptionPending  = "pending"
	RedemptionApproved = "approved"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// XpTransaction is an immutable ledger entry. Positive amounts earn XP,
// negative amounts spend it. Balances are never stored anywhere; they are
// always recomputed as the sum of these rows.
type XpTransaction struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	Category           string    `json:"category"`
	Amount             int       `json:"amount"`
	Kind               string    `json:"kind"`
	Source             string    `json:"source"`
	ProgramRunID       *string   `json:"program_run_id"`
	RewardRedemptionID *string   `json:"reward_redemption_id"`
	CreatedAt          time.Time `json:"created_at"`
}

// NewTransaction carries the caller-supplied fields of a ledger append.
type NewTransaction struct {
	UserID             string
	Category           string
	Amount             int
	Kind               string
	Source             string
	ProgramRunID       *string
	RewardRedemptionID *string
}

type ProgramRun struct {
	ID        string          `json:"id"`
	ProgramID string          `json:"program_id"`
	UserID    string          `json:"user_id"`
	Mode      string          `json:"mode"`
	XpEarned  int             `json:"xp_earned"`
	Answers   json.RawMessage `json:"answers"`
	CreatedAt time.Time       `json:"created_at"`
}

type Reward struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Cost        int       `json:"cost"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type RewardRedemption struct {
	ID          string     `json:"id"`
	RewardID    string     `json:"reward_id"`
	RewardName  string     `json:"reward_name,omitempty"`
	UserID      string     `json:"user_id"`
	Status      string     `json:"status"`
	RequestedAt time.Time  `json:"requested_at"`
	ResolvedAt  *time.Time `json:"resolved_at"`
}

// XpSummary mirrors the dashboard score cards: net balance, gross earnings
// and earnings grouped by category (spends excluded from the breakdown).
type XpSummary struct {
	Balance     int            `json:"balance"`
	TotalEarned int            `json:"total_earned"`
	Categories  map[string]int `json:"categories"`
}
