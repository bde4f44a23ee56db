package entities

import "time"

// Account is a ledger account that stakes are debited from and refunds credited to
type Account struct {
	Name      string    `json:"name"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TransactionType represents the type of balance change
type TransactionType string

const (
	TransactionTypeInitial     TransactionType = "initial"
	TransactionTypeBetPlaced   TransactionType = "bet_placed"
	TransactionTypeBetRefund   TransactionType = "bet_refund"
	TransactionTypeBetWin      TransactionType = "bet_win"
	TransactionTypeBetPush     TransactionType = "bet_push"
	TransactionTypeBetRestored TransactionType = "bet_restored"
)

// IsDebit returns true if the transaction type takes funds from the account
func (tt TransactionType) IsDebit() bool {
	return tt == TransactionTypeBetPlaced || tt == TransactionTypeBetRestored
}

// BalanceHistory is a single recorded balance change
type BalanceHistory struct {
	ID              int64           `json:"id"`
	Account         string          `json:"account"`
	BalanceBefore   int64           `json:"balance_before"`
	BalanceAfter    int64           `json:"balance_after"`
	ChangeAmount    int64           `json:"change_amount"`
	TransactionType TransactionType `json:"transaction_type"`
	BetUUID         *string         `json:"bet_uuid,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// IsPositiveChange returns true if the change amount is positive
func (bh *BalanceHistory) IsPositiveChange() bool {
	return bh.ChangeAmount > 0
}
