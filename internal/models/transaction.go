package models

import (
	"time"

	"github.com/google/uuid"
)

// Transaction type enums. Amounts are signed: outflows are negative.
// escrow_hold and escrow_refund mirror the escrow side of a balance change so
// every balance is reconstructable from the transaction log alone.
const (
	TransactionCreditPurchase    = "credit_purchase"
	TransactionProjectPayment    = "project_payment"
	TransactionWithdrawalRequest = "withdrawal_request"
	TransactionCreditRequest     = "credit_request"
	TransactionEscrowHold        = "escrow_hold"
	TransactionEscrowRefund      = "escrow_refund"
)

// Transaction is an append-only audit record. Rows are never updated or
// deleted; they are the mirror of ledger-affecting operations, not the state.
type Transaction struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	ProjectID   *uuid.UUID `json:"project_id,omitempty"`
	Type        string     `json:"type"`
	Amount      int64      `json:"amount"`
	Description string     `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
