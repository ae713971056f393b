package models

import "time"

type TransactionType string

const (
	TxnCharge TransactionType = "CHARGE"
	// TxnUse is the debit kind.
	TxnUse TransactionType = "USE"
)

func (t TransactionType) Valid() bool {
	return t == TxnCharge || t == TxnUse
}

// Transaction is one immutable history record. ID is zero until a history
// store assigns it on append.
type Transaction struct {
	ID         int64           `json:"id"`
	UserID     int64           `json:"userId"`
	Type       TransactionType `json:"type"`
	Amount     int64           `json:"amount"`
	TimeMillis int64           `json:"timeMillis"`
}

func NewChargeTransaction(userID, amount int64, at time.Time) (Transaction, error) {
	return newTransaction(userID, TxnCharge, amount, at)
}

func NewUseTransaction(userID, amount int64, at time.Time) (Transaction, error) {
	return newTransaction(userID, TxnUse, amount, at)
}

func newTransaction(userID int64, typ TransactionType, amount int64, at time.Time) (Transaction, error) {
	if amount <= 0 {
		return Transaction{}, ErrInvalidAmount
	}
	return Transaction{
		UserID:     userID,
		Type:       typ,
		Amount:     amount,
		TimeMillis: at.UnixMilli(),
	}, nil
}

// Replay folds a user's history, in insertion order, into the point total it
// implies starting from zero.
func Replay(txs []Transaction) int64 {
	var total int64
	for _, tx := range txs {
		switch tx.Type {
		case TxnCharge:
			total += tx.Amount
		case TxnUse:
			total -= tx.Amount
		}
	}
	return total
}
