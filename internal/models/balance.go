package models

import (
	"math"
	"time"
)

// DefaultMaxCharge is the largest amount a single charge may add.
const DefaultMaxCharge int64 = 2_000_000

// Balance is a user's current point total. Values are never modified in
// place: Charge and Use return a new Balance.
type Balance struct {
	UserID       int64 `json:"id"`
	Point        int64 `json:"point"`
	UpdateMillis int64 `json:"updateMillis"`
}

// EmptyBalance is the balance of a user that has never transacted.
func EmptyBalance(userID int64) Balance {
	return Balance{UserID: userID}
}

func (b Balance) Charge(amount, limit int64, at time.Time) (Balance, error) {
	if amount <= 0 {
		return Balance{}, ErrInvalidAmount
	}
	if amount > limit {
		return Balance{}, &AmountTooLargeError{Amount: amount, Limit: limit}
	}
	if headroom := math.MaxInt64 - b.Point; amount > headroom {
		return Balance{}, &AmountTooLargeError{Amount: amount, Limit: headroom}
	}
	return Balance{UserID: b.UserID, Point: b.Point + amount, UpdateMillis: at.UnixMilli()}, nil
}

func (b Balance) Use(amount int64, at time.Time) (Balance, error) {
	if amount <= 0 {
		return Balance{}, ErrInvalidAmount
	}
	if amount > b.Point {
		return Balance{}, &InsufficientBalanceError{UserID: b.UserID, Available: b.Point, Requested: amount}
	}
	return Balance{UserID: b.UserID, Point: b.Point - amount, UpdateMillis: at.UnixMilli()}, nil
}
