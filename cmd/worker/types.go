package main

import "time"

// OrderEvent is the payload published by the API when a checkout session
// completes, consumed here for fulfillment handoff and metrics.
type OrderEvent struct {
	OrderID     string    `json:"order_id"`
	SessionID   string    `json:"session_id"`
	Currency    string    `json:"currency"`
	TotalCents  int64     `json:"total_cents"`
	CompletedAt time.Time `json:"completed_at"`
}
