package idempotency

import "time"

// Record maps a create idempotency key to the session it minted.
type Record struct {
	IdempotencyKey string    `dynamodbav:"idempotency_key"` // PK
	SessionID      string    `dynamodbav:"session_id"`
	CreatedAt      time.Time `dynamodbav:"created_at"`
	ExpiresAt      int64     `dynamodbav:"expires_at"` // TTL epoch seconds
}
