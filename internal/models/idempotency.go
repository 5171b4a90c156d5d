package models

import "time"

// IdempotencyKey represents one claimed (operation kind, key) pair and the
// entity the original execution produced.
type IdempotencyKey struct {
	CompanyID     string    `db:"company_id"`
	OperationKind string    `db:"operation_kind"`
	Key           string    `db:"key"`
	ResultID      string    `db:"result_id"`
	CreatedAt     time.Time `db:"created_at"`
	ExpiresAt     time.Time `db:"expires_at"`
}
