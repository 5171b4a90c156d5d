package dto

import "time"

// CreatePeriodRequest defines a new accounting period. Ranges of one company
// must not overlap.
type CreatePeriodRequest struct {
	Name      string    `json:"name" binding:"required"`
	StartDate time.Time `json:"startDate" binding:"required"`
	EndDate   time.Time `json:"endDate" binding:"required"`
}

// PeriodLockRequest locks or unlocks a period. The reason is mandatory and
// recorded with the actor for audit.
type PeriodLockRequest struct {
	Reason string `json:"reason" binding:"required"`
}
