package mapping

import (
	"github.com/quillbooks/quillbooks/internal/core/domain"
	"github.com/quillbooks/quillbooks/internal/models"
)

// ToModelIdempotencyKey converts a domain IdempotencyRecord to a model IdempotencyKey
func ToModelIdempotencyKey(d domain.IdempotencyRecord) models.IdempotencyKey {
	return models.IdempotencyKey{
		CompanyID:     d.CompanyID,
		OperationKind: string(d.OperationKind),
		Key:           d.Key,
		ResultID:      d.ResultID,
		CreatedAt:     d.CreatedAt,
		ExpiresAt:     d.ExpiresAt,
	}
}

// ToDomainIdempotencyRecord converts a model IdempotencyKey to a domain IdempotencyRecord
func ToDomainIdempotencyRecord(m models.IdempotencyKey) domain.IdempotencyRecord {
	return domain.IdempotencyRecord{
		CompanyID:     m.CompanyID,
		OperationKind: domain.OperationKind(m.OperationKind),
		Key:           m.Key,
		ResultID:      m.ResultID,
		CreatedAt:     m.CreatedAt,
		ExpiresAt:     m.ExpiresAt,
	}
}
