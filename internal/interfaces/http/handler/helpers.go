package handler

import (
	"github.com/google/uuid"
	"github.com/ridehail/backend/internal/domain/shared/valueobject"
)

// moneyFromFloat converts a request amount to BRL money
func moneyFromFloat(f float64) valueobject.Money {
	return valueobject.NewMoneyBRLFromFloat(f)
}

// parseOptionalUUID parses an optional UUID string from a request body
func parseOptionalUUID(s *string) (*uuid.UUID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// uuidPtrToString converts an optional UUID to an optional string
func uuidPtrToString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
