package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound              = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists         = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput          = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict   = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState          = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrUnbalancedTransaction = NewDomainError("UNBALANCED_TRANSACTION", "Journal debits and credits do not balance")
	ErrInsufficientFunds     = NewDomainError("INSUFFICIENT_FUNDS", "Insufficient available balance")
	ErrConcurrentPayout      = NewDomainError("CONCURRENT_PAYOUT", "Another payout is already outstanding for this driver")
	ErrExternalRailFailure   = NewDomainError("EXTERNAL_RAIL_FAILURE", "Payout provider call failed")
)
