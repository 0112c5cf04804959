package auth

import (
	"context"
	"strings"

	"github.com/keyxmakerx/mailroom/internal/apperror"
)

// OperatorRepository looks up operator accounts.
type OperatorRepository interface {
	// FindByEmail returns the operator with the given (normalized) email,
	// or an apperror.NotFound.
	FindByEmail(ctx context.Context, email string) (*Operator, error)
}

// staticOperators serves accounts fixed at startup from configuration.
type staticOperators struct {
	byEmail map[string]Operator
}

// NewStaticOperatorRepository creates a repository over the given accounts.
// Emails are matched case-insensitively.
func NewStaticOperatorRepository(operators ...Operator) OperatorRepository {
	m := make(map[string]Operator, len(operators))
	for _, op := range operators {
		op.Email = normalizeEmail(op.Email)
		m[op.Email] = op
	}
	return &staticOperators{byEmail: m}
}

func (r *staticOperators) FindByEmail(_ context.Context, email string) (*Operator, error) {
	op, ok := r.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, apperror.NewNotFound("operator not found")
	}
	return &op, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
