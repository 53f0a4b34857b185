package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nhangsach/depositledger/internal/domain"
)

// PostgreSQL error codes the repositories translate.
const (
	pgErrUniqueViolation = "23505"
	pgErrCheckViolation  = "23514"
	pgErrForeignKey      = "23503"

	deductionUniqueIndex = "uq_deposit_transactions_deduction"
)

// mapPgError turns constraint violations into ledger errors and returns
// everything else unchanged.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgErrUniqueViolation:
		if pgErr.ConstraintName == deductionUniqueIndex {
			return fmt.Errorf("%w: %w", domain.ErrDuplicateDeduction, err)
		}
	case pgErrCheckViolation:
		return fmt.Errorf("%w: %w", domain.ErrNegativeDepositBalance, err)
	case pgErrForeignKey:
		return fmt.Errorf("%w: %w", domain.ErrVendorNotFound, err)
	}

	return err
}
