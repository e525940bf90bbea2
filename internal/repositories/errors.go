package repositories

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrWalletNotFound     = errors.New("wallet not found")
	ErrEntryNotFound      = errors.New("ledger entry not found")
	ErrSettlementNotFound = errors.New("settlement not found")
	ErrFeeRecordNotFound  = errors.New("fee record not found")
	ErrSettingNotFound    = errors.New("setting not found")
	ErrOperatorNotFound   = errors.New("operator not found")
	ErrDuplicateFeeRecord = errors.New("fee record already exists")
)

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
