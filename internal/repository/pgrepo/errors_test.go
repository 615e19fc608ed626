package pgrepo

import (
	"errors"
	"math"
	"testing"

	"github.com/fsdevblog/imagify/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/suite"
)

type ConvertErrTestSuite struct {
	suite.Suite
}

func TestConvertErrSuite(t *testing.T) {
	suite.Run(t, new(ConvertErrTestSuite))
}

func (s *ConvertErrTestSuite) TestConvertErr() {
	cases := []struct {
		name    string
		err     error
		wantErr error
	}{
		{name: "no rows", err: pgx.ErrNoRows, wantErr: domain.ErrRecordNotFound},
		{name: "unique violation", err: &pgconn.PgError{Code: uniqueViolationCode}, wantErr: domain.ErrDuplicateKey},
		{name: "foreign key violation", err: &pgconn.PgError{Code: foreignKeyViolationCode}, wantErr: domain.ErrRecordNotFound},
		{
			name:    "negative balance",
			err:     &pgconn.PgError{Code: checkViolationCode, ConstraintName: nonNegativeBalanceConstraint},
			wantErr: domain.ErrInsufficientCredit,
		},
		{
			name:    "other check violation",
			err:     &pgconn.PgError{Code: checkViolationCode, ConstraintName: "ledger_entries_amount_check"},
			wantErr: domain.ErrUnknown,
		},
		{name: "plain error", err: errors.New("connection reset"), wantErr: domain.ErrUnknown},
	}

	for _, t := range cases {
		s.Run(t.name, func() {
			err := convertErr(t.err, "doing %s", "something")
			s.Require().ErrorIs(err, t.wantErr)
			s.Contains(err.Error(), "[repository/doing something]")
		})
	}

	s.Require().NoError(convertErr(nil, "nothing"))
}

func (s *ConvertErrTestSuite) TestSafeConvertUintToInt32() {
	v, err := safeConvertUintToInt32(50)
	s.Require().NoError(err)
	s.Equal(int32(50), v)

	_, err = safeConvertUintToInt32(uint(math.MaxInt32) + 1)
	s.Require().Error(err)
}
