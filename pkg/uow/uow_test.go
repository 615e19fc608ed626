package uow

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type testRepo struct {
	db DBTX
}

type UOWTestSuite struct {
	suite.Suite
}

func TestUOWSuite(t *testing.T) {
	suite.Run(t, new(UOWTestSuite))
}

func (s *UOWTestSuite) TestRegister() {
	u := NewUnitOfWork(nil)
	factory := func(db DBTX) Repository { return &testRepo{db: db} }

	s.Require().NoError(u.Register("test", factory))
	s.Require().ErrorIs(u.Register("test", factory), ErrRepositoryAlreadyRegistered)
	s.Require().ErrorIs(u.Register("nil", nil), ErrNilRepositoryFactory)

	repo, err := GetRepositoryAs[*testRepo](u, "test")
	s.Require().NoError(err)
	s.NotNil(repo)

	_, notFoundErr := u.GetRepository("missing")
	s.Require().ErrorIs(notFoundErr, ErrRepositoryNotRegistered)

	_, typeErr := GetRepositoryAs[string](u, "test")
	s.Require().ErrorIs(typeErr, ErrInvalidRepositoryType)
}

func (s *UOWTestSuite) TestTransactionCreatesRepositoryOnce() {
	var created int
	tx := NewTransaction(nil, map[RepositoryName]RepositoryFactory{
		"test": func(db DBTX) Repository {
			created++
			return &testRepo{db: db}
		},
	})

	first, err := GetAs[*testRepo](tx, "test")
	s.Require().NoError(err)
	second, err := GetAs[*testRepo](tx, "test")
	s.Require().NoError(err)

	s.Same(first, second)
	s.Equal(1, created)

	_, notFoundErr := GetAs[*testRepo](tx, "missing")
	s.Require().ErrorIs(notFoundErr, ErrRepositoryNotRegistered)

	_, typeErr := GetAs[int](tx, "test")
	s.Require().ErrorIs(typeErr, ErrInvalidRepositoryType)
}
