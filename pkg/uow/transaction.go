package uow

import (
	"github.com/jackc/pgx/v5"
)

// Transaction репозитории, работающие внутри одной транзакции БД. Каждый репозиторий создается
// один раз на транзакцию.
type Transaction struct {
	repositories map[RepositoryName]RepositoryFactory
	created      map[RepositoryName]Repository
	tx           pgx.Tx
}

func NewTransaction(tx pgx.Tx, repositories map[RepositoryName]RepositoryFactory) *Transaction {
	return &Transaction{
		repositories: repositories,
		created:      make(map[RepositoryName]Repository, len(repositories)),
		tx:           tx,
	}
}

// Get возвращает репозиторий или ошибку ErrRepositoryNotRegistered.
func (t *Transaction) Get(name RepositoryName) (Repository, error) {
	if repo, ok := t.created[name]; ok {
		return repo, nil
	}
	factory, ok := t.repositories[name]
	if !ok {
		return nil, ErrRepositoryNotRegistered
	}

	repo := factory(t.tx)
	t.created[name] = repo
	return repo, nil
}

// GetAs возвращает зарегистрированный репозиторий с именем name приведенный к типу T.
// Ошибки: ErrRepositoryNotRegistered, ErrInvalidRepositoryType.
func GetAs[T any](t TX, name RepositoryName) (T, error) {
	var res T
	repo, err := t.Get(name)
	if err != nil {
		return res, err //nolint:wrapcheck
	}
	res, ok := repo.(T)
	if !ok {
		return res, ErrInvalidRepositoryType
	}
	return res, nil
}
