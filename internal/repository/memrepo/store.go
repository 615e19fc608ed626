// Package memrepo хранит данные сервиса в памяти процесса. Используется в тестах вместо postgres и повторяет
// его условные обновления и уникальные индексы.
package memrepo

import (
	"maps"
	"slices"

	"github.com/fsdevblog/imagify/internal/domain"
)

type store struct {
	users        map[int64]domain.User
	transactions map[int64]domain.Transaction
	ledger       []domain.LedgerEntry

	userSeq        int64
	transactionSeq int64
	ledgerSeq      int64
}

func newStore() *store {
	return &store{
		users:        make(map[int64]domain.User),
		transactions: make(map[int64]domain.Transaction),
	}
}

// clone возвращает копию хранилища для отката транзакции.
func (s *store) clone() *store {
	return &store{
		users:          maps.Clone(s.users),
		transactions:   maps.Clone(s.transactions),
		ledger:         slices.Clone(s.ledger),
		userSeq:        s.userSeq,
		transactionSeq: s.transactionSeq,
		ledgerSeq:      s.ledgerSeq,
	}
}

func (s *store) restore(from *store) {
	*s = *from
}
