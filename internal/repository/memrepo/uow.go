package memrepo

import (
	"context"
	"fmt"
	"sync"

	"github.com/fsdevblog/imagify/internal/repository/repoargs"
	"github.com/fsdevblog/imagify/pkg/uow"
)

// UnitOfWork реализация uow.UOW поверх хранилища в памяти. Транзакции выполняются строго последовательно,
// ошибка внутри Do откатывает все изменения транзакции.
type UnitOfWork struct {
	mu        sync.Mutex
	data      *store
	factories map[uow.RepositoryName]uow.RepositoryFactory
}

// New создает unit of work с зарегистрированными репозиториями юзеров, транзакций и журнала.
func New() *UnitOfWork {
	return &UnitOfWork{
		data:      newStore(),
		factories: make(map[uow.RepositoryName]uow.RepositoryFactory),
	}
}

// Register регистрирует дополнительный репозиторий. Фабрика получает nil вместо соединения с БД.
func (u *UnitOfWork) Register(name uow.RepositoryName, factory uow.RepositoryFactory) error {
	if factory == nil {
		return uow.ErrNilRepositoryFactory
	}
	if _, ok := u.factories[name]; ok || u.builtin(name, nil) != nil {
		return uow.ErrRepositoryAlreadyRegistered
	}
	u.factories[name] = factory
	return nil
}

// Do выполняет fn в транзакции.
func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, tx uow.TX) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("[memrepo] begin transaction: %w", err)
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	snapshot := u.data.clone()
	if err := fn(ctx, &transaction{u: u}); err != nil {
		u.data.restore(snapshot)
		return err
	}
	return nil
}

// GetRepository возвращает репозиторий, каждый вызов которого выполняется в отдельной транзакции.
func (u *UnitOfWork) GetRepository(name uow.RepositoryName) (uow.Repository, error) {
	if repo := u.builtin(name, &u.mu); repo != nil {
		return repo, nil
	}
	if factory, ok := u.factories[name]; ok {
		return factory(nil), nil
	}
	return nil, uow.ErrRepositoryNotRegistered
}

// builtin создает репозиторий по имени. Если mu не nil, репозиторий блокирует хранилище на время каждого вызова.
func (u *UnitOfWork) builtin(name uow.RepositoryName, mu *sync.Mutex) uow.Repository {
	conn := &conn{u: u, mu: mu}
	switch name {
	case repoargs.UserRepoName:
		return &UserRepository{conn: conn}
	case repoargs.TransactionRepoName:
		return &TransactionRepository{conn: conn}
	case repoargs.LedgerRepoName:
		return &LedgerRepository{conn: conn}
	default:
		return nil
	}
}

type transaction struct {
	u *UnitOfWork
}

func (t *transaction) Get(name uow.RepositoryName) (uow.Repository, error) {
	if repo := t.u.builtin(name, nil); repo != nil {
		return repo, nil
	}
	if factory, ok := t.u.factories[name]; ok {
		return factory(nil), nil
	}
	return nil, uow.ErrRepositoryNotRegistered
}

// conn доступ репозитория к хранилищу.
type conn struct {
	u  *UnitOfWork
	mu *sync.Mutex
}

func (c *conn) exec(fn func(s *store) error) error {
	if c.mu == nil {
		return fn(c.u.data)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := c.u.data.clone()
	if err := fn(c.u.data); err != nil {
		c.u.data.restore(snapshot)
		return err
	}
	return nil
}
