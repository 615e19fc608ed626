package repoargs

import "github.com/fsdevblog/imagify/pkg/uow"

// Имена, под которыми репозитории регистрируются в unit of work.
const (
	UserRepoName        uow.RepositoryName = "user"
	TransactionRepoName uow.RepositoryName = "transaction"
	LedgerRepoName      uow.RepositoryName = "ledger"
)
