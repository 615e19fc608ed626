package reconcile

import "errors"

var ErrNoTransactions = errors.New("no transactions")
