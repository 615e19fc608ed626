// Package reconcile в фоне сверяет неоплаченные транзакции с платежным шлюзом и проводит оплаты, которые
// клиент так и не подтвердил.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fsdevblog/imagify/internal/domain"
	"github.com/fsdevblog/imagify/internal/service"
	"github.com/fsdevblog/imagify/internal/transport/apierr"
	"github.com/sirupsen/logrus"
)

const (
	defaultServiceTimeout         = 3 * time.Second
	defaultAPITimeout             = 10 * time.Second
	defaultLimitPerIteration uint = 50
	defaultWorkers           uint = 5
	defaultInterval               = 30 * time.Second
	jitterPercent                 = 0.15
)

// Processor сверяет PENDING транзакции с заказами платежного шлюза.
type Processor struct {
	gateway           Gateway
	svs               Servicer
	l                 *logrus.Entry
	limitPerIteration uint
	workers           uint
	interval          time.Duration
}

// New создает новый экземпляр процессора сверки.
func New(svs Servicer, gateway Gateway, l *logrus.Logger) *Processor {
	loggerEntry := l.WithFields(logrus.Fields{
		"component": "reconcile",
		"module":    "processor",
	})

	return &Processor{
		svs:               svs,
		gateway:           gateway,
		l:                 loggerEntry,
		limitPerIteration: defaultLimitPerIteration,
		workers:           defaultWorkers,
		interval:          defaultInterval,
	}
}

// SetLimitPerIteration устанавливает кол-во транзакций, обрабатываемых в одной итерации.
func (p *Processor) SetLimitPerIteration(limit uint) *Processor {
	if limit > 0 {
		p.limitPerIteration = limit
	}
	return p
}

// SetWorkers устанавливает кол-во воркеров, параллельно запрашивающих шлюз.
func (p *Processor) SetWorkers(workers uint) *Processor {
	if workers > 0 {
		p.workers = workers
	}
	return p
}

// SetInterval устанавливает паузу между итерациями.
func (p *Processor) SetInterval(interval time.Duration) *Processor {
	if interval > 0 {
		p.interval = interval
	}
	return p
}

// Run запускает сверку в цикле до отмены контекста.
//
// Алгоритм работы:
//  1. В каждой итерации запрашивает через сервисный слой неоплаченные транзакции с заказом в шлюзе. Объем списка
//     лимитируется через SetLimitPerIteration.
//  2. N воркеров (SetWorkers) параллельно запрашивают статус заказов в шлюзе.
//  3. Результаты передаются в сервисный слой, который проводит оплаченные заказы.
//  4. Между итерациями выдерживается пауза SetInterval с разбросом в 15%.
func (p *Processor) Run(ctx context.Context) {
	p.l.WithFields(logrus.Fields{
		"limitPerIteration": p.limitPerIteration,
		"workers":           p.workers,
		"interval":          p.interval,
	}).Info("Starting")

	for {
		if err := p.process(ctx); err != nil && !errors.Is(err, ErrNoTransactions) {
			p.l.WithError(err).Error("process error")
		}

		pause := time.Duration(jitter(float64(p.interval), jitterPercent, jitterPercent))
		select {
		case <-ctx.Done():
			p.l.Info("Got stop signal, exiting...")
			return
		case <-time.After(pause):
		}
	}
}

// process выполняет одну итерацию сверки. Возвращает ErrNoTransactions если сверять нечего.
func (p *Processor) process(ctx context.Context) error {
	transactions, trErr := p.produce(ctx)
	if trErr != nil {
		return fmt.Errorf("process: %w", trErr)
	}

	results := p.runWorkers(ctx, transactions)
	if len(results) == 0 {
		return nil
	}

	var args = make([]service.ReconcileResult, 0, len(results))
	for _, result := range results {
		args = append(args, service.ReconcileResult{
			TransactionID: result.Transaction.ID,
			Order:         result.Order,
			Error:         result.Error,
		})
	}

	reqCtx, cancel := context.WithTimeout(ctx, defaultServiceTimeout)
	defer cancel()

	settled, applyErr := p.svs.ApplyReconciliation(reqCtx, args)
	if settled > 0 {
		p.l.WithField("settled", settled).Info("Settled payments")
	}
	if applyErr != nil {
		return fmt.Errorf("process: %w", applyErr)
	}
	return nil
}

// workerResult результат запроса заказа транзакции в шлюзе.
type workerResult struct {
	WorkerID    uint
	Transaction *domain.Transaction
	Order       *domain.GatewayOrder
	Error       error
}

// runWorkers запускает параллельных воркеров и ожидает конца их работы (fan-out/fan-in).
func (p *Processor) runWorkers(ctx context.Context, transactions []domain.Transaction) []workerResult {
	var taskCh = make(chan *domain.Transaction, len(transactions))
	for _, tr := range transactions {
		taskCh <- &tr
	}
	close(taskCh)

	wg := new(sync.WaitGroup)
	var resultCh = make(chan *workerResult, len(transactions))

	for i := range p.workers {
		wg.Add(1)
		go p.worker(ctx, wg, i+1, taskCh, resultCh)
	}
	wg.Wait()

	close(resultCh)

	var results = make([]workerResult, 0, len(transactions))
	for result := range resultCh {
		l := p.l.WithFields(logrus.Fields{
			"worker":        result.WorkerID,
			"transactionID": result.Transaction.ID,
			"orderID":       result.Transaction.GatewayOrderID,
			"attempt":       result.Transaction.Attempts + 1,
		})
		if result.Error != nil {
			l.WithError(result.Error).Error("fetch gateway order")
		} else {
			l.WithField("status", result.Order.Status).Debug("Fetched")
		}
		results = append(results, *result)
	}
	return results
}

func (p *Processor) worker(
	ctx context.Context,
	wg *sync.WaitGroup,
	workerID uint,
	taskCh <-chan *domain.Transaction,
	resultCh chan<- *workerResult,
) {
	defer wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-taskCh:
			if !ok {
				return
			}
			resultCh <- p.processWorkerTask(ctx, workerID, task)
		}
	}
}

// processWorkerTask запрашивает заказ в шлюзе, в случае ошибки 429 ждет указанное в ответе время и повторяет.
func (p *Processor) processWorkerTask(ctx context.Context, workerID uint, task *domain.Transaction) *workerResult {
	result := workerResult{WorkerID: workerID, Transaction: task}
	for {
		reqCtx, cancel := context.WithTimeout(ctx, defaultAPITimeout)
		order, err := p.gateway.FetchOrder(reqCtx, task.GatewayOrderID)
		cancel()

		if err == nil {
			result.Order = order
			return &result
		}

		var tooManyReq *apierr.TooManyRequestError
		if !errors.As(err, &tooManyReq) {
			result.Error = err
			return &result
		}

		select {
		case <-ctx.Done():
			result.Error = ctx.Err()
			return &result
		case <-time.After(tooManyReq.RetryAfter):
		}
	}
}

// produce получает список транзакций для сверки. Возвращает ErrNoTransactions, если их нет.
func (p *Processor) produce(ctx context.Context) ([]domain.Transaction, error) {
	produceCtx, cancel := context.WithTimeout(ctx, defaultServiceTimeout)
	defer cancel()

	transactions, err := p.svs.PendingForReconciliation(produceCtx, p.limitPerIteration)
	if err != nil {
		return nil, fmt.Errorf("produce: %w", err)
	}

	if len(transactions) == 0 {
		return nil, ErrNoTransactions
	}
	return transactions, nil
}
