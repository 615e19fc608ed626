package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fsdevblog/imagify/internal/domain"
	"github.com/fsdevblog/imagify/internal/repository/repoargs"
	"github.com/fsdevblog/imagify/pkg/uow"
)

const (
	DefaultCurrency                  = "USD"
	DefaultReconcileMaxAttempts uint = 20
)

type PaymentService struct {
	uow         uow.UOW
	userRepo    UserRepository
	trRepo      TransactionRepository
	gateway     PaymentGateway
	currency    string
	maxAttempts uint
}

func NewPaymentService(u uow.UOW, gateway PaymentGateway, currency string) (*PaymentService, error) {
	userRepo, userRepoErr := uow.GetRepositoryAs[UserRepository](u, repoargs.UserRepoName)
	if userRepoErr != nil {
		return nil, userRepoErr //nolint:wrapcheck
	}
	trRepo, trRepoErr := uow.GetRepositoryAs[TransactionRepository](u, repoargs.TransactionRepoName)
	if trRepoErr != nil {
		return nil, trRepoErr //nolint:wrapcheck
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	return &PaymentService{
		uow:         u,
		userRepo:    userRepo,
		trRepo:      trRepo,
		gateway:     gateway,
		currency:    strings.ToUpper(currency),
		maxAttempts: DefaultReconcileMaxAttempts,
	}, nil
}

// SetMaxAttempts устанавливает кол-во неудачных попыток сверки, после которого транзакция больше не сверяется
// в фоне. Подтверждение оплаты клиентом работает независимо от этого лимита.
func (p *PaymentService) SetMaxAttempts(attempts uint) *PaymentService {
	p.maxAttempts = attempts
	return p
}

// CreateOrder создает PENDING транзакцию для плана planID и заказ в платежном шлюзе. Квитанцией заказа служит
// id транзакции. При ошибке шлюза транзакция остается PENDING без id заказа и никогда не будет оплачена.
func (p *PaymentService) CreateOrder(ctx context.Context, userID int64, planID string) (*domain.PaymentOrder, error) {
	plan, planErr := domain.LookupPlan(planID)
	if planErr != nil {
		return nil, fmt.Errorf("creating order: %w", planErr)
	}

	if _, userErr := p.userRepo.FindUserByID(ctx, userID); userErr != nil {
		return nil, fmt.Errorf("creating order: %w", userErr)
	}

	tr, trErr := p.trRepo.Create(ctx, repoargs.CreateTransaction{
		UserID:   userID,
		Plan:     plan.ID,
		Amount:   plan.Amount,
		Currency: p.currency,
		Credits:  plan.Credits,
	})
	if trErr != nil {
		return nil, fmt.Errorf("creating order: %w", trErr)
	}

	receipt := strconv.FormatInt(tr.ID, 10)
	order, orderErr := p.gateway.CreateOrder(ctx, plan.AmountMinor(), p.currency, receipt)
	if orderErr != nil {
		return nil, fmt.Errorf("creating gateway order for transaction %d: %w: %s",
			tr.ID, domain.ErrUpstream, orderErr.Error())
	}

	if setErr := p.trRepo.SetGatewayOrderID(ctx, tr.ID, order.ID); setErr != nil {
		return nil, fmt.Errorf("creating order: %w", setErr)
	}

	return &domain.PaymentOrder{
		OrderID:       order.ID,
		TransactionID: tr.ID,
		Plan:          plan.ID,
		Credits:       plan.Credits,
		Amount:        order.Amount,
		Currency:      order.Currency,
		Receipt:       receipt,
		Status:        order.Status,
	}, nil
}

// VerifyPayment запрашивает заказ orderID в шлюзе и, если он оплачен, переводит транзакцию в PAID и начисляет
// кредиты. Повторное подтверждение уже оплаченной транзакции возвращает domain.ErrInvalidTransaction,
// кредиты при этом не начисляются. Если userID не равен 0, транзакция должна принадлежать этому юзеру.
//
// Возвращает новый баланс юзера.
func (p *PaymentService) VerifyPayment(ctx context.Context, userID int64, orderID string) (int64, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return 0, fmt.Errorf("%w: order id is required", domain.ErrValidation)
	}

	order, orderErr := p.gateway.FetchOrder(ctx, orderID)
	if orderErr != nil {
		return 0, fmt.Errorf("fetching gateway order `%s`: %w: %s", orderID, domain.ErrUpstream, orderErr.Error())
	}
	if order.Status != domain.GatewayOrderStatusPaid {
		return 0, fmt.Errorf("order `%s` status `%s`: %w", orderID, order.Status, domain.ErrPaymentNotCompleted)
	}

	tr, trErr := p.transactionByReceipt(ctx, order)
	if trErr != nil {
		return 0, trErr
	}
	if userID != 0 && tr.UserID != userID {
		return 0, fmt.Errorf("transaction %d belongs to another user: %w", tr.ID, domain.ErrInvalidTransaction)
	}

	balance, settleErr := p.settle(ctx, tr)
	if settleErr != nil {
		return 0, fmt.Errorf("verifying payment `%s`: %w", orderID, settleErr)
	}
	return balance, nil
}

// PendingForReconciliation возвращает неоплаченные транзакции с заказом в шлюзе для фоновой сверки.
func (p *PaymentService) PendingForReconciliation(ctx context.Context, limit uint) ([]domain.Transaction, error) {
	trs, err := p.trRepo.GetForReconciliation(ctx, limit, p.maxAttempts)
	if err != nil {
		return nil, fmt.Errorf("getting transactions for reconciliation: %w", err)
	}
	return trs, nil
}

// ReconcileResult результат запроса заказа транзакции в платежном шлюзе.
type ReconcileResult struct {
	TransactionID int64
	Order         *domain.GatewayOrder
	Error         error
}

// ApplyReconciliation применяет результаты сверки: оплаченные заказы проводятся тем же путем, что и
// VerifyPayment (уже оплаченные пропускаются), для ошибочных увеличивается счетчик попыток.
// Каждая оплата проводится в своей транзакции, поэтому ошибка одной не откатывает остальные.
//
// Возвращает кол-во проведенных оплат.
func (p *PaymentService) ApplyReconciliation(ctx context.Context, results []ReconcileResult) (int, error) {
	var failed = make([]int64, 0, len(results))
	var settled int
	var errs []error

	for _, result := range results {
		if result.Error != nil || result.Order == nil {
			failed = append(failed, result.TransactionID)
			continue
		}
		if result.Order.Status != domain.GatewayOrderStatusPaid {
			continue
		}

		tr, trErr := p.trRepo.FindByID(ctx, result.TransactionID)
		if trErr != nil {
			errs = append(errs, trErr)
			continue
		}
		if tr.Paid {
			continue
		}
		if err := checkOrderMatches(tr, result.Order); err != nil {
			failed = append(failed, result.TransactionID)
			errs = append(errs, err)
			continue
		}

		if _, err := p.settle(ctx, tr); err != nil {
			if errors.Is(err, domain.ErrInvalidTransaction) {
				continue
			}
			errs = append(errs, fmt.Errorf("settling transaction %d: %w", tr.ID, err))
			continue
		}
		settled++
	}

	if len(failed) > 0 {
		if err := p.trRepo.IncrementAttempts(ctx, failed); err != nil {
			errs = append(errs, fmt.Errorf("incrementing attempts: %w", err))
		}
	}

	if len(errs) > 0 {
		return settled, fmt.Errorf("applying reconciliation: %w", errors.Join(errs...))
	}
	return settled, nil
}

// settle в одной транзакции переводит транзакцию в PAID условным обновлением, начисляет кредиты
// и пишет запись в журнал.
func (p *PaymentService) settle(ctx context.Context, tr *domain.Transaction) (int64, error) {
	var balance int64
	txErr := p.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		trRepo, trRepoErr := uow.GetAs[TransactionRepository](tx, repoargs.TransactionRepoName)
		if trRepoErr != nil {
			return trRepoErr //nolint:wrapcheck
		}

		paid, paidErr := trRepo.MarkPaid(c, tr.ID)
		if paidErr != nil {
			if errors.Is(paidErr, domain.ErrAlreadyPaid) {
				return fmt.Errorf("%w: %s", domain.ErrInvalidTransaction, paidErr.Error())
			}
			return paidErr //nolint:wrapcheck
		}

		var cErr error
		balance, cErr = creditInTx(c, tx, paid.UserID, paid.Credits, domain.LedgerReasonPayment, &paid.ID)
		if errors.Is(cErr, domain.ErrDuplicateKey) {
			return fmt.Errorf("%w: transaction %d already credited", domain.ErrInvalidTransaction, paid.ID)
		}
		return cErr
	})
	if txErr != nil {
		return 0, txErr //nolint:wrapcheck
	}
	return balance, nil
}

// transactionByReceipt находит транзакцию по квитанции заказа и проверяет соответствие заказа транзакции.
func (p *PaymentService) transactionByReceipt(ctx context.Context, order *domain.GatewayOrder) (*domain.Transaction, error) {
	trID, parseErr := strconv.ParseInt(order.Receipt, 10, 64)
	if parseErr != nil || trID <= 0 {
		return nil, fmt.Errorf("receipt `%s`: %w", order.Receipt, domain.ErrInvalidTransaction)
	}

	tr, trErr := p.trRepo.FindByID(ctx, trID)
	if trErr != nil {
		if errors.Is(trErr, domain.ErrRecordNotFound) {
			return nil, fmt.Errorf("receipt `%s`: %w", order.Receipt, domain.ErrInvalidTransaction)
		}
		return nil, fmt.Errorf("finding transaction by receipt: %w", trErr)
	}

	if err := checkOrderMatches(tr, order); err != nil {
		return nil, err
	}
	return tr, nil
}

func checkOrderMatches(tr *domain.Transaction, order *domain.GatewayOrder) error {
	if tr.GatewayOrderID != "" && tr.GatewayOrderID != order.ID {
		return fmt.Errorf("order `%s` does not match transaction %d: %w", order.ID, tr.ID, domain.ErrInvalidTransaction)
	}
	if order.Receipt != strconv.FormatInt(tr.ID, 10) {
		return fmt.Errorf("receipt `%s` does not match transaction %d: %w",
			order.Receipt, tr.ID, domain.ErrInvalidTransaction)
	}
	if order.Amount != tr.Amount.Shift(2).IntPart() { //nolint:mnd
		return fmt.Errorf("order `%s` amount %d does not match transaction %d: %w",
			order.ID, order.Amount, tr.ID, domain.ErrInvalidTransaction)
	}
	return nil
}
