package domain

type TransactionStatusType string

const (
	TransactionStatusPending TransactionStatusType = "PENDING"
	TransactionStatusPaid    TransactionStatusType = "PAID"
)

// DirectionType направление движения кредитов по журналу. Debit - списание, credit - пополнение.
type DirectionType string

const (
	DirectionDebit  DirectionType = "debit"
	DirectionCredit DirectionType = "credit"
)

type LedgerReasonType string

const (
	LedgerReasonSignup  LedgerReasonType = "signup"
	LedgerReasonImage   LedgerReasonType = "image"
	LedgerReasonPayment LedgerReasonType = "payment"
)

// GatewayOrderStatusPaid статус заказа платежного шлюза, означающий успешную оплату.
const GatewayOrderStatusPaid = "paid"
