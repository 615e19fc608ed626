package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type PlanID string

const (
	PlanBasic    PlanID = "Basic"
	PlanAdvanced PlanID = "Advanced"
	PlanBusiness PlanID = "Business"
)

// minorUnitsExp показатель степени для перевода суммы в минимальные единицы валюты (центы, пайсы).
const minorUnitsExp = 2

type Plan struct {
	ID      PlanID
	Credits int64
	Amount  decimal.Decimal
}

// AmountMinor возвращает стоимость плана в минимальных единицах валюты.
func (p Plan) AmountMinor() int64 {
	return p.Amount.Shift(minorUnitsExp).IntPart()
}

var plans = map[PlanID]Plan{
	PlanBasic:    {ID: PlanBasic, Credits: 100, Amount: decimal.NewFromInt(10)},      //nolint:mnd
	PlanAdvanced: {ID: PlanAdvanced, Credits: 500, Amount: decimal.NewFromInt(50)},   //nolint:mnd
	PlanBusiness: {ID: PlanBusiness, Credits: 5000, Amount: decimal.NewFromInt(250)}, //nolint:mnd
}

// LookupPlan возвращает план по его идентификатору или ошибку ErrUnknownPlan.
func LookupPlan(id string) (Plan, error) {
	plan, ok := plans[PlanID(id)]
	if !ok {
		return Plan{}, fmt.Errorf("plan `%s`: %w", id, ErrUnknownPlan)
	}
	return plan, nil
}
