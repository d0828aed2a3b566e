package aggregates

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/estatepay/estatepay-backend/internal/domain/events"
	"github.com/estatepay/estatepay-backend/pkg/enums"
	"github.com/estatepay/estatepay-backend/pkg/errors"
)

// Operator is a product provider whose catalogue merchants sell from.
type Operator struct {
	Base

	Name                        string
	RequireCustomMerchantNumber bool
	RequireCustomTerminalNumber bool
}

func NewOperator(id uuid.UUID) *Operator {
	o := &Operator{}
	o.setID(id)
	return o
}

func (o *Operator) AggregateType() enums.AggregateType { return enums.AggregateOperator }

func (o *Operator) Apply(payload events.Payload) error {
	switch event := payload.(type) {
	case events.OperatorCreated:
		o.setID(event.OperatorID)
		o.Name = event.Name
		o.RequireCustomMerchantNumber = event.RequireCustomMerchantNumber
		o.RequireCustomTerminalNumber = event.RequireCustomTerminalNumber
		o.markCreated()
	default:
		return errors.New(errors.CodeConfiguration, fmt.Sprintf("operator cannot apply %s", payload.EventType()))
	}
	o.advance()
	return nil
}

func (o *Operator) Create(name string, requireMerchantNumber, requireTerminalNumber bool) error {
	if o.IsCreated() {
		return errors.New(errors.CodeStateConflict, "operator already created")
	}
	if name == "" {
		return errors.New(errors.CodeValidation, "operator name is required")
	}
	return raise(o, events.OperatorCreated{
		OperatorID:                  o.AggregateID(),
		Name:                        name,
		RequireCustomMerchantNumber: requireMerchantNumber,
		RequireCustomTerminalNumber: requireTerminalNumber,
	})
}
