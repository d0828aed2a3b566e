package aggregates

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/estatepay/estatepay-backend/internal/domain/events"
	"github.com/estatepay/estatepay-backend/pkg/enums"
	"github.com/estatepay/estatepay-backend/pkg/errors"
)

// Estate is the tenant boundary: merchants, contracts and operators all
// hang off an estate.
type Estate struct {
	Base

	Name      string
	operators map[uuid.UUID]struct{}
}

func NewEstate(id uuid.UUID) *Estate {
	e := &Estate{operators: make(map[uuid.UUID]struct{})}
	e.setID(id)
	return e
}

func (e *Estate) AggregateType() enums.AggregateType { return enums.AggregateEstate }

func (e *Estate) Apply(payload events.Payload) error {
	switch event := payload.(type) {
	case events.EstateCreated:
		e.setID(event.EstateID)
		e.Name = event.Name
		e.markCreated()
	case events.OperatorAddedToEstate:
		e.operators[event.OperatorID] = struct{}{}
	default:
		return errors.New(errors.CodeConfiguration, fmt.Sprintf("estate cannot apply %s", payload.EventType()))
	}
	e.advance()
	return nil
}

// HasOperator reports whether the operator has been added to the estate.
func (e *Estate) HasOperator(operatorID uuid.UUID) bool {
	_, ok := e.operators[operatorID]
	return ok
}

func (e *Estate) Create(name, reference string) error {
	if e.IsCreated() {
		return errors.New(errors.CodeStateConflict, "estate already created")
	}
	if name == "" {
		return errors.New(errors.CodeValidation, "estate name is required")
	}
	return raise(e, events.EstateCreated{EstateID: e.AggregateID(), Name: name, Reference: reference})
}

func (e *Estate) AddOperator(operatorID uuid.UUID, name string) error {
	if !e.IsCreated() {
		return errors.New(errors.CodeStateConflict, "estate not created")
	}
	if e.HasOperator(operatorID) {
		return errors.New(errors.CodeConflict, fmt.Sprintf("operator %s already on estate", operatorID))
	}
	return raise(e, events.OperatorAddedToEstate{EstateID: e.AggregateID(), OperatorID: operatorID, Name: name})
}
