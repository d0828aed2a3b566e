package events

import (
	"github.com/google/uuid"

	"github.com/estatepay/estatepay-backend/pkg/enums"
)

// EstateCreated marks the creation of an estate aggregate.
type EstateCreated struct {
	EstateID  uuid.UUID `json:"estateId"`
	Name      string    `json:"name"`
	Reference string    `json:"reference"`
}

func (EstateCreated) EventType() enums.EventType { return enums.EventEstateCreated }

// OperatorAddedToEstate enables an operator for an estate.
type OperatorAddedToEstate struct {
	EstateID   uuid.UUID `json:"estateId"`
	OperatorID uuid.UUID `json:"operatorId"`
	Name       string    `json:"name"`
}

func (OperatorAddedToEstate) EventType() enums.EventType { return enums.EventOperatorAddedToEstate }

// OperatorCreated marks the creation of an operator aggregate.
type OperatorCreated struct {
	OperatorID                  uuid.UUID `json:"operatorId"`
	Name                        string    `json:"name"`
	RequireCustomMerchantNumber bool      `json:"requireCustomMerchantNumber"`
	RequireCustomTerminalNumber bool      `json:"requireCustomTerminalNumber"`
}

func (OperatorCreated) EventType() enums.EventType { return enums.EventOperatorCreated }
