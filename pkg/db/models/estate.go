package models

import (
	"time"

	"github.com/google/uuid"
)

// Estate is the flattened estate read-model row.
type Estate struct {
	EstateID  uuid.UUID `gorm:"column:estate_id;type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;type:text;not null"`
	Reference string    `gorm:"column:reference;type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// EstateOperator links an operator to an estate.
type EstateOperator struct {
	EstateID   uuid.UUID `gorm:"column:estate_id;type:uuid;primaryKey"`
	OperatorID uuid.UUID `gorm:"column:operator_id;type:uuid;primaryKey"`
	Name       string    `gorm:"column:name;type:text;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

// Operator is the reference-data row for an external transaction operator.
type Operator struct {
	OperatorID                 uuid.UUID `gorm:"column:operator_id;type:uuid;primaryKey"`
	Name                       string    `gorm:"column:name;type:text;not null"`
	RequireCustomMerchantNumber bool     `gorm:"column:require_custom_merchant_number;not null;default:false"`
	RequireCustomTerminalNumber bool     `gorm:"column:require_custom_terminal_number;not null;default:false"`
	CreatedAt                  time.Time `gorm:"column:created_at;autoCreateTime"`
}
