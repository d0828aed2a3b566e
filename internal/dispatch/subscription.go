package dispatch

import (
	"fmt"

	"github.com/estatepay/estatepay-backend/pkg/enums"
)

// Pipeline selects the delivery regime for a subscription.
type Pipeline string

const (
	// PipelineMain processes events concurrently with no ordering
	// guarantee. Suited to read-model updates that tolerate reordering.
	PipelineMain Pipeline = "main"
	// PipelineOrdered processes events of one stream strictly in
	// version order. Streams still run in parallel with each other.
	// Required by running-balance style projections.
	PipelineOrdered Pipeline = "ordered"
)

// Subscription binds a consumer group to one or more stream categories
// and a handler registry. The group name keys the durable checkpoint.
type Subscription struct {
	GroupName      string
	AggregateTypes []enums.AggregateType
	Pipeline       Pipeline
	Registry       *HandlerRegistry
}

func (s Subscription) validate() error {
	if s.GroupName == "" {
		return fmt.Errorf("subscription group name required")
	}
	if len(s.AggregateTypes) == 0 {
		return fmt.Errorf("subscription %s has no aggregate types", s.GroupName)
	}
	for _, aggregateType := range s.AggregateTypes {
		if !aggregateType.IsValid() {
			return fmt.Errorf("subscription %s has invalid aggregate type %q", s.GroupName, aggregateType)
		}
	}
	if s.Pipeline != PipelineMain && s.Pipeline != PipelineOrdered {
		return fmt.Errorf("subscription %s has invalid pipeline %q", s.GroupName, s.Pipeline)
	}
	if s.Registry == nil {
		return fmt.Errorf("subscription %s has no handler registry", s.GroupName)
	}
	return nil
}
