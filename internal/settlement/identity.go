// Package settlement derives deterministic settlement stream identities.
//
// A merchant's settlement for a given date must always address the same
// event stream no matter which code path touches it first, so the
// aggregate ID is a name-based UUID over (date, merchant, estate)
// rather than a random one. The derivation is part of the contract
// between settlement processing and settlement querying; changing it
// strands existing streams.
package settlement

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// namespace for settlement IDs, fixed forever.
var settlementNamespace = uuid.MustParse("8f9c1d6e-4b21-4f6a-9d57-3a0e8c2b5f41")

// DeriveAggregateID maps (settlementDate, merchantID, estateID) onto a
// stable stream ID. Only the calendar date participates; the time of
// day is discarded.
func DeriveAggregateID(settlementDate time.Time, merchantID, estateID uuid.UUID) uuid.UUID {
	name := fmt.Sprintf("%s:%s:%s", settlementDate.UTC().Format("2006-01-02"), merchantID, estateID)
	return uuid.NewSHA1(settlementNamespace, []byte(name))
}
