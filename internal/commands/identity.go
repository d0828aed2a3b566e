package commands

import (
	"fmt"

	"github.com/google/uuid"
)

// namespace for float stream IDs, fixed forever.
var floatNamespace = uuid.MustParse("3d2b7c80-95e4-4a38-b1f2-6c4d0a9e7f13")

// deriveFloatID maps (merchantID, operatorID) onto a stable float
// stream, so float creation, top-ups and sale drawdowns all address the
// same stream without a lookup table.
func deriveFloatID(merchantID, operatorID uuid.UUID) uuid.UUID {
	name := fmt.Sprintf("%s:%s", merchantID, operatorID)
	return uuid.NewSHA1(floatNamespace, []byte(name))
}
