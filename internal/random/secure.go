// Package random provides cryptographically secure transaction-id
// generation for outbound DNS queries.
package random

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// TransactionID generates a cryptographically random 16-bit transaction
// ID. NEVER use math/rand here — a predictable transaction ID is a
// critical security flaw for anything that talks to the open internet.
func TransactionID() uint16 {
	var buf [2]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return binary.BigEndian.Uint16(buf[:])
}
