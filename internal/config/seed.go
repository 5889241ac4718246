package config

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// NewSeed draws a random seed for runs that did not pin one. The value is
// logged by the commands so the match can be replayed.
func NewSeed() (int64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(buf[:]) &^ (1 << 63)), nil
}
