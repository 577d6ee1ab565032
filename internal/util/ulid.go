package util

import (
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// NewULID generates a new ULID string for persisted records.
// A fresh monotonic entropy source per call is sufficient here: ids are
// minted at human interaction rates, not in tight loops.
func NewULID() string {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

const shortIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// NewShortID generates a short random alphanumeric id. Question ids only
// need to be unique within a single quiz, so nine characters is plenty.
func NewShortID() string {
	b := make([]byte, 9)
	for i := range b {
		b[i] = shortIDAlphabet[rand.Intn(len(shortIDAlphabet))]
	}
	return string(b)
}
