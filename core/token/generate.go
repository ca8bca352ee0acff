package token

import (
	"math/rand"
	"strings"
	"time"
)

const (
	tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	tokenSymbols  = 16
	groupSize     = 4
)

func init() {
	rand.Seed(time.Now().UnixNano())
}

// The global rand source is mutex-locked, so Generate is safe to call from
// concurrent request handlers.
var randIndexFunc = rand.Intn // mockable

// Generate returns a human-typable bearer token of the form
// XXXX-XXXX-XXXX-XXXX over A-Z0-9. This is an access-convenience credential,
// not a security boundary: the draw is not cryptographically secured and no
// uniqueness check is made against existing tokens.
func Generate() string {
	var b strings.Builder
	b.Grow(tokenSymbols + tokenSymbols/groupSize - 1)
	for i := 0; i < tokenSymbols; i++ {
		if i > 0 && i%groupSize == 0 {
			b.WriteByte('-')
		}
		b.WriteByte(tokenAlphabet[randIndexFunc(len(tokenAlphabet))])
	}
	return b.String()
}
