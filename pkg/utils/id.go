package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// uidAlphabet matches the reference client's generator: upper- and
// lowercase letters plus digits.
const uidAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateUID returns a random alphanumeric identifier of the given
// length using a cryptographic source.
func GenerateUID(length int) string {
	if length <= 0 {
		length = 5
	}
	b := make([]byte, length)
	max := big.NewInt(int64(len(uidAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand failing is unrecoverable for id generation.
			panic(fmt.Sprintf("utils: random source unavailable: %v", err))
		}
		b[i] = uidAlphabet[n.Int64()]
	}
	return string(b)
}

// GenerateTransferID builds a transfer record identifier from the file
// name and the current timestamp.
func GenerateTransferID(name string) string {
	return fmt.Sprintf("%s-%d", name, time.Now().UnixMilli())
}
