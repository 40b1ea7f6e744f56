package encoder

import (
	"fmt"

	"github.com/undeadops/tersemap/internal/config"
)

// Hash derives a token of fixed length by feeding the input into one running
// SipHash-1-3 digest (zero key) once per output symbol. Symbol i is the
// digest after i+1 writes, reduced mod 64. Not collision resistant; the store's
// insert-or-ignore is what absorbs collisions.
type Hash struct {
	length int
}

// NewHash fails when length is not greater than config.MinTokenLength.
func NewHash(length int) (*Hash, error) {
	if length <= config.MinTokenLength {
		return nil, &config.Error{
			Field:  "URI_LEN",
			Reason: fmt.Sprintf("uri length must be greater than %d, got %d", config.MinTokenLength, length),
		}
	}
	return &Hash{length: length}, nil
}

func (h *Hash) Encode(originalURI string) (string, error) {
	d := newSip13()
	symbols := make([]byte, h.length)
	for i := range symbols {
		d.WriteString(originalURI)
		symbols[i] = byte(d.Sum64() % 64)
	}
	return Printable(symbols), nil
}

// Length is the number of symbols in every token.
func (h *Hash) Length() int {
	return h.length
}
