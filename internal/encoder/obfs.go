package encoder

import (
	"errors"
	"fmt"

	"github.com/speps/go-hashids/v2"

	"github.com/undeadops/tersemap/internal/config"
)

// Obfuscator encodes the bytes of the input as a salted hashids string.
// Tokens are not portable across salt changes.
type Obfuscator struct {
	h *hashids.HashID
}

func NewObfuscator(salt string) (*Obfuscator, error) {
	if salt == "" {
		return nil, &config.Error{Field: "SALT", Reason: "is not set"}
	}
	hd := hashids.NewData()
	hd.Salt = salt
	h, err := hashids.NewWithData(hd)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize hashids: %w", err)
	}
	return &Obfuscator{h: h}, nil
}

func (o *Obfuscator) Encode(originalURI string) (string, error) {
	if originalURI == "" {
		return "", errors.New("cannot obfuscate empty input")
	}
	nums := make([]int64, len(originalURI))
	for i := 0; i < len(originalURI); i++ {
		nums[i] = int64(originalURI[i])
	}
	token, err := o.h.EncodeInt64(nums)
	if err != nil {
		return "", fmt.Errorf("failed to obfuscate: %w", err)
	}
	return token, nil
}

// Decode reverses Encode. The service looks tokens up instead of decoding them.
func (o *Obfuscator) Decode(token string) (string, error) {
	nums, err := o.h.DecodeInt64WithError(token)
	if err != nil {
		return "", fmt.Errorf("failed to decode token: %w", err)
	}
	out := make([]byte, len(nums))
	for i, n := range nums {
		if n < 0 || n > 255 {
			return "", fmt.Errorf("decoded value %d is not a byte", n)
		}
		out[i] = byte(n)
	}
	return string(out), nil
}
