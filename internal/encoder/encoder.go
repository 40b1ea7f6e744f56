// Package encoder turns original URIs into short printable tokens.
//
// Two strategies exist: Hash, a stateless repeated hash over the input, and
// Obfuscator, a salted reversible hashids encoding. Exactly one is active per
// process and is chosen from configuration by New.
package encoder

import (
	"fmt"

	"github.com/undeadops/tersemap/internal/config"
)

// Encoder maps an original URI to its token. The same input always yields
// the same token for a given configuration.
type Encoder interface {
	Encode(originalURI string) (string, error)
}

// New builds the encoder selected by cfg.Encoder.
func New(cfg *config.Config) (Encoder, error) {
	switch cfg.Encoder {
	case config.EncoderHash:
		return NewHash(cfg.TokenLength)
	case config.EncoderObfs:
		return NewObfuscator(cfg.Salt)
	default:
		return nil, &config.Error{Field: "ENCODER", Reason: fmt.Sprintf("unknown encoder %q", cfg.Encoder)}
	}
}
