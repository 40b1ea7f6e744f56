package encoder

import "fmt"

// Alphabet is the URL safe base64 symbol set, indexed by value.
const Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-_"

// Printable maps every value in [0,63] to its Alphabet symbol. A larger value
// means the caller is broken and Printable panics.
func Printable(values []byte) string {
	out := make([]byte, len(values))
	for i, v := range values {
		if int(v) >= len(Alphabet) {
			panic(fmt.Sprintf("encoder: symbol %d out of range [0,63]", v))
		}
		out[i] = Alphabet[v]
	}
	return string(out)
}
