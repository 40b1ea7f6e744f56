package encoder

import (
	"encoding/binary"
	"math/bits"
)

// sip13 is a streaming SipHash-1-3 with a zero key. Sum64 does not consume
// the state, so the digest can keep absorbing input after a read.
type sip13 struct {
	v0, v1, v2, v3 uint64
	tail           [8]byte
	ntail          int
	length         uint64
}

func newSip13() *sip13 {
	return &sip13{
		v0: 0x736f6d6570736575,
		v1: 0x646f72616e646f6d,
		v2: 0x6c7967656e657261,
		v3: 0x7465646279746573,
	}
}

func (s *sip13) WriteString(p string) {
	s.length += uint64(len(p))
	if s.ntail > 0 {
		n := copy(s.tail[s.ntail:], p)
		s.ntail += n
		p = p[n:]
		if s.ntail < 8 {
			return
		}
		s.compress(binary.LittleEndian.Uint64(s.tail[:]))
		s.ntail = 0
	}
	for len(p) >= 8 {
		s.compress(binary.LittleEndian.Uint64([]byte(p[:8])))
		p = p[8:]
	}
	s.ntail = copy(s.tail[:], p)
}

func (s *sip13) compress(m uint64) {
	s.v3 ^= m
	s.v0, s.v1, s.v2, s.v3 = sipRound(s.v0, s.v1, s.v2, s.v3)
	s.v0 ^= m
}

func (s *sip13) Sum64() uint64 {
	b := s.length << 56
	for i := s.ntail - 1; i >= 0; i-- {
		b |= uint64(s.tail[i]) << (8 * uint(i))
	}
	v0, v1, v2, v3 := s.v0, s.v1, s.v2, s.v3^b
	v0, v1, v2, v3 = sipRound(v0, v1, v2, v3)
	v0 ^= b
	v2 ^= 0xff
	for i := 0; i < 3; i++ {
		v0, v1, v2, v3 = sipRound(v0, v1, v2, v3)
	}
	return v0 ^ v1 ^ v2 ^ v3
}

func sipRound(v0, v1, v2, v3 uint64) (uint64, uint64, uint64, uint64) {
	v0 += v1
	v1 = bits.RotateLeft64(v1, 13)
	v1 ^= v0
	v0 = bits.RotateLeft64(v0, 32)
	v2 += v3
	v3 = bits.RotateLeft64(v3, 16)
	v3 ^= v2
	v0 += v3
	v3 = bits.RotateLeft64(v3, 21)
	v3 ^= v0
	v2 += v1
	v1 = bits.RotateLeft64(v1, 17)
	v1 ^= v2
	v2 = bits.RotateLeft64(v2, 32)
	return v0, v1, v2, v3
}
