package game

import (
	"math/rand"
	"strings"
)

// roomCodeAlphabet excludes characters that are easy to confuse when read
// aloud or transcribed: 0/O, 1/I/L, per spec.md §6.
const roomCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const roomCodeLength = 6

// GenerateRoomCode produces a random 6-character room code from
// roomCodeAlphabet using the supplied random source, so callers can inject
// a deterministic *rand.Rand in tests.
func GenerateRoomCode(rng *rand.Rand) string {
	var b strings.Builder
	b.Grow(roomCodeLength)
	for i := 0; i < roomCodeLength; i++ {
		b.WriteByte(roomCodeAlphabet[rng.Intn(len(roomCodeAlphabet))])
	}
	return b.String()
}

// DisplayRoomCode inserts a dash after the first 3 characters for human
// display; the wire form stays the plain 6-character code.
func DisplayRoomCode(code string) string {
	if len(code) != roomCodeLength {
		return code
	}
	return code[:3] + "-" + code[3:]
}
