// Package aid generates the action ids piazza expects on every write call.
package aid

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

const (
	digits = "0123456789abcdefghijklmnopqrstuvwxyz"

	// randomSpan is 36^4, so the random suffix is at most four digits.
	randomSpan = 1679616
)

// Encode converts a non-negative integer to its lowercase base-36 form.
func Encode(value int64) string {
	if value < 0 {
		panic(fmt.Sprintf("aid: cannot encode negative value %d", value))
	}
	if value == 0 {
		return "0"
	}

	var buf [16]byte
	i := len(buf)
	for value > 0 {
		i--
		buf[i] = digits[value%36]
		value /= 36
	}
	return string(buf[i:])
}

// Decode is the inverse of Encode.
func Decode(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("aid: empty input")
	}

	var value int64
	for _, r := range s {
		d := strings.IndexRune(digits, r)
		if d < 0 {
			return 0, fmt.Errorf("aid: invalid base36 digit %q", r)
		}
		value = value*36 + int64(d)
	}
	return value, nil
}

// Generator builds action ids from a clock and a random source.
type Generator struct {
	Now  func() time.Time
	Intn func(n int) int
}

func (g Generator) Generate() string {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	intn := rand.Intn
	if g.Intn != nil {
		intn = g.Intn
	}
	return Encode(now().UnixMilli()) + Encode(int64(intn(randomSpan)))
}

// New returns a fresh action id: base36(unix millis) + base36(random in [0, 36^4)).
func New() string {
	return Generator{}.Generate()
}
