package frame

import "errors"

// ErrBadStuffing is returned by Unstuff for an escape byte that is not doubled.
var ErrBadStuffing = errors.New("bad stuffing")

// Stuff appends p to dst doubling every Escape and Terminator byte.
func Stuff(dst, p []byte) []byte {
	for _, b := range p {
		dst = append(dst, b)
		if b == Escape || b == Terminator {
			dst = append(dst, b)
		}
	}
	return dst
}

// StuffedLen is the length of p after stuffing.
func StuffedLen(p []byte) int {
	n := len(p)
	for _, b := range p {
		if b == Escape || b == Terminator {
			n++
		}
	}
	return n
}

// Unstuff reverses Stuff. p excludes the closing terminator.
func Unstuff(dst, p []byte) ([]byte, error) {
	for i := 0; i < len(p); i++ {
		b := p[i]
		dst = append(dst, b)
		if b == Escape || b == Terminator {
			if i+1 >= len(p) || p[i+1] != b {
				return dst, ErrBadStuffing
			}
			i++
		}
	}
	return dst, nil
}
