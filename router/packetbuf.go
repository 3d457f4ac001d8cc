package router

import "fmt"

// maxFrameLen is the hard cap on a serialized egress frame.
const maxFrameLen = 1550

// ErrFrameTooLong is returned by Buffer.Serialize when the chain's total
// length exceeds maxFrameLen.
type ErrFrameTooLong struct {
	Length int
}

func (e *ErrFrameTooLong) Error() string {
	return fmt.Sprintf("router: egress frame length %d exceeds %d byte cap", e.Length, maxFrameLen)
}

// Buffer is an ordered chain of contiguous byte runs forming one outbound
// datagram. Headers are added by prepending a run, letting each
// encapsulation layer wrap the payload without copying it. Serialize
// performs the single copy into a flat line buffer.
type Buffer struct {
	runs [][]byte
}

// NewBuffer wraps an existing payload as the innermost run of a chain.
func NewBuffer(payload []byte) *Buffer {
	return &Buffer{runs: [][]byte{payload}}
}

// Prepend links a new header run in front of the chain.
func (b *Buffer) Prepend(header []byte) {
	b.runs = append([][]byte{header}, b.runs...)
}

// Len returns the chain's total byte length.
func (b *Buffer) Len() int {
	n := 0
	for _, r := range b.runs {
		n += len(r)
	}
	return n
}

// Serialize concatenates the chain's runs into a single byte slice bounded
// at maxFrameLen, the hard cap spec.md places on egress frames.
func (b *Buffer) Serialize() ([]byte, error) {
	total := b.Len()
	if total > maxFrameLen {
		return nil, &ErrFrameTooLong{Length: total}
	}
	out := make([]byte, 0, total)
	for _, r := range b.runs {
		out = append(out, r...)
	}
	return out, nil
}
