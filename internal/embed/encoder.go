// Package embed converts binary data into a C-family byte array literal.
//
// The output is bit-exact: lowercase "0x"-prefixed tokens joined by ", ",
// a line break after every 16th separator, framed by an optional
// "const uint8_t <symbol>[] =" declaration and a brace pair.
package embed

import (
	"bufio"
	"io"
)

const (
	// DefaultSymbol is the array name used when Options.Symbol is empty.
	DefaultSymbol = "g_Buffer"

	// DefaultBufferSize is the block size used for reading input.
	DefaultBufferSize = 64 << 10

	// LineWidth is the number of byte tokens per output line.
	LineWidth = 16
)

const hexDigits = "0123456789abcdef"

// Options controls the framing of the literal and how files are handled.
type Options struct {
	// IncludeDeclaration emits "const uint8_t <Symbol>[] =" before the
	// opening brace and a ";" after the closing one. When false only the
	// bracketed body is written.
	IncludeDeclaration bool
	Symbol             string

	// Atomic writes to a temporary file next to the output and renames it
	// into place once the literal is complete.
	Atomic bool

	// CheckFreeSpace refuses to start when the output volume cannot hold
	// the artifact.
	CheckFreeSpace bool

	BufferSize int
}

// DefaultOptions returns options producing the full declaration form.
func DefaultOptions() Options {
	return Options{
		IncludeDeclaration: true,
		Symbol:             DefaultSymbol,
		BufferSize:         DefaultBufferSize,
	}
}

func (o Options) symbol() string {
	if o.Symbol == "" {
		return DefaultSymbol
	}
	return o.Symbol
}

func (o Options) bufferSize() int {
	if o.BufferSize <= 0 {
		return DefaultBufferSize
	}
	return o.BufferSize
}

// Prologue returns the text written before the first byte token.
func (o Options) Prologue() string {
	if !o.IncludeDeclaration {
		return "{\n"
	}
	return "const uint8_t " + o.symbol() + "[] =\n{\n"
}

// Epilogue returns the text written after the last byte token.
func (o Options) Epilogue() string {
	if !o.IncludeDeclaration {
		return "\n}"
	}
	return "\n};"
}

// EstimateSize returns the exact artifact size in bytes for n input bytes.
func EstimateSize(n int64, opts Options) int64 {
	size := int64(len(opts.Prologue()) + len(opts.Epilogue()))
	if n <= 0 {
		return size
	}
	// 4 bytes per token, 2 per separator, 1 per line break.
	return size + 4*n + 2*(n-1) + (n-1)/LineWidth
}

// Encoder is an io.Writer that emits every byte written to it as a token of
// the array literal. Close must be called to write the epilogue.
type Encoder struct {
	w      *bufio.Writer
	opts   Options
	n      int64
	tok    [7]byte
	closed bool
}

// NewEncoder returns an Encoder writing to w. The prologue is buffered
// immediately; write errors surface from Write or Close.
func NewEncoder(w io.Writer, opts Options) *Encoder {
	e := &Encoder{
		w:    bufio.NewWriterSize(w, opts.bufferSize()),
		opts: opts,
	}
	e.w.WriteString(opts.Prologue())
	return e
}

// Write encodes p. It returns the number of input bytes whose tokens were
// accepted by the underlying buffer.
func (e *Encoder) Write(p []byte) (int, error) {
	if e.closed {
		return 0, io.ErrClosedPipe
	}
	for i, b := range p {
		k := 0
		if e.n > 0 {
			e.tok[0], e.tok[1] = ',', ' '
			k = 2
			if e.n%LineWidth == 0 {
				e.tok[2] = '\n'
				k = 3
			}
		}
		e.tok[k] = '0'
		e.tok[k+1] = 'x'
		e.tok[k+2] = hexDigits[b>>4]
		e.tok[k+3] = hexDigits[b&0x0f]
		if _, err := e.w.Write(e.tok[:k+4]); err != nil {
			return i, err
		}
		e.n++
	}
	return len(p), nil
}

// Count returns the number of byte tokens emitted so far.
func (e *Encoder) Count() int64 { return e.n }

// Close writes the epilogue and flushes. It does not close the underlying
// writer.
func (e *Encoder) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	if _, err := e.w.WriteString(e.opts.Epilogue()); err != nil {
		return err
	}
	return e.w.Flush()
}
