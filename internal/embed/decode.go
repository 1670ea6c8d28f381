package embed

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrMalformed is returned by Decode for text that is not an array literal
// produced by this package.
var ErrMalformed = errors.New("malformed array literal")

// ErrMismatch is returned by Verify when the artifact does not decode to
// the input bytes.
var ErrMismatch = errors.New("artifact does not match input")

// Decode parses an artifact written by an Encoder, with or without the
// declaration, and returns the embedded bytes in order.
func Decode(r io.Reader) ([]byte, error) {
	text, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	open := bytes.IndexByte(text, '{')
	end := bytes.LastIndexByte(text, '}')
	if open < 0 || end < open {
		return nil, fmt.Errorf("%w: missing braces", ErrMalformed)
	}
	body := bytes.TrimSpace(text[open+1 : end])
	if len(body) == 0 {
		return []byte{}, nil
	}

	fields := bytes.Split(body, []byte{','})
	out := make([]byte, 0, len(fields))
	for i, f := range fields {
		f = bytes.TrimSpace(f)
		if len(f) != 4 || f[0] != '0' || (f[1] != 'x' && f[1] != 'X') {
			return nil, fmt.Errorf("%w: token %d %q", ErrMalformed, i, f)
		}
		hi, ok1 := unhex(f[2])
		lo, ok2 := unhex(f[3])
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("%w: token %d %q", ErrMalformed, i, f)
		}
		out = append(out, hi<<4|lo)
	}
	return out, nil
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// Verify decodes the artifact at outputPath and compares it with the
// contents of inputPath.
func Verify(inputPath, outputPath string) error {
	want, err := os.ReadFile(inputPath)
	if err != nil {
		return &IOError{Op: opRead, Path: inputPath, Err: err}
	}
	f, err := os.Open(outputPath)
	if err != nil {
		return &IOError{Op: "open output", Path: outputPath, Err: err}
	}
	defer f.Close()

	got, err := Decode(f)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", outputPath, err)
	}
	if !bytes.Equal(got, want) {
		return fmt.Errorf("%w: decoded %d bytes, input has %d", ErrMismatch, len(got), len(want))
	}
	return nil
}
