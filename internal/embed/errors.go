package embed

import "errors"

const (
	opOpenInput    = "open input"
	opRead         = "read input"
	opCreateOutput = "create output"
	opWrite        = "write output"
	opCloseOutput  = "close output"
	opRename       = "rename output"
	opFreeSpace    = "check free space"
)

// ErrInsufficientSpace is reported when the output volume cannot hold the
// artifact. It is always wrapped in an *IOError.
var ErrInsufficientSpace = errors.New("insufficient free space")

// IOError describes a failed open, read, write or close during an embed.
// Every I/O failure surfaced by this package is an *IOError.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *IOError) Unwrap() error { return e.Err }
