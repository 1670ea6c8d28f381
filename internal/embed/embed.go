package embed

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Embedder converts input files into array literal artifacts.
type Embedder struct {
	opts   Options
	logger *zap.Logger
}

// New creates an Embedder. A nil logger disables logging.
func New(opts Options, logger *zap.Logger) *Embedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Embedder{
		opts:   opts,
		logger: logger.Named("embed"),
	}
}

// Embed converts the file at inputPath with default logging disabled.
func Embed(inputPath, outputPath string, opts Options) (int64, error) {
	return New(opts, nil).Embed(inputPath, outputPath)
}

// EmbedReader encodes everything read from r into w and returns the byte
// count. Errors are *IOError values without a path.
func EmbedReader(w io.Writer, r io.Reader, opts Options) (int64, error) {
	enc := NewEncoder(w, opts)
	err := encode(enc, r, make([]byte, opts.bufferSize()))
	return enc.Count(), err
}

// Embed reads inputPath and writes the literal to outputPath, creating or
// truncating it. It returns the number of bytes consumed.
//
// Without Options.Atomic a failed embed may leave a partial artifact.
func (e *Embedder) Embed(inputPath, outputPath string) (int64, error) {
	in, err := os.Open(inputPath)
	if err != nil {
		return 0, &IOError{Op: opOpenInput, Path: inputPath, Err: err}
	}
	defer in.Close()

	if err := adviseSequential(in); err != nil {
		e.logger.Debug("fadvise failed", zap.String("input", inputPath), zap.Error(err))
	}

	if e.opts.CheckFreeSpace {
		if err := e.checkFreeSpace(in, outputPath); err != nil {
			return 0, err
		}
	}

	e.logger.Debug("embedding",
		zap.String("input", inputPath),
		zap.String("output", outputPath),
		zap.Bool("declaration", e.opts.IncludeDeclaration),
		zap.Bool("atomic", e.opts.Atomic))

	var n int64
	if e.opts.Atomic {
		n, err = e.embedAtomic(in, outputPath)
	} else {
		n, err = e.embedDirect(in, outputPath)
	}
	if err != nil {
		fillPath(err, inputPath, outputPath)
		return n, err
	}

	e.logger.Debug("embedded", zap.String("output", outputPath), zap.Int64("bytes", n))
	return n, nil
}

func (e *Embedder) embedDirect(in io.Reader, outputPath string) (n int64, err error) {
	out, err := os.Create(outputPath)
	if err != nil {
		return 0, &IOError{Op: opCreateOutput, Path: outputPath, Err: err}
	}
	defer func() {
		if cerr := out.Close(); cerr != nil {
			err = multierr.Append(err, &IOError{Op: opCloseOutput, Path: outputPath, Err: cerr})
		}
	}()

	enc := NewEncoder(out, e.opts)
	err = encode(enc, in, make([]byte, e.opts.bufferSize()))
	return enc.Count(), err
}

// embedAtomic writes into a temporary file in the output directory so the
// rename stays on one filesystem.
func (e *Embedder) embedAtomic(in io.Reader, outputPath string) (int64, error) {
	dir, base := filepath.Split(outputPath)
	if dir == "" {
		dir = "."
	}
	tmp, err := createTemp(dir, base)
	if err != nil {
		return 0, &IOError{Op: opCreateOutput, Path: outputPath, Err: err}
	}
	tmpPath := tmp.Name()

	// os.Create truncates in place and keeps the mode of an existing
	// artifact; the replacement must carry it over.
	if fi, serr := os.Stat(outputPath); serr == nil && fi.Mode().IsRegular() {
		if cerr := tmp.Chmod(fi.Mode().Perm()); cerr != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return 0, &IOError{Op: opCreateOutput, Path: outputPath, Err: cerr}
		}
	}

	enc := NewEncoder(tmp, e.opts)
	err = encode(enc, in, make([]byte, e.opts.bufferSize()))
	if err == nil {
		if serr := tmp.Sync(); serr != nil {
			err = &IOError{Op: opWrite, Path: outputPath, Err: serr}
		}
	}
	if cerr := tmp.Close(); cerr != nil {
		err = multierr.Append(err, &IOError{Op: opCloseOutput, Path: outputPath, Err: cerr})
	}
	if err == nil {
		if rerr := os.Rename(tmpPath, outputPath); rerr != nil {
			err = &IOError{Op: opRename, Path: outputPath, Err: rerr}
		}
	}
	if err != nil {
		if rmErr := os.Remove(tmpPath); rmErr != nil && !os.IsNotExist(rmErr) {
			e.logger.Warn("failed to remove temporary artifact",
				zap.String("path", tmpPath), zap.Error(rmErr))
		}
		return enc.Count(), err
	}
	return enc.Count(), nil
}

// createTemp creates a fresh file next to the output with the same 0666
// request os.Create makes, so the process umask applies to it.
func createTemp(dir, base string) (*os.File, error) {
	for try := 0; ; try++ {
		name := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", base, os.Getpid(), time.Now().UnixNano()))
		f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0666)
		if os.IsExist(err) && try < 100 {
			continue
		}
		return f, err
	}
}

// encode streams r through enc in blocks of len(buf) and writes the epilogue.
func encode(enc *Encoder, r io.Reader, buf []byte) error {
	for {
		k, rerr := r.Read(buf)
		if k > 0 {
			if _, werr := enc.Write(buf[:k]); werr != nil {
				return &IOError{Op: opWrite, Err: werr}
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return &IOError{Op: opRead, Err: rerr}
		}
	}
	if err := enc.Close(); err != nil {
		return &IOError{Op: opWrite, Err: err}
	}
	return nil
}

// fillPath attaches the relevant file path to path-less errors from encode.
func fillPath(err error, inputPath, outputPath string) {
	for _, e := range multierr.Errors(err) {
		var ioErr *IOError
		if !errors.As(e, &ioErr) || ioErr.Path != "" {
			continue
		}
		if ioErr.Op == opRead {
			ioErr.Path = inputPath
		} else {
			ioErr.Path = outputPath
		}
	}
}

func (e *Embedder) checkFreeSpace(in *os.File, outputPath string) error {
	info, err := in.Stat()
	if err != nil {
		e.logger.Warn("cannot stat input, skipping free space check", zap.Error(err))
		return nil
	}
	need := EstimateSize(info.Size(), e.opts)
	dir := filepath.Dir(outputPath)

	// Truncating in place frees the old artifact first; an atomic rename
	// keeps it until the new one is complete.
	if !e.opts.Atomic {
		if fi, err := os.Stat(outputPath); err == nil && fi.Mode().IsRegular() {
			need -= fi.Size()
			if need < 0 {
				need = 0
			}
		}
	}

	free, err := freeSpace(dir)
	if err != nil {
		e.logger.Warn("cannot query free space, skipping check",
			zap.String("dir", dir), zap.Error(err))
		return nil
	}
	if free < uint64(need) {
		return &IOError{
			Op:   opFreeSpace,
			Path: dir,
			Err:  fmt.Errorf("%w: need %d bytes, %d available", ErrInsufficientSpace, need, free),
		}
	}
	return nil
}
