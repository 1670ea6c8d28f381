//go:build !windows

package embed

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/sys/unix"
)

func withUmask(t *testing.T, mask int) {
	t.Helper()
	old := unix.Umask(mask)
	t.Cleanup(func() { unix.Umask(old) })
}

func fileMode(t *testing.T, path string) os.FileMode {
	t.Helper()
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	return fi.Mode().Perm()
}

func TestEmbed_AtomicModeMatchesDirect(t *testing.T) {
	for _, mask := range []int{0o077, 0o022, 0o002} {
		withUmask(t, mask)
		dir := t.TempDir()
		in := writeInput(t, dir, seq(8))
		direct := filepath.Join(dir, "direct.embed")
		atomic := filepath.Join(dir, "atomic.embed")

		if _, err := Embed(in, direct, DefaultOptions()); err != nil {
			t.Fatal(err)
		}
		opts := DefaultOptions()
		opts.Atomic = true
		if _, err := Embed(in, atomic, opts); err != nil {
			t.Fatal(err)
		}

		want := os.FileMode(0o666) &^ os.FileMode(mask)
		if got := fileMode(t, direct); got != want {
			t.Errorf("umask %o: direct mode = %v, want %v", mask, got, want)
		}
		if got := fileMode(t, atomic); got != want {
			t.Errorf("umask %o: atomic mode = %v, want %v", mask, got, want)
		}
	}
}

func TestEmbed_AtomicKeepsExistingMode(t *testing.T) {
	withUmask(t, 0o022)
	dir := t.TempDir()
	in := writeInput(t, dir, seq(8))
	out := filepath.Join(dir, "Buffer.embed")
	if err := os.WriteFile(out, []byte("old"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(out, 0o600); err != nil {
		t.Fatal(err)
	}

	opts := DefaultOptions()
	opts.Atomic = true
	if _, err := Embed(in, out, opts); err != nil {
		t.Fatal(err)
	}
	if got := fileMode(t, out); got != 0o600 {
		t.Errorf("mode = %v, want existing -rw-------", got)
	}
	if err := Verify(in, out); err != nil {
		t.Errorf("Verify: %v", err)
	}
}
