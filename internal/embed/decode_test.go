package embed

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []byte
		wantErr bool
	}{
		{"declaration", "const uint8_t g_Buffer[] =\n{\n0x00, 0xff, 0x10\n};", []byte{0x00, 0xff, 0x10}, false},
		{"body only", "{\n0x01, 0x02\n}", []byte{0x01, 0x02}, false},
		{"empty", "const uint8_t g_Buffer[] =\n{\n\n};", []byte{}, false},
		{"wrapped", "{\n0x00, \n0x01\n}", []byte{0x00, 0x01}, false},
		{"upper case", "{0xAB,0XcD}", []byte{0xab, 0xcd}, false},
		{"no braces", "0x00, 0x01", nil, true},
		{"bad digit", "{0xzz}", nil, true},
		{"short token", "{0x1}", nil, true},
		{"trailing separator", "{0x01, }", nil, true},
		{"decimal", "{1, 2}", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(strings.NewReader(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Decode error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrMalformed) {
					t.Errorf("err = %v, want ErrMalformed", err)
				}
				return
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Decode = %x, want %x", got, tt.want)
			}
		})
	}
}

func TestVerify(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, seq(20))
	out := filepath.Join(dir, "Buffer.embed")

	opts := DefaultOptions()
	opts.IncludeDeclaration = false
	if _, err := Embed(in, out, opts); err != nil {
		t.Fatal(err)
	}
	if err := Verify(in, out); err != nil {
		t.Fatalf("Verify = %v, want nil", err)
	}

	if err := os.WriteFile(in, seq(21), 0644); err != nil {
		t.Fatal(err)
	}
	if err := Verify(in, out); !errors.Is(err, ErrMismatch) {
		t.Errorf("Verify = %v, want ErrMismatch", err)
	}
}

func TestEstimateSize(t *testing.T) {
	opts := DefaultOptions()
	frame := int64(len(opts.Prologue()) + len(opts.Epilogue()))

	tests := []struct {
		n    int64
		want int64
	}{
		{0, frame},
		{1, frame + 4},
		{16, frame + 16*4 + 15*2},
		{17, frame + 17*4 + 16*2 + 1},
	}
	for _, tt := range tests {
		if got := EstimateSize(tt.n, opts); got != tt.want {
			t.Errorf("EstimateSize(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}
