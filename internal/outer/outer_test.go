package outer

import (
	"bytes"
	"embed"
	"io"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

//go:embed testdata
var testdata embed.FS

const tiny = "PVM3\n2 1 1\n1 1 1\n1\n\x0a\x14\x00\x00\x00\x00"

func gzipped(p []byte) []byte {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	w.Write(p)
	w.Close()
	return buf.Bytes()
}

func zstded(p []byte) []byte {
	enc, _ := zstd.NewWriter(nil)
	defer enc.Close()
	return enc.EncodeAll(p, nil)
}

func TestNewReader(t *testing.T) {
	xzFile, err := testdata.ReadFile("testdata/tiny.pvm.xz")
	if err != nil {
		t.Fatal(err)
	}
	bzFile, err := testdata.ReadFile("testdata/tiny.pvm.bz2")
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name string
		file []byte
		kind Kind
	}{
		{"plain", []byte(tiny), None},
		{"gzip", gzipped([]byte(tiny)), Gzip},
		{"zstd", zstded([]byte(tiny)), Zstd},
		{"xz", xzFile, XZ},
		{"bzip2", bzFile, Bzip2},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r, kind, err := NewReader(bytes.NewReader(c.file))
			if err != nil {
				t.Fatal(err)
			}
			defer r.Close()
			if kind != c.kind {
				t.Errorf("sniffed %v, want %v", kind, c.kind)
			}
			got, err := io.ReadAll(r)
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != tiny {
				t.Errorf("got %q", got)
			}
		})
	}
}

func TestShortInput(t *testing.T) {
	for _, s := range []string{"", "P", "\x1f"} {
		r, kind, err := NewReader(bytes.NewReader([]byte(s)))
		if err != nil || kind != None {
			t.Fatalf("%q: kind=%v err=%v", s, kind, err)
		}
		got, _ := io.ReadAll(r)
		if string(got) != s {
			t.Errorf("%q: got %q", s, got)
		}
	}
}

func TestBrokenGzip(t *testing.T) {
	if _, _, err := NewReader(bytes.NewReader([]byte("\x1f\x8bjunk"))); err == nil {
		t.Error("expected an error from a broken gzip header")
	}
}
