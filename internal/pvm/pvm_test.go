package pvm

import (
	"bytes"
	"errors"
	"testing"
)

func cat(parts ...string) []byte {
	var b []byte
	for _, p := range parts {
		b = append(b, p...)
	}
	return b
}

func TestGeneration1(t *testing.T) {
	file := cat("PVM\n# made by hand\n#\n2 3 4\n1\n", string(bytes.Repeat([]byte{7}, 24)))
	v, err := Parse(file, false)
	if err != nil {
		t.Fatal(err)
	}
	if v.Generation != 1 || v.Width != 2 || v.Height != 3 || v.Depth != 4 || v.Components != 1 {
		t.Errorf("got %+v", v)
	}
	if v.Scale != [3]float32{1, 1, 1} {
		t.Errorf("implicit scale should be 1, got %v", v.Scale)
	}
	if len(v.Data) != 24 || v.Voxels() != 24 {
		t.Errorf("payload is %d bytes", len(v.Data))
	}
	if v.Description != nil || v.Courtesy != nil || v.Parameter != nil || v.Comment != nil {
		t.Error("generation 1 has no text fields")
	}
}

func TestTruncatedPayload(t *testing.T) {
	for _, file := range [][]byte{
		cat("PVM\n2 2 2\n1\n", "1234567"),
		cat("PVM2\n2 2 2\n1 1 1\n1\n", "1234567"),
		cat("PVM3\n2 2 2\n1 1 1\n1\n", "1234567"),
	} {
		v, err := Parse(file, false)
		if !errors.Is(err, ErrCorrupt) || v != nil {
			t.Errorf("%q: got %v, %v", file, v, err)
		}
	}
}

func TestExcessPayload(t *testing.T) {
	_, err := Parse(cat("PVM2\n1 1 1\n1 1 1\n1\n", "ab"), false)
	if !errors.Is(err, ErrCorrupt) {
		t.Errorf("trailing byte accepted: %v", err)
	}
}

func TestGeneration3Empty(t *testing.T) {
	file := cat("PVM3\n2 1 1\n1 1 1\n1\n", "\x0a\x14", "\x00\x00\x00\x00")
	v, err := Parse(file, false)
	if err != nil {
		t.Fatal(err)
	}
	if v.Width != 2 || v.Height != 1 || v.Depth != 1 || v.Components != 1 {
		t.Errorf("got %dx%dx%d/%d", v.Width, v.Height, v.Depth, v.Components)
	}
	if !bytes.Equal(v.Data, []byte{10, 20}) {
		t.Errorf("payload %v", v.Data)
	}
	if v.Description != nil || v.Courtesy != nil || v.Parameter != nil || v.Comment != nil {
		t.Error("empty fields should be absent")
	}
}

func TestGeneration3Fields(t *testing.T) {
	file := cat("PVM3\n1 1 2\n0.5 0.5 1.25\n1\n", "\xff\x00", "Head CT\x00", "\x00", "window 40/400\x00", "none\x00")
	v, err := Parse(file, false)
	if err != nil {
		t.Fatal(err)
	}
	if v.Scale != [3]float32{0.5, 0.5, 1.25} {
		t.Errorf("scale %v", v.Scale)
	}
	if !bytes.Equal(v.Data, []byte{0xff, 0}) {
		t.Errorf("payload %v", v.Data)
	}
	if string(v.Description) != "Head CT" || v.Courtesy != nil ||
		string(v.Parameter) != "window 40/400" || string(v.Comment) != "none" {
		t.Errorf("fields %q %q %q %q", v.Description, v.Courtesy, v.Parameter, v.Comment)
	}

	// appending to a view must not clobber the next field
	_ = append(v.Description, 'X')
	if string(v.Parameter) != "window 40/400" {
		t.Error("views share capacity")
	}
}

func TestGeneration3Unterminated(t *testing.T) {
	file := cat("PVM3\n1 1 1\n1 1 1\n1\n", "\x05", "a\x00b\x00c\x00d")
	if _, err := Parse(file, false); !errors.Is(err, ErrCorrupt) {
		t.Errorf("got %v", err)
	}
}

func TestDoesNotAlias(t *testing.T) {
	file := cat("PVM\n1 1 1\n1\n", "\x2a")
	v, err := Parse(file, false)
	if err != nil {
		t.Fatal(err)
	}
	file[len(file)-1] = 0
	if v.Data[0] != 0x2a {
		t.Error("payload aliases the input")
	}
}

func TestComponents(t *testing.T) {
	file := cat("PVM2\n1 1 1\n1 1 1\n3\n", "rgb")
	if _, err := Parse(file, false); !errors.Is(err, ErrCorrupt) {
		t.Errorf("multi-component accepted without asking: %v", err)
	}
	v, err := Parse(file, true)
	if err != nil {
		t.Fatal(err)
	}
	if v.Components != 3 || string(v.Data) != "rgb" || v.Size() != 3 || v.Voxels() != 1 {
		t.Errorf("got %d components %q", v.Components, v.Data)
	}
}

func TestNotPVM(t *testing.T) {
	for _, file := range []string{"", "PVM\n", "PVM4\n1 1 1\n", "DDS v3d\n", "pvm\n1 1 1\n1\nx", "P6\n1 1\n255\n"} {
		if _, err := Parse([]byte(file), false); !errors.Is(err, ErrFormat) {
			t.Errorf("%q: got %v", file, err)
		}
	}
}

func TestBadHeaders(t *testing.T) {
	cases := []string{
		"PVM\n0 1 1\n1\n",
		"PVM\n1 1\n1\nx",
		"PVM\n1 1 1\n0\n",
		"PVM\n1 1 1\n1",
		"PVM\n# no end",
		"PVM\nx 1 1\n1\nx",
		"PVM2\n1 1 1\n1 0 1\n1\nx",
		"PVM2\n1 1 1\n1 -1 1\n1\nx",
		"PVM2\n1 1 1\n1 nan 1\n1\nx",
		"PVM2\n1 1 1\ninf 1 1\n1\nx",
		"PVM2\n1 1 1\n1 1 +Inf\n1\nx",
		"PVM2\n1 1 1\n1 1 1e39\n1\nx",
		"PVM2\n1 1 1\n1 1\n1\nx",
		"PVM3\n1 1 1\n1\nx\x00\x00\x00\x00",
		"PVM3\n99999 99999 99999\n1 1 1\n9999\nx",
	}
	for _, c := range cases {
		v, err := Parse([]byte(c), true)
		if !errors.Is(err, ErrCorrupt) || v != nil {
			t.Errorf("%q: got %v", c, err)
		}
	}

	var se *SyntaxError
	_, err := Parse([]byte("PVM2\n1 1 1\n1 0 1\n1\nx"), false)
	if !errors.As(err, &se) || se.Offset != 11 {
		t.Errorf("expected a SyntaxError at byte 11, got %v", err)
	}
}
