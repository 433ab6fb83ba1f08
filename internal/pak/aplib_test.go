package pak

import (
	"bytes"
	"errors"
	"testing"
)

// The packed streams below were assembled bit by bit against the format:
// tag bits MSB-first, codes 0 (literal), 10 (gamma match), 110 (short match
// or end marker) and 111 (four-bit offset byte copy).
func TestDepack(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  []byte
		want []byte
	}{
		{
			name: "literals only",
			// 'a' raw, tag 0x30 = literal 'b', literal 'c', end marker
			src:  []byte{'a', 0x30, 'b', 'c', 0x00},
			want: []byte("abc"),
		},
		{
			name: "short match",
			// two literals then twice a 110 match with offset 2, length 2
			src:  []byte{'a', 0x6D, 'b', 0x04, 0x04, 0x80, 0x00},
			want: []byte("ababab"),
		},
		{
			name: "four bit offset copy",
			// three 111 codes each copying one byte from offset 1
			src:  []byte{'a', 0xE3, 0xC7, 0x8E, 0x00},
			want: []byte("aaaa"),
		},
		{
			name: "gamma match",
			// literals 'b','c', then a 10 match with offset 3, length 4
			src:  []byte{'a', 0x28, 'b', 'c', 0x03, 0xC0, 0x00},
			want: []byte("abcabca"),
		},
		{
			name: "repeat offset match",
			// short match sets the offset, a literal lowers lwm, then a
			// gamma code of 2 reuses the previous offset
			src:  []byte{'a', 0x64, 'b', 0x04, 'c', 0x18, 0x00},
			want: []byte("ababcbc"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Depack(tt.src, DepackLimit)
			if err != nil {
				t.Fatalf("Depack: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDepackRoundTripLiterals(t *testing.T) {
	t.Parallel()

	payload := []byte("the quick brown fox jumps over the lazy dog")
	got, err := Depack(packLiterals(payload), DepackLimit)
	if err != nil {
		t.Fatalf("Depack: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("got %q, want %q", got, payload)
	}
}

func TestDepackErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		src   []byte
		limit int
	}{
		{name: "empty input", src: nil, limit: DepackLimit},
		{name: "missing tag", src: []byte{'a'}, limit: DepackLimit},
		{name: "missing end marker", src: []byte{'a', 0x30, 'b', 'c'}, limit: DepackLimit},
		{name: "output over limit", src: []byte{'a', 0x30, 'b', 'c', 0x00}, limit: 2},
		// 110 match with offset 2 when only one byte was produced
		{name: "offset before start", src: []byte{'a', 0xC0, 0x04}, limit: DepackLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Depack(tt.src, tt.limit); !errors.Is(err, ErrCorruptData) {
				t.Fatalf("got %v, want ErrCorruptData", err)
			}
		})
	}
}
