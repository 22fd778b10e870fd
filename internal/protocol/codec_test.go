package protocol

import (
	"bytes"
	"compress/gzip"
	"math/rand"
	"testing"
)

func TestCompress_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	random := make([]byte, 100_000)
	rng.Read(random)

	tests := []struct {
		name  string
		input []byte
		level int
	}{
		{"empty", []byte{}, gzip.DefaultCompression},
		{"single byte", []byte{0x7f}, 1},
		{"repetitive", bytes.Repeat([]byte{1, 2, 3}, 40_000), 9},
		{"random", random, gzip.BestSpeed},
		{"no compression", random[:1000], gzip.NoCompression},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compressed, err := Compress(tt.input, tt.level)
			if err != nil {
				t.Fatalf("Compress() error = %v", err)
			}
			got, err := GzipDecompressor{}.Decompress(compressed)
			if err != nil {
				t.Fatalf("Decompress() error = %v", err)
			}
			if !bytes.Equal(got, tt.input) {
				t.Errorf("round trip changed %d bytes into %d bytes", len(tt.input), len(got))
			}
		})
	}
}

func TestCompress_InvalidLevel(t *testing.T) {
	if _, err := Compress([]byte("x"), 42); err == nil {
		t.Error("Compress() with level 42: expected error")
	}
}

func TestGzipDecompressor_ConcatenatedMembers(t *testing.T) {
	a, _ := Compress([]byte("abc"), 1)
	b, _ := Compress([]byte("def"), 1)

	got, err := GzipDecompressor{}.Decompress(append(a, b...))
	if err != nil {
		t.Fatalf("Decompress() error = %v", err)
	}
	if string(got) != "abcdef" {
		t.Errorf("Decompress() = %q, want %q", got, "abcdef")
	}
}

func TestGzipDecompressor_Limit(t *testing.T) {
	payload, _ := Compress(make([]byte, 1024), 9)

	if _, err := (GzipDecompressor{Limit: 1024}).Decompress(payload); err != nil {
		t.Errorf("Decompress() at the limit: error = %v", err)
	}
	if _, err := (GzipDecompressor{Limit: 1023}).Decompress(payload); err == nil {
		t.Error("Decompress() over the limit: expected error")
	}
}

func TestGzipDecompressor_Malformed(t *testing.T) {
	good, _ := Compress(bytes.Repeat([]byte("pixel"), 100), 9)

	tests := []struct {
		name    string
		payload []byte
	}{
		{"empty", nil},
		{"garbage", []byte("not a gzip stream")},
		{"truncated", good[:len(good)/2]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := (GzipDecompressor{}).Decompress(tt.payload); err == nil {
				t.Error("Decompress() expected error")
			}
		})
	}
}
