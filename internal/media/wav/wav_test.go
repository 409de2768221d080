package wav_test

import (
	"bytes"
	"testing"

	"storyforge/internal/media/wav"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	samples := []int16{0, 100, -100, 32767, -32768, 42}
	var buf bytes.Buffer
	if err := wav.Encode(&buf, 24000, samples); err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}

	rate, decoded, err := wav.Decode(&buf)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if rate != 24000 {
		t.Fatalf("unexpected sample rate %d", rate)
	}
	if len(decoded) != len(samples) {
		t.Fatalf("expected %d samples, got %d", len(samples), len(decoded))
	}
	for i, s := range samples {
		if decoded[i] != s {
			t.Fatalf("sample %d: got %d want %d", i, decoded[i], s)
		}
	}
}

func TestDecodeRejectsNonRIFF(t *testing.T) {
	if _, _, err := wav.Decode(bytes.NewReader([]byte("not a wave file at all"))); err == nil {
		t.Fatal("expected error for non-RIFF input")
	}
}

func TestDecodeSkipsUnknownChunks(t *testing.T) {
	samples := []int16{1, 2, 3}
	var buf bytes.Buffer
	if err := wav.Encode(&buf, 8000, samples); err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	// Splice a LIST chunk between fmt and data.
	raw := buf.Bytes()
	var spliced bytes.Buffer
	spliced.Write(raw[:36])
	spliced.Write([]byte{'L', 'I', 'S', 'T', 4, 0, 0, 0, 'I', 'N', 'F', 'O'})
	spliced.Write(raw[36:])

	rate, decoded, err := wav.Decode(&spliced)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if rate != 8000 || len(decoded) != 3 {
		t.Fatalf("unexpected result rate=%d n=%d", rate, len(decoded))
	}
}

func TestEncodeRejectsInvalidRate(t *testing.T) {
	if err := wav.Encode(&bytes.Buffer{}, 0, nil); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
}
