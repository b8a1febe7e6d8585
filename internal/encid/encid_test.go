package encid

import (
	"errors"
	"testing"
	"time"
)

func TestDecodeTimestamp_Valid(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
		want    int64
	}{
		{"bare identifier", "O1699999999000", 1699999999000},
		{"prefixed identifier", "TW:O1699999999000", 1699999999000},
		{"trailing suffix", "O1700000000000:phase2", 1700000000000},
		{"marker appears twice, first digit run wins", "OO1699999999000", 1699999999000},
		{"earlier bare marker skipped", "ONE:O123", 123},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeTimestamp(tt.encoded)
			if err != nil {
				t.Fatalf("DecodeTimestamp(%q) returned error: %v", tt.encoded, err)
			}
			if got != tt.want {
				t.Errorf("DecodeTimestamp(%q) = %d, want %d", tt.encoded, got, tt.want)
			}
		})
	}
}

func TestDecodeTimestamp_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
	}{
		{"empty string", ""},
		{"no marker", "INVALID"},
		{"marker without digits", "O"},
		{"marker followed by letters", "Oabc"},
		{"digits without marker", "1699999999000"},
		{"lowercase marker", "o1699999999000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeTimestamp(tt.encoded)
			if !errors.Is(err, ErrMalformedIdentifier) {
				t.Errorf("DecodeTimestamp(%q) error = %v, want ErrMalformedIdentifier", tt.encoded, err)
			}
		})
	}
}

func TestEventDate_TruncatesToUTCDate(t *testing.T) {
	// 2023-11-14 22:13:20.999 UTC
	ms := int64(1700000000999)
	got := EventDate(ms)
	want := time.Date(2023, time.November, 14, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("EventDate(%d) = %v, want %v", ms, got, want)
	}
}
