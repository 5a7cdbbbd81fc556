package sip_test

import (
	"errors"
	"testing"
	"time"

	"sip-go/internal/sip"
)

func TestAddDays(t *testing.T) {
	tests := []struct {
		date string
		n    int
		want string
	}{
		{"2024-01-15", -1, "2024-01-14"},
		{"2024-03-01", -1, "2024-02-29"},
		{"2023-12-31", 1, "2024-01-01"},
		{"2024-01-15", 0, "2024-01-15"},
	}
	for _, tt := range tests {
		got, err := sip.AddDays(tt.date, tt.n)
		if err != nil {
			t.Fatalf("AddDays(%s, %d) error = %v", tt.date, tt.n, err)
		}
		if got != tt.want {
			t.Errorf("AddDays(%s, %d) = %s, want %s", tt.date, tt.n, got, tt.want)
		}
	}

	if _, err := sip.AddDays("2024-02-30", 1); !errors.Is(err, sip.ErrMalformedDate) {
		t.Errorf("AddDays(invalid) error = %v, want ErrMalformedDate", err)
	}
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 1, 10, 8, 15, 0, 0, time.UTC)

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"rfc3339", "2024-01-10T08:15:00Z", false},
		{"rfc3339 with offset", "2024-01-10T10:15:00+02:00", false},
		{"zone-less", "2024-01-10T08:15:00", false},
		{"space separated", "2024-01-10 08:15:00", false},
		{"minutes only", "2024-01-10T08:15", false},
		{"fractional seconds", "2024-01-10T08:15:00.000Z", false},
		{"date only", "2024-01-10", true},
		{"garbage", "soon", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sip.ParseTimestamp(tt.input)
			if tt.wantErr {
				if !errors.Is(err, sip.ErrMalformedDate) {
					t.Errorf("ParseTimestamp(%q) error = %v, want ErrMalformedDate", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTimestamp(%q) error = %v", tt.input, err)
			}
			if !got.Equal(want) {
				t.Errorf("ParseTimestamp(%q) = %v, want %v", tt.input, got, want)
			}
		})
	}
}
