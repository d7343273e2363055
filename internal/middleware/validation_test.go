package middleware

import (
	"strings"
	"testing"
	"time"
)

func TestValidateVideoID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"valid id", "dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"trims whitespace", "  dQw4w9WgXcQ  ", "dQw4w9WgXcQ", false},
		{"dash and underscore", "a-b_c123", "a-b_c123", false},
		{"empty", "", "", true},
		{"too long", strings.Repeat("a", 17), "", true},
		{"invalid characters", "abc$123", "", true},
		{"sql injection attempt", "'; DROP TABLE--", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errMsg := ValidateVideoID(tt.input)
			if (errMsg != "") != tt.wantErr {
				t.Errorf("error = %q, wantErr %v", errMsg, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("id = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateRange(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)

	keyword, from, errMsg := ValidateRange("", now)
	if errMsg != "" {
		t.Fatalf("unexpected error: %s", errMsg)
	}
	if keyword != "today" {
		t.Errorf("keyword = %q, want today", keyword)
	}
	if !from.Equal(time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("from = %v, want start of day", from)
	}

	keyword, from, errMsg = ValidateRange("7D", now)
	if errMsg != "" {
		t.Fatalf("unexpected error: %s", errMsg)
	}
	if keyword != "7d" {
		t.Errorf("keyword = %q, want 7d", keyword)
	}
	if !from.Equal(now.Add(-7 * 24 * time.Hour)) {
		t.Errorf("from = %v, want 7 days back", from)
	}

	for _, bad := range []string{"1y", "90d", "yesterday"} {
		if _, _, errMsg := ValidateRange(bad, now); errMsg == "" {
			t.Errorf("range %q accepted, want rejection", bad)
		}
	}
}

func TestValidatePoints(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"", DefaultPoints, false},
		{"500", 500, false},
		{"2", 2, false},
		{"999999", MaxPoints, false},
		{"0", 0, true},
		{"1", 0, true},
		{"-5", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		got, errMsg := ValidatePoints(tt.input)
		if (errMsg != "") != tt.wantErr {
			t.Errorf("ValidatePoints(%q) error = %q, wantErr %v", tt.input, errMsg, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ValidatePoints(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestSanitizePath(t *testing.T) {
	tests := []struct{ in, want string }{
		{"/api/broadcasts/dQw4w9WgXcQ/metrics", "/api/broadcasts/:videoId/metrics"},
		{"/api/broadcasts/abc123/changes", "/api/broadcasts/:videoId/changes"},
		{"/api/stats", "/api/stats"},
		{"/health/live", "/health/live"},
	}
	for _, tt := range tests {
		if got := sanitizePath(tt.in); got != tt.want {
			t.Errorf("sanitizePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
