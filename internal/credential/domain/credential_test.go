package domain

import (
	"testing"
	"time"
)

func TestRecord_Live(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	tests := []struct {
		name string
		rec  *Record
		want bool
	}{
		{"nil", nil, false},
		{"active future", &Record{Active: true, ExpiresAt: now.Add(time.Second)}, true},
		{"active exactly now", &Record{Active: true, ExpiresAt: now}, true},
		{"active past", &Record{Active: true, ExpiresAt: now.Add(-time.Second)}, false},
		{"inactive", &Record{Active: false, ExpiresAt: now.Add(time.Hour)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.Live(now); got != tt.want {
				t.Errorf("Live() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClass_Valid(t *testing.T) {
	if !ClassSession.Valid() || !ClassHandoff.Valid() {
		t.Error("known classes should be valid")
	}
	if Class("refresh").Valid() || Class("").Valid() {
		t.Error("unknown classes should be invalid")
	}
}

func TestReason_String(t *testing.T) {
	if ReasonOwnerMismatch.String() != "owner_mismatch" {
		t.Errorf("String() = %q", ReasonOwnerMismatch.String())
	}
	if Reason(99).String() != "unknown" {
		t.Errorf("Reason(99).String() = %q, want unknown", Reason(99).String())
	}
}
