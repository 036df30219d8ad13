package redis

import (
	"testing"

	"github.com/redis/go-redis/v9"
)

func TestTallyKey(t *testing.T) {
	if got, want := tallyKey(42), "focus:session:42:tally"; got != want {
		t.Errorf("tallyKey(42) = %q, want %q", got, want)
	}
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		name    string
		in      interface{}
		want    int64
		wantErr bool
	}{
		{"missing field", nil, 0, false},
		{"number", "17", 17, false},
		{"not a number", "x", 0, true},
		{"wrong type", 3, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCount(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseCount(%v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(redis.Nil) {
		t.Error("redis.Nil should count as not found")
	}
	if IsNotFound(nil) {
		t.Error("nil should not count as not found")
	}
}
