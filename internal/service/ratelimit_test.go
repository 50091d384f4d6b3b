package service_test

import (
	"testing"

	"github.com/msomdec/recruit-dashboard/internal/service"
)

func TestTokenBucket(t *testing.T) {
	tests := []struct {
		name     string
		rate     float64
		capacity float64
		keys     []string
		want     []bool
	}{
		{
			name: "allows up to capacity", rate: 1, capacity: 3,
			keys: []string{"10.0.0.1", "10.0.0.1", "10.0.0.1", "10.0.0.1"},
			want: []bool{true, true, true, false},
		},
		{
			name: "keys are independent", rate: 1, capacity: 1,
			keys: []string{"10.0.0.1", "10.0.0.1", "10.0.0.2"},
			want: []bool{true, false, true},
		},
		{
			name: "zero rate never refills", rate: 0, capacity: 2,
			keys: []string{"k", "k", "k"},
			want: []bool{true, true, false},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tb := service.NewTokenBucket(tt.rate, tt.capacity)
			t.Cleanup(tb.Stop)

			for i, key := range tt.keys {
				if got := tb.Allow(key); got != tt.want[i] {
					t.Fatalf("request %d for %s: got %v, want %v", i+1, key, got, tt.want[i])
				}
			}
		})
	}
}

func TestTokenBucket_StopIsIdempotent(t *testing.T) {
	tb := service.NewTokenBucket(1, 1)
	tb.Stop()
	tb.Stop()
}
