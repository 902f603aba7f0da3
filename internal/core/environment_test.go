package core

import "testing"

func TestParseEnvironment(t *testing.T) {
	tests := []struct {
		in   string
		want Environment
	}{
		{"production", Production},
		{" PROD ", Production},
		{"test", Testing},
		{"testing", Testing},
		{"", Development},
		{"staging", Development},
	}
	for _, tt := range tests {
		if got := ParseEnvironment(tt.in); got != tt.want {
			t.Errorf("ParseEnvironment(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if !Production.IsProduction() || Development.IsProduction() {
		t.Error("IsProduction mismatch")
	}
}
