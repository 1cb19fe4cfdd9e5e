package config

import "testing"

func TestIntFromEnv_Default(t *testing.T) {
	t.Setenv("TEST_INT_UNSET", "")
	if got := intFromEnv("TEST_INT_UNSET", 42); got != 42 {
		t.Errorf("intFromEnv() = %d, want 42", got)
	}
}

func TestIntFromEnv_Parsed(t *testing.T) {
	t.Setenv("TEST_INT_SET", "7")
	if got := intFromEnv("TEST_INT_SET", 42); got != 7 {
		t.Errorf("intFromEnv() = %d, want 7", got)
	}
}

func TestIntFromEnv_InvalidFallsBackToDefault(t *testing.T) {
	t.Setenv("TEST_INT_BAD", "not-a-number")
	if got := intFromEnv("TEST_INT_BAD", 42); got != 42 {
		t.Errorf("intFromEnv() = %d, want default 42 on parse failure", got)
	}
}

func TestBoolFromEnv(t *testing.T) {
	tests := []struct {
		val  string
		def  bool
		want bool
	}{
		{"true", false, true},
		{"1", false, true},
		{"false", true, false},
		{"0", true, false},
		{"garbage", true, true},
	}
	for _, tt := range tests {
		t.Setenv("TEST_BOOL", tt.val)
		if got := boolFromEnv("TEST_BOOL", tt.def); got != tt.want {
			t.Errorf("boolFromEnv(%q) = %v, want %v", tt.val, got, tt.want)
		}
	}
}

func TestSplitCSV(t *testing.T) {
	got := splitCSV("a,b,,c")
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("splitCSV() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("splitCSV()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
