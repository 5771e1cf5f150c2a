package config

import "testing"

func TestGetEnv(t *testing.T) {
	t.Setenv("CM_TEST_STR", "postgres")
	if got := GetEnv("CM_TEST_STR", "sqlite"); got != "postgres" {
		t.Errorf("GetEnv = %q, want postgres", got)
	}
	if got := GetEnv("CM_TEST_STR_UNSET", "sqlite"); got != "sqlite" {
		t.Errorf("GetEnv default = %q, want sqlite", got)
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("CM_TEST_INT", "12")
	if got := GetEnvInt("CM_TEST_INT", 4); got != 12 {
		t.Errorf("GetEnvInt = %d, want 12", got)
	}
	t.Setenv("CM_TEST_INT_BAD", "twelve")
	if got := GetEnvInt("CM_TEST_INT_BAD", 4); got != 4 {
		t.Errorf("GetEnvInt on bad value = %d, want default 4", got)
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"true", true},
		{"1", true},
		{"yes", true},
		{"on", true},
		{"false", false},
		{"0", false},
		{"no", false},
		{"off", false},
		{"maybe", true}, // unparseable keeps the default
	}
	for _, tt := range tests {
		t.Setenv("CM_TEST_BOOL", tt.value)
		if got := GetEnvBool("CM_TEST_BOOL", true); got != tt.want {
			t.Errorf("GetEnvBool(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
	if got := GetEnvBool("CM_TEST_BOOL_UNSET", false); got != false {
		t.Error("GetEnvBool on unset key must return the default")
	}
}
