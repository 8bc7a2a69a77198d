package secret

import (
	"errors"
	"testing"
)

func TestExpandEnvStrict(t *testing.T) {
	t.Setenv("TELEMETRY_X", "y")
	t.Setenv("TELEMETRY_EMPTY", "")

	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"${TELEMETRY_X}", "y"},
		{"$TELEMETRY_X/path", "y/path"},
		{"a-$TELEMETRY_UNSET_BARE-b", "a--b"},
		{"${TELEMETRY_EMPTY}", ""},
		{"$$${TELEMETRY_X}", "$y"},
		{"cost: $5", "cost: $5"},
		{"trailing $", "trailing $"},
		{"${not closed", "${not closed"},
		{"${}", "${}"},
	}
	for _, tt := range tests {
		got, err := ExpandEnvStrict(tt.in)
		if err != nil {
			t.Errorf("ExpandEnvStrict(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ExpandEnvStrict(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExpandEnvStrict_MissingVars(t *testing.T) {
	t.Setenv("TELEMETRY_PRESENT", "ok")

	_, err := ExpandEnvStrict("${TELEMETRY_ZZ} ${TELEMETRY_PRESENT} ${TELEMETRY_AA} ${TELEMETRY_ZZ}")
	if !errors.Is(err, ErrMissingEnv) {
		t.Fatalf("error = %v, want ErrMissingEnv", err)
	}
	want := "secret: missing required environment variables: TELEMETRY_AA, TELEMETRY_ZZ"
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err, want)
	}
}
