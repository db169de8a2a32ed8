package handler

import (
	"strings"
	"testing"
)

func TestValidator_Messages(t *testing.T) {
	v := NewValidator()

	cases := []struct {
		name string
		req  registerRequest
		want []string
	}{
		{"missing email", registerRequest{Password: "pass123"}, []string{"email is required"}},
		{"bad email", registerRequest{Email: "nope", Password: "pass123"}, []string{"email must be a valid email"}},
		{"short password", registerRequest{Email: "a@b.com", Password: "12"}, []string{"password must be at least 6 characters"}},
		{"long name", registerRequest{Email: "a@b.com", Password: "pass123", FirstName: strings.Repeat("x", 101)},
			[]string{"firstName must be at most 100 characters"}},
		{"several", registerRequest{}, []string{"email is required", "password is required"}},
	}
	for _, tc := range cases {
		err := v.Validate(&tc.req)
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		for _, w := range tc.want {
			if !strings.Contains(err.Error(), w) {
				t.Fatalf("%s: expected %q in %q", tc.name, w, err.Error())
			}
		}
	}
}

func TestValidator_Valid(t *testing.T) {
	req := registerRequest{Email: "a@b.com", Password: "pass123", Role: "admin"}
	if err := NewValidator().Validate(&req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLowerFirst(t *testing.T) {
	if got := lowerFirst("StationID"); got != "stationID" {
		t.Fatalf("got %q", got)
	}
	if got := lowerFirst(""); got != "" {
		t.Fatalf("got %q", got)
	}
}
