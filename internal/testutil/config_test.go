package testutil

import (
	"testing"
	"time"
)

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("USERDECK_TESTUTIL_SET", "value")

	if got := getEnvOrDefault("USERDECK_TESTUTIL_SET", "fallback"); got != "value" {
		t.Fatalf("getEnvOrDefault = %q, want value", got)
	}
	if got := getEnvOrDefault("USERDECK_TESTUTIL_UNSET", "fallback"); got != "fallback" {
		t.Fatalf("getEnvOrDefault = %q, want fallback", got)
	}
}

func TestEnvBool(t *testing.T) {
	for _, v := range []string{"1", "true", "TRUE", "yes", "y"} {
		t.Setenv("USERDECK_TESTUTIL_BOOL", v)
		if !envBool("USERDECK_TESTUTIL_BOOL") {
			t.Fatalf("envBool(%q) = false", v)
		}
	}
	t.Setenv("USERDECK_TESTUTIL_BOOL", "nope")
	if envBool("USERDECK_TESTUTIL_BOOL") {
		t.Fatalf("envBool(nope) = true")
	}
}

func TestFixedTimeFunc(t *testing.T) {
	ts := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	fn := FixedTimeFunc(ts)
	if !fn().Equal(ts) || !fn().Equal(ts) {
		t.Fatalf("FixedTimeFunc did not return the fixed time")
	}
}

func TestNewUserDefaults(t *testing.T) {
	u := NewUser().WithID("u9").WithAvatar("https://cdn/u9.png").Build()
	if u.ID != "u9" || u.Email != "a@b.com" || u.AvatarURL == "" {
		t.Fatalf("unexpected user: %+v", u)
	}
	recent := RecentFrom(u)
	if len(recent) != 1 || recent[0].ID != "u9" {
		t.Fatalf("unexpected recent: %+v", recent)
	}
}
