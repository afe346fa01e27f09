package handler

import "testing"

func TestInstanceIDFromCustomID(t *testing.T) {
	cases := []struct {
		customID string
		want     string
	}{
		{"sound_select_menu:abc-123", "abc-123"},
		{"sound_select_menu:", ""},
		{"no_separator", ""},
		{"a:b:c", "b:c"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := InstanceIDFromCustomID(tc.customID); got != tc.want {
			t.Errorf("InstanceIDFromCustomID(%q) = %q, want %q", tc.customID, got, tc.want)
		}
	}
}

func TestCustomIDRoundTrip(t *testing.T) {
	id := CustomID("menu", "instance-1")
	if got := InstanceIDFromCustomID(id); got != "instance-1" {
		t.Errorf("round trip = %q, want instance-1", got)
	}
}
