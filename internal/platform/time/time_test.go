package time

import (
	"testing"
)

func TestLoadLocation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "UTC", false},
		{"UTC", "UTC", false},
		{"Europe/Berlin", "Europe/Berlin", false},
		{" Asia/Tokyo ", "Asia/Tokyo", false},
		{"Mars/Olympus", "", true},
	}
	for _, tc := range cases {
		loc, err := LoadLocation(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: %v", tc.in, err)
		}
		if loc.String() != tc.want {
			t.Fatalf("%q: got %s want %s", tc.in, loc, tc.want)
		}
	}

	// second lookup is served from the cache and returns the same pointer
	a, _ := LoadLocation("Europe/Berlin")
	b, _ := LoadLocation("Europe/Berlin")
	if a != b {
		t.Fatalf("expected cached location")
	}
}
