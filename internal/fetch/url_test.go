package fetch

import (
	"strings"
	"testing"

	"github.com/arvos-app/arvos-fetch/internal/domain"
)

func testSession() domain.Session {
	return domain.Session{
		SessionID:        "sess 1",
		Latitude:         48.158,
		Longitude:        11.578,
		CorrectedAzimuth: 90.5,
		Version:          7,
		AugmentsURL:      "http://www.mission-base.com/arvos/augments.php",
	}
}

func TestBuildURLManifestUnchanged(t *testing.T) {
	for _, u := range []string{
		"http://host/augment1.json",
		"http://host/a?b=c.json",
		".json",
	} {
		if got := BuildURL(u, testSession()); got != u {
			t.Fatalf("BuildURL(%q) = %q, want identity", u, got)
		}
	}
}

func TestBuildURLTokenCounts(t *testing.T) {
	for _, u := range []string{
		"http://host/poi.php",
		"http://host/poi.php?x=1",
		"http://host/poi.php#frag",
		"http://host/a.json.bak",
	} {
		got := BuildURL(u, testSession())
		counts := map[string]int{
			"id=": 1, "lat=": 1, "lon=": 1, "azi=": 1, "aut=": 1, "ver=": 2, "plat=Android": 1,
		}
		for token, want := range counts {
			if n := strings.Count(got, token); n != want {
				t.Fatalf("%q: token %q count %d want %d", got, token, n, want)
			}
		}
	}
}

func TestBuildURLMergePolicy(t *testing.T) {
	s := testSession()
	query := "id=sess+1&lat=48.158&lon=11.578&azi=90.5&aut=false&ver=7&ver=7&plat=Android"

	cases := []struct {
		in   string
		want string
	}{
		{"http://host/poi.php", "http://host/poi.php#" + query},
		{"http://host/poi.php?x=1", "http://host/poi.php?" + query + "&x=1"},
		{"http://host/poi.php?x=1?y", "http://host/poi.php?" + query + "&x=1?y"},
		{"http://host/poi.php#a#b", "http://host/poi.php#" + query + "&a#b"},
		{"http://host/poi.php?", "http://host/poi.php?" + query + "&"},
	}
	for _, tc := range cases {
		if got := BuildURL(tc.in, s); got != tc.want {
			t.Fatalf("BuildURL(%q)\n got %q\nwant %q", tc.in, got, tc.want)
		}
	}
}

func TestBuildURLAuthorKey(t *testing.T) {
	s := testSession()
	s.IsAuthor = true
	s.AuthorKey = strings.Repeat("k", 20)

	got := BuildURL(s.AugmentsURL, s)
	if !strings.Contains(got, "akey="+s.AuthorKey) {
		t.Fatalf("expected akey in %q", got)
	}

	s.AuthorKey = strings.Repeat("k", 19)
	if got := BuildURL(s.AugmentsURL, s); strings.Contains(got, "akey=") {
		t.Fatalf("short author key must not be sent: %q", got)
	}

	s.AuthorKey = strings.Repeat("k", 25)
	s.IsAuthor = false
	if got := BuildURL(s.AugmentsURL, s); strings.Contains(got, "akey=") {
		t.Fatalf("non-author must not send akey: %q", got)
	}
}

func TestBuildURLCredentialsOnlyOnAugmentsURL(t *testing.T) {
	s := testSession()
	s.IsAuthor = true
	s.AuthorKey = "author key with spaces & more"
	s.DeveloperKey = "dev/key"

	got := BuildURL(s.AugmentsURL, s)
	if !strings.Contains(got, "&akey=author+key+with+spaces+%26+more") {
		t.Fatalf("author key not encoded: %q", got)
	}
	if !strings.HasSuffix(got, "&dkey=dev%2Fkey") {
		t.Fatalf("developer key missing or not last: %q", got)
	}

	other := BuildURL("http://host/poi.php", s)
	if strings.Contains(other, "akey=") || strings.Contains(other, "dkey=") {
		t.Fatalf("credentials leaked to non-augments url: %q", other)
	}
}

func TestFormatFloatMatchesLegacyCoordinates(t *testing.T) {
	cases := map[float64]string{
		48:        "48.0",
		0:         "0.0",
		-2:        "-2.0",
		48.158:    "48.158",
		-122.4194: "-122.4194",
		0.001:     "0.001",
		0.00001:   "1.0E-5",
		-0.000125: "-1.25E-4",
		12345678:  "1.2345678E7",
		1e7:       "1.0E7",
	}
	for in, want := range cases {
		if got := formatFloat(in); got != want {
			t.Fatalf("formatFloat(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildURLWholeDegreeCoordinates(t *testing.T) {
	s := testSession()
	s.Latitude, s.Longitude, s.CorrectedAzimuth = 48, 11, 0
	got := BuildURL("http://host/poi.php", s)
	if !strings.Contains(got, "&lat=48.0&lon=11.0&azi=0.0&") {
		t.Fatalf("unexpected coordinates in %q", got)
	}
}
