package search

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Zuo-Peng/edl-session-search/internal/index"
)

func export(name string, clips []string, markers ...string) string {
	lines := []string{
		"SESSION NAME:\t" + name,
		"SAMPLE RATE:\t48000.000000",
		"BIT DEPTH:\t24-bit",
		"SESSION START TIMECODE:\t01:00:00:00",
		"TIMECODE FORMAT:\t25 Frame",
		"# OF AUDIO TRACKS:\t1",
		"# OF AUDIO CLIPS:\t1",
		"# OF AUDIO FILES:\t1",
		"",
		"",
		"T R A C K  L I S T I N G",
		"TRACK NAME:\tFX",
		"COMMENTS:\t",
		"USER DELAY:\t0 Samples",
		"STATE:\t",
		"CHANNEL\tEVENT\tCLIP NAME\tSTART TIME\tEND TIME\tDURATION\tSTATE",
	}
	for i, c := range clips {
		tc := "01:00:0" + string(rune('0'+i)) + ":00"
		lines = append(lines, strings.Join([]string{"1", string(rune('1' + i)), c, tc, tc, "00:00:00:00", "Unmuted"}, "\t"))
	}
	lines = append(lines, "", "", "M A R K E R S  L I S T I N G", "#\tLOCATION\tTIME REFERENCE\tUNITS\tNAME\tCOMMENTS")
	for i, m := range markers {
		lines = append(lines, strings.Join([]string{string(rune('1' + i)), "01:00:10:00", "480000", "Samples", m, ""}, "\t"))
	}
	return strings.Join(lines, "\n") + "\n"
}

func setup(t *testing.T) *index.DB {
	t.Helper()
	dir := t.TempDir()
	root := filepath.Join(dir, "sessions")
	files := []struct {
		rel, content string
		age          time.Duration
	}{
		{"Car Chase.txt", export("Car Chase", []string{"Tire squeal", "Tire squeal", "Engine rev"}, "Crash"), 48 * time.Hour},
		{"Dinner.txt", export("Dinner", []string{"Cutlery", "厨房 ambience"}, "Door knock"), time.Hour},
	}
	for _, f := range files {
		path := filepath.Join(root, f.rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(f.content), 0o644); err != nil {
			t.Fatal(err)
		}
		when := time.Now().Add(-f.age)
		if err := os.Chtimes(path, when, when); err != nil {
			t.Fatal(err)
		}
	}

	db, err := index.OpenDB(filepath.Join(dir, "edls.db"))
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := index.IndexAll(context.Background(), db, index.Options{
		Roots:      []string{root},
		Extensions: []string{".txt"},
		Workers:    2,
	}); err != nil {
		t.Fatalf("IndexAll: %v", err)
	}
	return db
}

func TestSearchFTS(t *testing.T) {
	db := setup(t)

	results, err := Search(db, Options{Query: "tire"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want the two placements deduplicated to 1: %+v", len(results), results)
	}
	r := results[0]
	if r.SessionKey != "edl:Car Chase" || r.Kind != "event" || r.Label != "Tire squeal" || r.Name != "Car Chase" {
		t.Errorf("result = %+v", r)
	}
	if !strings.Contains(r.Snippet, ">>>Tire<<<") {
		t.Errorf("Snippet = %q", r.Snippet)
	}
	if r.LineNumber != 17 && r.LineNumber != 18 {
		t.Errorf("LineNumber = %d, want one of the two placements", r.LineNumber)
	}
}

func TestSearchFilters(t *testing.T) {
	db := setup(t)

	cases := []struct {
		name string
		opts Options
		want []string // session keys
	}{
		{"kind marker", Options{Query: "door OR crash", Kind: "marker"}, []string{"edl:Car Chase", "edl:Dinner"}},
		{"kind track", Options{Query: "door", Kind: "track"}, nil},
		{"session", Options{Query: "FX", Session: "dinner"}, []string{"edl:Dinner"}},
		{"since", Options{Query: "FX", Since: time.Now().Add(-24 * time.Hour).Format("2006-01-02")}, []string{"edl:Dinner"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			results, err := Search(db, tc.opts)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			got := map[string]bool{}
			for _, r := range results {
				got[r.SessionKey] = true
			}
			if len(got) != len(tc.want) {
				t.Fatalf("sessions = %v, want %v", got, tc.want)
			}
			for _, k := range tc.want {
				if !got[k] {
					t.Errorf("missing %s in %v", k, got)
				}
			}
		})
	}
}

func TestSearchLike(t *testing.T) {
	db := setup(t)

	results, err := Search(db, Options{Query: "厨房"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || !strings.Contains(results[0].Snippet, ">>>厨房<<<") {
		t.Fatalf("CJK results = %+v", results)
	}

	results, err = Search(db, Options{Query: "01:00:10", Kind: "marker"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("timecode results = %+v", results)
	}
	if results[0].SessionKey != "edl:Dinner" {
		t.Errorf("LIKE results should be newest first, got %s", results[0].SessionKey)
	}
	if !strings.Contains(results[0].Snippet, ">>>01:00:10<<<") {
		t.Errorf("Snippet = %q", results[0].Snippet)
	}
}

func TestSearchBadSince(t *testing.T) {
	db := setup(t)
	if _, err := Search(db, Options{Query: "fx", Since: "yesterday"}); err == nil {
		t.Error("expected error for malformed since")
	}
}

func TestListAll(t *testing.T) {
	db := setup(t)

	results, err := ListAll(db, Options{})
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(results) != 2 || results[0].Name != "Dinner" || results[1].Name != "Car Chase" {
		t.Fatalf("ListAll = %+v", results)
	}
	if results[0].EntryID != -1 || results[0].Kind != KindSession || results[0].Location != "01:00:00:00" {
		t.Errorf("session result = %+v", results[0])
	}

	results, err = ListAll(db, Options{Query: "chase"})
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(results) != 1 || results[0].SessionKey != "edl:Car Chase" {
		t.Errorf("filtered = %+v", results)
	}
}

func TestMakeSnippet(t *testing.T) {
	cases := []struct {
		text, query string
		context     int
		want        string
	}{
		{"Door knock", "knock", 10, "Door >>>knock<<<"},
		{"abcdefghij", "zz", 2, "abcd..."},
		{"0123456789 hit 0123456789", "hit", 4, "...789 >>>hit<<< 012..."},
		{"Tür KNOCK", "knock", 10, "Tür >>>KNOCK<<<"},
	}
	for _, tc := range cases {
		if got := makeSnippet(tc.text, tc.query, tc.context); got != tc.want {
			t.Errorf("makeSnippet(%q, %q) = %q, want %q", tc.text, tc.query, got, tc.want)
		}
	}
}
