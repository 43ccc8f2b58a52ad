package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"leadscout-engine/internal/domain"
)

func sample() []domain.Lead {
	seen := time.Date(2026, 10, 1, 14, 30, 0, 0, time.FixedZone("EDT", -4*3600))
	return []domain.Lead{
		{ID: "url:https://b.example/1", Title: "Sod job", URL: "https://b.example/1", Score: 61.2, Tags: []string{"sod"},
			Origin: "reddit", Status: domain.StatusActive, FirstSeen: seen, LastSeen: seen},
		{ID: "url:https://a.example/1", Title: "Pavers, patio", URL: "https://a.example/1", Score: 61.2,
			Origin: "craigslist", Status: domain.StatusStale, FirstSeen: seen, LastSeen: seen},
		{ID: "fp:00ff", Title: "Grounds maintenance ITB", Agency: "Broward County", ClosingDate: "2026-11-03",
			Score: 80, Tags: []string{"landscaping", "irrigation"}, Origin: "broward", Status: domain.StatusActive,
			FirstSeen: seen, LastSeen: seen},
		{ID: "fp:rej", Title: "rejected", Score: 99, Status: domain.StatusRejected, FirstSeen: seen, LastSeen: seen},
	}
}

func TestRecordsOrder(t *testing.T) {
	rs := Records(sample())
	want := []string{"fp:00ff", "url:https://a.example/1", "url:https://b.example/1"}
	if len(rs) != len(want) {
		t.Fatalf("got %d records, want %d", len(rs), len(want))
	}
	for i, id := range want {
		if rs[i].ID != id {
			t.Errorf("position %d = %s, want %s", i, rs[i].ID, id)
		}
	}
	if rs[1].Tags == nil {
		t.Error("nil tags should render as []")
	}
	if rs[0].DiscoveredAt != "2026-10-01T18:30:00Z" {
		t.Errorf("discovered_at = %s", rs[0].DiscoveredAt)
	}
}

func TestWriteJSONStable(t *testing.T) {
	var a, b bytes.Buffer
	if err := WriteJSON(&a, sample()); err != nil {
		t.Fatal(err)
	}
	shuffled := sample()
	shuffled[0], shuffled[2] = shuffled[2], shuffled[0]
	if err := WriteJSON(&b, shuffled); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Fatal("output depends on input order")
	}

	out := a.String()
	if !strings.HasSuffix(out, "]\n") {
		t.Error("missing trailing newline")
	}
	fields := []string{`"id"`, `"title"`, `"source_url"`, `"agency"`, `"closing_date"`, `"raw_text"`,
		`"score"`, `"tags"`, `"origin"`, `"status"`, `"discovered_at"`, `"last_seen_at"`}
	first := out[:strings.Index(out, "},")]
	prev := -1
	for _, f := range fields {
		i := strings.Index(first, f)
		if i <= prev {
			t.Fatalf("field %s out of order", f)
		}
		prev = i
	}

	var back []Record
	if err := json.Unmarshal(a.Bytes(), &back); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sample()); err != nil {
		t.Fatal(err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("rows = %d", len(rows))
	}
	if strings.Join(rows[0], ",") != "Job_Title,Source_URL,Score,Source_Platform,Closing_Date,Agency,Screened_At,Tags,Status" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][2] != "80.0" || rows[1][7] != "landscaping; irrigation" || rows[1][5] != "Broward County" {
		t.Errorf("first row = %v", rows[1])
	}
	if rows[2][0] != "Pavers, patio" {
		t.Errorf("comma in title not preserved: %v", rows[2])
	}
}

func TestWriteFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	files, err := WriteFiles(dir, "leads.json", "leads.csv", sample())
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{files.JSON, files.CSV} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("missing %s: %v", p, err)
		}
		if _, err := os.Stat(p + ".part"); !os.IsNotExist(err) {
			t.Errorf("temp file left behind for %s", p)
		}
	}

	first, _ := os.ReadFile(files.JSON)
	if _, err := WriteFiles(dir, "leads.json", "leads.csv", sample()); err != nil {
		t.Fatal(err)
	}
	second, _ := os.ReadFile(files.JSON)
	if !bytes.Equal(first, second) {
		t.Error("rewrite changed bytes")
	}
}
