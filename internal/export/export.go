// Package export renders the lead store as the interchange files the
// dashboard reads. Identical input produces identical bytes.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"leadscout-engine/internal/domain"
)

// Record is one lead as written to leads.json. Field order is the output
// order.
type Record struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	SourceURL    string   `json:"source_url"`
	Agency       string   `json:"agency"`
	ClosingDate  string   `json:"closing_date"`
	RawText      string   `json:"raw_text"`
	Score        float64  `json:"score"`
	Tags         []string `json:"tags"`
	Origin       string   `json:"origin"`
	Status       string   `json:"status"`
	DiscoveredAt string   `json:"discovered_at"`
	LastSeenAt   string   `json:"last_seen_at"`
}

var csvHeader = []string{
	"Job_Title", "Source_URL", "Score", "Source_Platform", "Closing_Date",
	"Agency", "Screened_At", "Tags", "Status",
}

// Records sorts a copy of leads into output order (score descending, then
// id) and drops anything rejected.
func Records(leads []domain.Lead) []Record {
	ls := make([]domain.Lead, 0, len(leads))
	for _, l := range leads {
		if l.Status != domain.StatusRejected {
			ls = append(ls, l)
		}
	}
	sort.SliceStable(ls, func(i, j int) bool {
		if ls[i].Score != ls[j].Score {
			return ls[i].Score > ls[j].Score
		}
		return ls[i].ID < ls[j].ID
	})

	out := make([]Record, len(ls))
	for i, l := range ls {
		out[i] = RecordOf(l)
	}
	return out
}

// RecordOf converts one lead regardless of status.
func RecordOf(l domain.Lead) Record {
	tags := l.Tags
	if tags == nil {
		tags = []string{}
	}
	return Record{
		ID:           l.ID,
		Title:        l.Title,
		SourceURL:    l.URL,
		Agency:       l.Agency,
		ClosingDate:  l.ClosingDate,
		RawText:      l.Excerpt,
		Score:        l.Score,
		Tags:         tags,
		Origin:       l.Origin,
		Status:       string(l.Status),
		DiscoveredAt: stamp(l.FirstSeen),
		LastSeenAt:   stamp(l.LastSeen),
	}
}

// WriteJSON writes the records as an indented array with a trailing newline.
func WriteJSON(w io.Writer, leads []domain.Lead) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(Records(leads))
}

// WriteCSV writes the spreadsheet variant.
func WriteCSV(w io.Writer, leads []domain.Lead) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range Records(leads) {
		row := []string{
			r.Title,
			r.SourceURL,
			strconv.FormatFloat(r.Score, 'f', 1, 64),
			r.Origin,
			r.ClosingDate,
			r.Agency,
			r.DiscoveredAt,
			strings.Join(r.Tags, "; "),
			r.Status,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Files are the paths one WriteFiles call produced.
type Files struct {
	JSON string `json:"json"`
	CSV  string `json:"csv"`
}

// WriteFiles writes both formats into dir, each replaced atomically.
func WriteFiles(dir, jsonName, csvName string, leads []domain.Lead) (Files, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Files{}, err
	}
	out := Files{
		JSON: filepath.Join(dir, jsonName),
		CSV:  filepath.Join(dir, csvName),
	}

	var jb, cb bytes.Buffer
	if err := WriteJSON(&jb, leads); err != nil {
		return Files{}, err
	}
	if err := WriteCSV(&cb, leads); err != nil {
		return Files{}, err
	}
	if err := WriteFileAtomic(out.JSON, jb.Bytes()); err != nil {
		return Files{}, err
	}
	if err := WriteFileAtomic(out.CSV, cb.Bytes()); err != nil {
		return Files{}, err
	}
	return out, nil
}

// WriteFileAtomic writes data next to path and renames it into place, so a
// reader sees either the old file or the new one.
func WriteFileAtomic(path string, data []byte) error {
	tmp := path + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
