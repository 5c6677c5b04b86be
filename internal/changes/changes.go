package changes

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type ChangeType string

const (
	Removed   ChangeType = "removed"
	Condensed ChangeType = "condensed"
	Reordered ChangeType = "reordered"
	Modified  ChangeType = "modified"
	Added     ChangeType = "added"
)

type Importance string

const (
	Low    Importance = "LOW"
	Medium Importance = "MEDIUM"
	High   Importance = "HIGH"
)

// Change is one atomic edit. Reports hold changes by value so a recorded change cannot be
// altered through the report.
type Change struct {
	Type       ChangeType `json:"change_type"`
	Section    string     `json:"section"`
	ItemKey    string     `json:"item_key"`
	Before     string     `json:"before_content"`
	After      string     `json:"after_content"`
	Reason     string     `json:"reason"`
	WordsSaved int        `json:"words_saved"`
	Importance Importance `json:"importance"`
}

type Summary struct {
	TotalChanges     int            `json:"total_changes"`
	ChangesByType    map[string]int `json:"changes_by_type"`
	ChangesBySection map[string]int `json:"changes_by_section"`
	TotalWordsSaved  int            `json:"total_words_saved"`
	Timestamp        string         `json:"timestamp"`
}

// Report accumulates the changes of one optimization run. Summary is derived on demand by
// CalculateSummary and is never updated incrementally.
type Report struct {
	Timestamp string   `json:"timestamp"`
	Summary   *Summary `json:"summary"`
	Changes   []Change `json:"changes"`
}

// NewReport starts an empty report stamped with now.
func NewReport(now time.Time) *Report {
	return &Report{
		Timestamp: now.Format(time.RFC3339),
		Changes:   []Change{},
	}
}

func (r *Report) Add(c Change) {
	r.Changes = append(r.Changes, c)
}

// Extend appends the changes of other in order. No deduplication happens.
func (r *Report) Extend(other *Report) {
	if other == nil {
		return
	}
	r.Changes = append(r.Changes, other.Changes...)
}

func (r *Report) Len() int { return len(r.Changes) }

func (r *Report) CalculateSummary() Summary {
	s := Summary{
		TotalChanges:     len(r.Changes),
		ChangesByType:    map[string]int{},
		ChangesBySection: map[string]int{},
		Timestamp:        r.Timestamp,
	}
	for _, c := range r.Changes {
		s.ChangesByType[string(c.Type)]++
		s.ChangesBySection[c.Section]++
		s.TotalWordsSaved += c.WordsSaved
	}
	r.Summary = &s
	return s
}

// summary returns the computed summary or an empty one if CalculateSummary was never called.
func (r *Report) summary() Summary {
	if r.Summary == nil {
		return Summary{ChangesByType: map[string]int{}, ChangesBySection: map[string]int{}, Timestamp: r.Timestamp}
	}
	return *r.Summary
}

// ToMap returns the persisted document shape {timestamp, summary, changes}.
func (r *Report) ToMap() map[string]any {
	s := r.summary()
	changes := make([]map[string]any, 0, len(r.Changes))
	for _, c := range r.Changes {
		changes = append(changes, map[string]any{
			"change_type":    string(c.Type),
			"section":        c.Section,
			"item_key":       c.ItemKey,
			"before_content": c.Before,
			"after_content":  c.After,
			"reason":         c.Reason,
			"words_saved":    c.WordsSaved,
			"importance":     string(c.Importance),
		})
	}

	summary := map[string]any{}
	if r.Summary != nil {
		summary = map[string]any{
			"total_changes":      s.TotalChanges,
			"changes_by_type":    s.ChangesByType,
			"changes_by_section": s.ChangesBySection,
			"total_words_saved":  s.TotalWordsSaved,
			"timestamp":          s.Timestamp,
		}
	}

	return map[string]any{
		"timestamp": r.Timestamp,
		"summary":   summary,
		"changes":   changes,
	}
}

func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r.ToMap(), "", "  ")
}

// FromJSON rebuilds a report from its JSON form.
func FromJSON(data []byte) (*Report, error) {
	var raw struct {
		Timestamp string          `json:"timestamp"`
		Summary   json.RawMessage `json:"summary"`
		Changes   []Change        `json:"changes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding change report: %w", err)
	}

	r := &Report{Timestamp: raw.Timestamp, Changes: raw.Changes}
	if r.Changes == nil {
		r.Changes = []Change{}
	}

	var s Summary
	if len(raw.Summary) > 0 {
		if err := json.Unmarshal(raw.Summary, &s); err != nil {
			return nil, fmt.Errorf("decoding change report summary: %w", err)
		}
		if s.ChangesByType != nil {
			r.Summary = &s
		}
	}

	return r, nil
}

// Save writes <prefix>_detailed.json, <prefix>_summary.md and <prefix>_summary.txt into dir
// and returns the written paths.
func (r *Report) Save(dir, prefix string) ([]string, error) {
	if r.Summary == nil {
		r.CalculateSummary()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating changes directory %q: %w", dir, err)
	}

	data, err := r.JSON()
	if err != nil {
		return nil, err
	}

	files := []struct {
		name    string
		content []byte
	}{
		{name: prefix + "_detailed.json", content: data},
		{name: prefix + "_summary.md", content: []byte(r.Markdown())},
		{name: prefix + "_summary.txt", content: []byte(r.Text())},
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := os.WriteFile(path, f.content, 0o644); err != nil {
			return paths, fmt.Errorf("writing %q: %w", path, err)
		}
		paths = append(paths, path)
	}

	return paths, nil
}
