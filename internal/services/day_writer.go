package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tagnotes/internal/events"
	"tagnotes/internal/models"
	"tagnotes/internal/utils"
)

// AggregateDays groups summaries by tag date. Lines keep processing order and
// each day keeps at most maxPerDay of its earliest lines. Days are returned in
// order of first appearance; days without summaries never produce a record.
func AggregateDays(summaries []models.Summary, maxPerDay int) []models.DayRecord {
	var order []string
	byDate := make(map[string]*models.DayRecord)

	for _, s := range summaries {
		rec, ok := byDate[s.Tag.Date]
		if !ok {
			rec = &models.DayRecord{
				Slug:       s.Tag.Date,
				Title:      DayTitle(s.Tag.Date),
				Date:       s.Tag.Date,
				Highlights: []string{},
			}
			byDate[s.Tag.Date] = rec
			order = append(order, s.Tag.Date)
		}
		if maxPerDay > 0 && len(rec.Highlights) >= maxPerDay {
			continue
		}
		rec.Highlights = append(rec.Highlights, HighlightLine(s.Tag.Name, s.Bullets))
	}

	records := make([]models.DayRecord, 0, len(order))
	for _, date := range order {
		records = append(records, *byDate[date])
	}
	return records
}

// HighlightLine renders one tag as "<tag>: <b1>; <b2>".
func HighlightLine(tagName string, bullets []string) string {
	return tagName + ": " + strings.Join(bullets, "; ")
}

// DayTitle derives the human title from a YYYY-MM-DD date.
func DayTitle(date string) string {
	d, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return "Release notes for " + date
	}
	return "Release notes for " + d.Format("January 2, 2006")
}

// WriteResult reports the outcome for one record.
type WriteResult struct {
	Slug string
	Path string
	Err  error
}

// DayWriter persists day records as <slug>.json in a content directory.
type DayWriter struct {
	dir string
}

func NewDayWriter(dir string) *DayWriter {
	return &DayWriter{dir: dir}
}

// EncodeRecord produces the exact bytes written for a record.
func EncodeRecord(rec models.DayRecord) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write stores every record independently, overwriting same-date files. All
// records are attempted; the returned error joins the individual failures.
func (w *DayWriter) Write(ctx context.Context, records []models.DayRecord) ([]WriteResult, error) {
	if len(records) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure output dir %s: %w", w.dir, err)
	}

	results := make([]WriteResult, 0, len(records))
	var errs []error
	for _, rec := range records {
		res := WriteResult{Slug: rec.Slug, Path: filepath.Join(w.dir, rec.Slug+".json")}
		res.Err = w.writeOne(res.Path, rec)
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("write %s: %w", rec.Slug, res.Err))
			events.Emit(ctx, events.StageWrite, events.NewError(fmt.Sprintf("failed to write %s: %v", res.Path, res.Err)).
				With("slug", rec.Slug))
		} else {
			events.Emit(ctx, events.StageWrite, events.NewSuccess(fmt.Sprintf("wrote %s", res.Path)).
				With("slug", rec.Slug).
				With("highlights", fmt.Sprint(len(rec.Highlights))))
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

func (w *DayWriter) writeOne(path string, rec models.DayRecord) error {
	if rec.Slug == "" || strings.ContainsAny(rec.Slug, `/\`) {
		return fmt.Errorf("invalid slug %q", rec.Slug)
	}
	if len(rec.Highlights) == 0 {
		return fmt.Errorf("record %s has no highlights", rec.Slug)
	}
	data, err := EncodeRecord(rec)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return utils.WriteFileAtomic(path, data, 0o644)
}
