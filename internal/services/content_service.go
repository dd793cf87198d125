package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	filepathx "github.com/yargevad/filepathx"

	"tagnotes/internal/models"
	"tagnotes/internal/utils"
)

// ContentService inspects records already present in the output directory.
type ContentService struct {
	dir string
}

func NewContentService(dir string) *ContentService {
	return &ContentService{dir: dir}
}

// List returns every readable day record under the directory, newest slug
// first. A missing directory yields an empty list.
func (s *ContentService) List() ([]models.DayRecordInfo, error) {
	if !utils.DirectoryExists(s.dir) {
		return []models.DayRecordInfo{}, nil
	}

	matches, err := filepathx.Glob(filepath.Join(s.dir, "**", "*.json"))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", s.dir, err)
	}

	infos := make([]models.DayRecordInfo, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, path := range matches {
		if _, dup := seen[path]; dup {
			continue
		}
		seen[path] = struct{}{}
		rec, err := ReadDayRecord(path)
		if err != nil {
			continue
		}
		infos = append(infos, models.DayRecordInfo{
			Path:       path,
			Slug:       rec.Slug,
			Highlights: len(rec.Highlights),
		})
	}

	sort.SliceStable(infos, func(i, j int) bool {
		if infos[i].Slug != infos[j].Slug {
			return infos[i].Slug > infos[j].Slug
		}
		return infos[i].Path < infos[j].Path
	})
	return infos, nil
}

// ReadDayRecord loads one record and checks it carries a slug.
func ReadDayRecord(path string) (models.DayRecord, error) {
	var rec models.DayRecord
	data, err := os.ReadFile(path)
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("decode %s: %w", path, err)
	}
	if strings.TrimSpace(rec.Slug) == "" {
		return rec, fmt.Errorf("%s has no slug", path)
	}
	return rec, nil
}
