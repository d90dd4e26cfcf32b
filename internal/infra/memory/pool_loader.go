package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"adaptive-quiz-service/internal/domain"
	"adaptive-quiz-service/internal/questionpool"
)

// StaticPoolLoader is a loader backed by an in-memory map (useful for tests/demos).
type StaticPoolLoader struct {
	pools map[string][]questionpool.Raw
}

func NewStaticPoolLoader(pools map[string][]questionpool.Raw) *StaticPoolLoader {
	return &StaticPoolLoader{pools: pools}
}

// NewFallbackPoolLoader serves the built-in sample bank as the default pool.
func NewFallbackPoolLoader() *StaticPoolLoader {
	return NewStaticPoolLoader(map[string][]questionpool.Raw{
		"default": questionpool.FallbackRecords(),
	})
}

func (l *StaticPoolLoader) LoadPool(_ context.Context, poolID string) ([]questionpool.Raw, error) {
	if raw, ok := l.pools[poolID]; ok {
		return raw, nil
	}
	return nil, fmt.Errorf("pool %q: %w", poolID, domain.ErrPoolEmpty)
}

// DirPoolLoader reads question datasets from *.json, *.yaml and *.yml files in a directory.
// The pool id "default" concatenates every file; any other id selects the file with that
// base name. Files that fail to parse are logged and skipped.
type DirPoolLoader struct {
	dir    string
	logger *slog.Logger
}

func NewDirPoolLoader(dir string, logger *slog.Logger) *DirPoolLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &DirPoolLoader{dir: dir, logger: logger}
}

func (l *DirPoolLoader) LoadPool(ctx context.Context, poolID string) ([]questionpool.Raw, error) {
	files, err := l.datasetFiles()
	if err != nil {
		return nil, err
	}

	var out []questionpool.Raw
	seen := make(map[string]bool)
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if poolID != "default" && name != poolID {
			continue
		}
		records, err := readDataset(path)
		if err != nil {
			l.logger.Warn("dataset skipped", "file", path, "err", err)
			continue
		}
		for i, record := range records {
			out = append(out, l.uniqueID(record, name, i, seen))
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("pool %q in %s: %w", poolID, l.dir, domain.ErrPoolEmpty)
	}
	return out, nil
}

// uniqueID keeps ids distinct across files. Sessions track answered questions by id, so a
// clash would hide questions. Clashing or missing ids are prefixed with the file base name.
func (l *DirPoolLoader) uniqueID(record questionpool.Raw, name string, index int, seen map[string]bool) questionpool.Raw {
	id := questionpool.RecordID(record)
	if id != "" && !seen[id] {
		seen[id] = true
		return record
	}
	if id == "" {
		id = strconv.Itoa(index + 1)
	}
	candidate := name + ":" + id
	for n := 2; seen[candidate]; n++ {
		candidate = name + ":" + id + "#" + strconv.Itoa(n)
	}
	seen[candidate] = true
	l.logger.Debug("dataset id namespaced", "file", name, "from", questionpool.RecordID(record), "to", candidate)

	renamed := make(questionpool.Raw, len(record)+1)
	for k, v := range record {
		renamed[k] = v
	}
	renamed["id"] = candidate
	return renamed
}

func (l *DirPoolLoader) datasetFiles() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("read dataset dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".json", ".yaml", ".yml":
			files = append(files, filepath.Join(l.dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// readDataset accepts either a bare list of records or an object with a "questions" list.
func readDataset(path string) ([]questionpool.Raw, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc any
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &doc)
	} else {
		err = yaml.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}

	if obj, ok := doc.(map[string]any); ok {
		doc = obj["questions"]
	}
	list, ok := doc.([]any)
	if !ok {
		return nil, fmt.Errorf("decode %s: expected a list of questions", filepath.Base(path))
	}
	out := make([]questionpool.Raw, 0, len(list))
	for _, item := range list {
		if record, ok := item.(map[string]any); ok {
			out = append(out, questionpool.Raw(record))
		}
	}
	return out, nil
}
