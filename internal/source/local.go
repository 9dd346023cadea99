package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

type localConfig struct {
	Dir string `json:"dir"`
}

type localSource struct {
	dir string
}

func init() {
	Register("local", createLocalSource)
}

func createLocalSource(args interface{}) (Source, error) {
	config := &localConfig{}
	if err := decodeConfig(args, config); err != nil {
		return nil, err
	}
	if config.Dir == "" {
		return nil, fmt.Errorf("local source dir is required")
	}
	return &localSource{dir: config.Dir}, nil
}

func (s *localSource) Name() string {
	return "local:" + s.dir
}

func (s *localSource) List(ctx context.Context) ([]Entry, error) {
	_ = ctx
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read source dir %s: %w", s.dir, err)
	}
	var res []Entry
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		res = append(res, Entry{Name: entry.Name(), Size: info.Size()})
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res, nil
}

// Fetch returns the file in place; cleanup is a no-op for local files.
func (s *localSource) Fetch(ctx context.Context, entry Entry) (string, func(), error) {
	_ = ctx
	path := filepath.Join(s.dir, entry.Name)
	if _, err := os.Stat(path); err != nil {
		return "", nil, err
	}
	return path, func() {}, nil
}
