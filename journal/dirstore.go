package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rustyeddy/propcheck/config"
)

// DirStore keeps one JSON file per template in Dir, named after the
// template. Names may be given with or without the ".json" suffix.
type DirStore struct {
	Dir string
}

func (d DirStore) path(name string) (string, error) {
	name = strings.TrimSuffix(strings.TrimSpace(name), ".json")
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid template name %q", name)
	}
	return filepath.Join(d.Dir, name+".json"), nil
}

func (d DirStore) LoadTemplate(_ context.Context, name string) (config.Template, error) {
	p, err := d.path(name)
	if err != nil {
		return config.Template{}, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return config.Template{}, fmt.Errorf("template %q: %w", name, ErrNotFound)
		}
		return config.Template{}, fmt.Errorf("read template: %w", err)
	}

	var tpl config.Template
	if err := json.Unmarshal(data, &tpl); err != nil {
		return config.Template{}, fmt.Errorf("decode template %q: %w", name, err)
	}
	return tpl, nil
}

func (d DirStore) SaveTemplate(_ context.Context, name string, tpl config.Template) error {
	p, err := d.path(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return fmt.Errorf("create template dir: %w", err)
	}

	data, err := json.MarshalIndent(tpl, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal template %q: %w", name, err)
	}
	if err := os.WriteFile(p, data, 0644); err != nil {
		return fmt.Errorf("write template: %w", err)
	}
	return nil
}

func (d DirStore) ListTemplates(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(d.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list templates: %w", err)
	}

	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		out = append(out, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(out)
	return out, nil
}
