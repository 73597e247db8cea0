// Package loader reads configuration templates from YAML files so the
// engine only ever sees parsed Template values, never raw file paths.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goliatone/go-errors"
	experiment "github.com/goliatone/go-experiment"
	"gopkg.in/yaml.v3"
)

const (
	ErrCodePathNotFound = "CONFIG_PATH_NOT_FOUND"
	ErrCodeParseFailed  = "CONFIG_PARSE_FAILED"
)

// LoadTemplates reads templates from a YAML file, or from every .yaml and
// .yml file under a directory (recursive, sorted by path). A document may
// hold a single mapping or a list of mappings; empty documents are
// skipped.
func LoadTemplates(path string) ([]experiment.Template, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, fmt.Sprintf("configuration path %q does not exist", path)).
			WithTextCode(ErrCodePathNotFound)
	}

	if !info.IsDir() {
		return loadFile(path)
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(p)) {
		case ".yaml", ".yml":
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, fmt.Sprintf("walking configuration directory %q failed", path)).
			WithTextCode(ErrCodePathNotFound)
	}
	sort.Strings(files)

	var templates []experiment.Template
	for _, f := range files {
		tpls, err := loadFile(f)
		if err != nil {
			return nil, err
		}
		templates = append(templates, tpls...)
	}
	return templates, nil
}

func loadFile(path string) ([]experiment.Template, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, fmt.Sprintf("reading configuration file %q failed", path)).
			WithTextCode(ErrCodePathNotFound)
	}

	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, fmt.Sprintf("parsing configuration file %q failed", path)).
			WithTextCode(ErrCodeParseFailed)
	}

	switch t := doc.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return []experiment.Template{experiment.Template(t)}, nil
	case []any:
		templates := make([]experiment.Template, 0, len(t))
		for i, item := range t {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, errors.New(fmt.Sprintf("configuration %d in %q must be a mapping, got %T", i, path, item), errors.CategoryValidation).
					WithTextCode(ErrCodeParseFailed)
			}
			templates = append(templates, experiment.Template(m))
		}
		return templates, nil
	default:
		return nil, errors.New(fmt.Sprintf("configuration file %q must contain a mapping or a list of mappings, got %T", path, doc), errors.CategoryValidation).
			WithTextCode(ErrCodeParseFailed)
	}
}

// LoadConfigs loads templates from path and expands them into a
// configuration set in file order.
func LoadConfigs(path string) (experiment.ConfigSet, error) {
	templates, err := LoadTemplates(path)
	if err != nil {
		return nil, err
	}
	return experiment.ExpandAll(templates...)
}
