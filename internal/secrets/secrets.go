// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets reads per-user settings kept out of the config file from a
// directory of plain-text files, one value per file named after its key.
package secrets

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// DefaultDir is the directory read at startup.
const DefaultDir = ".secrets"

// configKeys maps secret file names to the config keys they provide.
var configKeys = map[string]string{
	"openalex-email":  "collector.email",
	"ollama-base-url": "ollama.base_url",
}

// Load reads every regular file in dir into a map of file name to trimmed
// contents. A missing directory yields an empty map. Dotfiles and empty
// files are skipped; unreadable files are reported to warn and skipped.
func Load(dir string, warn io.Writer) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}
	if warn == nil {
		warn = io.Discard
	}

	out := make(map[string]string)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(warn, "warning: could not read secret %s: %v\n", name, err)
			continue
		}
		if v := strings.TrimSpace(string(data)); v != "" {
			out[name] = v
		}
	}
	return out, nil
}

// Apply installs the known secrets as defaults on v, below the config file
// and the environment, and returns the config keys it set in sorted order.
func Apply(v *viper.Viper, s map[string]string) []string {
	var applied []string
	for name, key := range configKeys {
		if val, ok := s[name]; ok {
			v.SetDefault(key, val)
			applied = append(applied, key)
		}
	}
	sort.Strings(applied)
	return applied
}
