package msgcat

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"text/template"

	yaml "gopkg.in/yaml.v3"
)

//go:embed messages.en.yaml
var defaultMessages []byte

// Catalog holds user-facing message templates keyed by dotted path (error.game_not_found).
// Templates are compiled on load and executed with missingkey=error.
type Catalog struct {
	mu        sync.RWMutex
	templates map[string]*template.Template
}

// New loads the embedded English messages, then layers every *.yaml/*.yml in overrideDir on top.
func New(overrideDir string) (*Catalog, error) {
	c := &Catalog{templates: make(map[string]*template.Template)}
	base, err := compileMessages(defaultMessages)
	if err != nil {
		return nil, fmt.Errorf("embedded messages: %w", err)
	}
	c.merge(base)

	dir := strings.TrimSpace(overrideDir)
	if dir == "" {
		return c, nil
	}
	overrides, err := loadOverrides(dir)
	if err != nil {
		return nil, err
	}
	c.merge(overrides)
	return c, nil
}

func (c *Catalog) merge(src map[string]*template.Template) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, t := range src {
		c.templates[k] = t
	}
}

// loadOverrides reads override files in name order. A key defined by two files is an error.
func loadOverrides(dir string) (map[string]*template.Template, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("messages dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("messages dir %s is not a directory", dir)
	}
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		m, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, m...)
	}
	sort.Strings(files)

	out := make(map[string]*template.Template)
	owner := make(map[string]string)
	for _, path := range files {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		compiled, err := compileMessages(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		for k, t := range compiled {
			if prev, dup := owner[k]; dup {
				return nil, fmt.Errorf("message %q defined in both %s and %s", k, prev, filepath.Base(path))
			}
			owner[k] = filepath.Base(path)
			out[k] = t
		}
	}
	return out, nil
}

func compileMessages(raw []byte) (map[string]*template.Template, error) {
	flat, err := flattenMessages(raw)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*template.Template, len(flat))
	for k, text := range flat {
		t, err := template.New(k).Option("missingkey=error").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("message %q: %w", k, err)
		}
		out[k] = t
	}
	return out, nil
}

// flattenMessages turns nested YAML mappings into dotted keys. Only string leaves are allowed.
func flattenMessages(raw []byte) (map[string]string, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	out := make(map[string]string)
	if len(doc.Content) == 0 {
		return out, nil
	}
	if err := walkNode(doc.Content[0], "", out); err != nil {
		return nil, err
	}
	return out, nil
}

func walkNode(n *yaml.Node, prefix string, out map[string]string) error {
	switch n.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			if prefix != "" {
				key = prefix + "." + key
			}
			if err := walkNode(n.Content[i+1], key, out); err != nil {
				return err
			}
		}
		return nil
	case yaml.ScalarNode:
		if prefix == "" {
			return fmt.Errorf("line %d: message without key", n.Line)
		}
		if n.ShortTag() != "!!str" {
			return fmt.Errorf("line %d: %s must be a string, got %s", n.Line, prefix, n.ShortTag())
		}
		out[prefix] = n.Value
		return nil
	default:
		return fmt.Errorf("line %d: unsupported node at %q", n.Line, prefix)
	}
}

// Render executes the message at key. Unknown keys and missing data fields are errors.
func (c *Catalog) Render(key string, data any) (string, error) {
	key = strings.TrimSpace(key)
	c.mu.RLock()
	t, ok := c.templates[key]
	c.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("unknown message %q", key)
	}
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

// RenderOr renders key, returning fallback on any failure.
func (c *Catalog) RenderOr(key string, data any, fallback string) string {
	if c == nil {
		return fallback
	}
	s, err := c.Render(key, data)
	if err != nil || s == "" {
		return fallback
	}
	return s
}
