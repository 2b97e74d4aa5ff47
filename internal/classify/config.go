// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify holds the keyword configuration and the lexical
// classifier that assigns category labels to papers.
//
// A configuration names keyword groups (lists of literal phrases), a set of
// qualifier phrases, and an ordered list of category rules. A rule matches a
// text when any phrase of its group occurs in it; rules that require a
// qualifier additionally need one qualifier phrase to occur. Matching is
// case-insensitive substring search and nothing else.
package classify

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"
)

var (
	// ErrNotFound is returned by Load when the configuration file does not exist.
	ErrNotFound = errors.New("configuration file not found")

	// ErrInvalidConfig wraps every structural problem found while parsing or
	// validating a configuration.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// KeywordGroup is a named list of literal phrases.
type KeywordGroup struct {
	Name    string
	Phrases []string
}

// CategoryRule maps a keyword group to a display label.
type CategoryRule struct {
	Label             string
	KeywordGroup      string
	RequiresQualifier bool
}

// Config is the full keyword configuration. It is built once at startup and
// must not be modified afterwards.
type Config struct {
	Groups map[string]KeywordGroup

	// GroupOrder lists group names in declaration order.
	GroupOrder []string

	// Qualifiers are the phrases that signal systems relevance.
	Qualifiers []string

	// Rules are evaluated, and labels reported, in this order.
	Rules []CategoryRule
}

// Labels returns the rule labels in declaration order.
func (c *Config) Labels() []string {
	labels := make([]string, len(c.Rules))
	for i, r := range c.Rules {
		labels[i] = r.Label
	}
	return labels
}

// Load reads the configuration at path. It always returns a usable
// configuration: when the file is missing, unreadable, or invalid the
// built-in default is returned together with an error describing why.
// Missing files yield an error wrapping ErrNotFound.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return Default(), fmt.Errorf("reading configuration %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Default(), fmt.Errorf("parsing configuration %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates a configuration. JSON documents (starting with
// '{') and YAML documents are both accepted; key order is preserved so that
// category order follows the file.
func Parse(data []byte) (*Config, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidConfig)
	}

	var (
		cfg *Config
		err error
	)
	if trimmed[0] == '{' {
		cfg, err = parseJSON(trimmed)
	} else {
		cfg, err = parseYAML(trimmed)
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// rawCategory is the on-disk form of a category rule.
type rawCategory struct {
	Keywords       string `json:"keywords" yaml:"keywords"`
	RequiresSystem *bool  `json:"requires_system" yaml:"requires_system"`
}

func newConfig() *Config {
	return &Config{Groups: make(map[string]KeywordGroup)}
}

func (c *Config) addGroup(name string, phrases []string) error {
	if _, dup := c.Groups[name]; dup {
		return fmt.Errorf("%w: keyword group %q declared twice", ErrInvalidConfig, name)
	}
	c.Groups[name] = KeywordGroup{Name: name, Phrases: phrases}
	c.GroupOrder = append(c.GroupOrder, name)
	return nil
}

func (c *Config) addRule(label string, rc rawCategory) error {
	for _, r := range c.Rules {
		if r.Label == label {
			return fmt.Errorf("%w: category %q declared twice", ErrInvalidConfig, label)
		}
	}
	if rc.RequiresSystem == nil {
		// Absent flag means no qualifier is needed.
		rc.RequiresSystem = new(bool)
	}
	c.Rules = append(c.Rules, CategoryRule{
		Label:             label,
		KeywordGroup:      rc.Keywords,
		RequiresQualifier: *rc.RequiresSystem,
	})
	return nil
}

func parseJSON(data []byte) (*Config, error) {
	var doc struct {
		Keywords       json.RawMessage `json:"keywords"`
		SystemKeywords []string        `json:"system_keywords"`
		Categories     json.RawMessage `json:"categories"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	cfg := newConfig()
	cfg.Qualifiers = doc.SystemKeywords

	err := eachObjectField(doc.Keywords, func(name string, dec *json.Decoder) error {
		var phrases []string
		if err := dec.Decode(&phrases); err != nil {
			return fmt.Errorf("%w: keyword group %q: %v", ErrInvalidConfig, name, err)
		}
		return cfg.addGroup(name, phrases)
	})
	if err != nil {
		return nil, err
	}

	err = eachObjectField(doc.Categories, func(label string, dec *json.Decoder) error {
		var rc rawCategory
		if err := dec.Decode(&rc); err != nil {
			return fmt.Errorf("%w: category %q: %v", ErrInvalidConfig, label, err)
		}
		return cfg.addRule(label, rc)
	})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// eachObjectField walks the fields of a JSON object in document order. The
// callback must consume exactly one value from dec. A nil or null raw
// message is treated as an empty object.
func eachObjectField(raw json.RawMessage, fn func(key string, dec *json.Decoder) error) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("%w: expected object, got %v", ErrInvalidConfig, tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		key, _ := tok.(string)
		if err := fn(key, dec); err != nil {
			return err
		}
	}
	return nil
}

func parseYAML(data []byte) (*Config, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: top level must be a mapping", ErrInvalidConfig)
	}

	cfg := newConfig()
	top := root.Content[0]
	for i := 0; i+1 < len(top.Content); i += 2 {
		key, val := top.Content[i].Value, top.Content[i+1]
		switch key {
		case "keywords":
			err := eachMappingPair(val, func(name string, n *yaml.Node) error {
				var phrases []string
				if err := n.Decode(&phrases); err != nil {
					return fmt.Errorf("%w: keyword group %q: %v", ErrInvalidConfig, name, err)
				}
				return cfg.addGroup(name, phrases)
			})
			if err != nil {
				return nil, err
			}
		case "system_keywords":
			if err := val.Decode(&cfg.Qualifiers); err != nil {
				return nil, fmt.Errorf("%w: system_keywords: %v", ErrInvalidConfig, err)
			}
		case "categories":
			err := eachMappingPair(val, func(label string, n *yaml.Node) error {
				var rc rawCategory
				if err := n.Decode(&rc); err != nil {
					return fmt.Errorf("%w: category %q: %v", ErrInvalidConfig, label, err)
				}
				return cfg.addRule(label, rc)
			})
			if err != nil {
				return nil, err
			}
		}
	}
	return cfg, nil
}

func eachMappingPair(n *yaml.Node, fn func(key string, val *yaml.Node) error) error {
	if n.Kind == yaml.ScalarNode && n.Tag == "!!null" {
		return nil
	}
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: line %d: expected mapping", ErrInvalidConfig, n.Line)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if err := fn(n.Content[i].Value, n.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}

// Problems lists every structural violation in the configuration. An empty
// result means the configuration is usable.
func (c *Config) Problems() []string {
	var problems []string

	if len(c.Rules) == 0 {
		problems = append(problems, "no categories defined")
	}

	for _, name := range c.GroupOrder {
		g := c.Groups[name]
		if len(g.Phrases) == 0 {
			problems = append(problems, fmt.Sprintf("keyword group %q is empty", name))
		}
		for i, p := range g.Phrases {
			if strings.TrimSpace(p) == "" {
				problems = append(problems, fmt.Sprintf("keyword group %q: phrase %d is blank", name, i))
			}
		}
	}

	needsQualifier := false
	filenames := make(map[string]string)
	for _, r := range c.Rules {
		if strings.TrimSpace(r.Label) == "" {
			problems = append(problems, "category with blank label")
		}
		if _, ok := c.Groups[r.KeywordGroup]; !ok {
			problems = append(problems, fmt.Sprintf("category %q references unknown keyword group %q", r.Label, r.KeywordGroup))
		}
		if r.RequiresQualifier {
			needsQualifier = true
		}
		fn := ReportFilename(r.Label)
		if fn == IndexFilename {
			problems = append(problems, fmt.Sprintf("category %q maps to the index report file %s", r.Label, fn))
		}
		if other, dup := filenames[fn]; dup {
			problems = append(problems, fmt.Sprintf("categories %q and %q map to the same report file %s", other, r.Label, fn))
		}
		filenames[fn] = r.Label
	}

	if needsQualifier && len(c.Qualifiers) == 0 {
		problems = append(problems, "system_keywords is empty but a category requires it")
	}
	for i, q := range c.Qualifiers {
		if strings.TrimSpace(q) == "" {
			problems = append(problems, fmt.Sprintf("system_keywords: phrase %d is blank", i))
		}
	}
	return problems
}

// Validate returns an error wrapping ErrInvalidConfig listing every problem.
func (c *Config) Validate() error {
	problems := c.Problems()
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
}

// IndexFilename is the overview report file. No category may render to it.
const IndexFilename = "arxiv_report.md"

// ReportFilename maps a category label to its report file name: spaces and
// slashes become underscores and parentheses are dropped.
func ReportFilename(label string) string {
	r := strings.NewReplacer(" ", "_", "(", "", ")", "", "/", "_")
	return r.Replace(label) + ".md"
}

// MarshalJSON encodes the configuration in the file format, keeping group
// and category order.
func (c *Config) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"keywords":{`)
	for i, name := range c.GroupOrder {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONField(&buf, name, c.Groups[name].Phrases); err != nil {
			return nil, err
		}
	}
	buf.WriteString(`},`)
	if err := writeJSONField(&buf, "system_keywords", c.Qualifiers); err != nil {
		return nil, err
	}
	buf.WriteString(`,"categories":{`)
	for i, r := range c.Rules {
		if i > 0 {
			buf.WriteByte(',')
		}
		rc := map[string]any{"keywords": r.KeywordGroup, "requires_system": r.RequiresQualifier}
		if err := writeJSONField(&buf, r.Label, rc); err != nil {
			return nil, err
		}
	}
	buf.WriteString(`}}`)
	return buf.Bytes(), nil
}

func writeJSONField(buf *bytes.Buffer, key string, v any) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	val, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(val)
	return nil
}

// MarshalYAML encodes the configuration as an ordered YAML mapping.
func (c *Config) MarshalYAML() (any, error) {
	groups := &yaml.Node{Kind: yaml.MappingNode}
	for _, name := range c.GroupOrder {
		seq := &yaml.Node{}
		if err := seq.Encode(c.Groups[name].Phrases); err != nil {
			return nil, err
		}
		groups.Content = append(groups.Content, scalar(name), seq)
	}

	qualifiers := &yaml.Node{}
	if err := qualifiers.Encode(c.Qualifiers); err != nil {
		return nil, err
	}

	categories := &yaml.Node{Kind: yaml.MappingNode}
	for _, r := range c.Rules {
		body := &yaml.Node{Kind: yaml.MappingNode}
		body.Content = append(body.Content,
			scalar("keywords"), scalar(r.KeywordGroup),
			scalar("requires_system"), &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: fmt.Sprint(r.RequiresQualifier)},
		)
		categories.Content = append(categories.Content, scalar(r.Label), body)
	}

	return &yaml.Node{
		Kind: yaml.MappingNode,
		Content: []*yaml.Node{
			scalar("keywords"), groups,
			scalar("system_keywords"), qualifiers,
			scalar("categories"), categories,
		},
	}, nil
}

func scalar(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}
