// Package catalog holds the embedded script collection: every topic in
// every dialect rendition, split into executable statements at load time.
//
// Scripts live under scripts/ in two layers. scripts/<topic>.sql is the
// shared rendition, used by every dialect that does not override it;
// scripts/<dialect>/<topic>.sql replaces the shared file for that
// dialect. manifest.yaml lists topics in run order and is the single
// source of truth for what the collection contains.
package catalog

import (
	"bytes"
	"embed"
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/sqlbook/internal/script"
)

//go:embed manifest.yaml
var manifestYAML []byte

//go:embed scripts
var scriptFiles embed.FS

// Stage places a topic in the run order.
type Stage string

const (
	StageSetup   Stage = "setup"
	StageSeed    Stage = "seed"
	StageExample Stage = "example"
	StageCleanup Stage = "cleanup"
)

var validStages = map[Stage]bool{
	StageSetup:   true,
	StageSeed:    true,
	StageExample: true,
	StageCleanup: true,
}

// StageNames lists the valid stages in run order.
func StageNames() []string {
	return []string{string(StageSetup), string(StageSeed), string(StageExample), string(StageCleanup)}
}

// ParseStage converts a user-supplied stage name to a Stage.
func ParseStage(name string) (Stage, error) {
	s := Stage(strings.ToLower(strings.TrimSpace(name)))
	if !validStages[s] {
		return "", fmt.Errorf("unknown stage %q (valid: %s)", name, strings.Join(StageNames(), ", "))
	}
	return s, nil
}

// Topic is one themed script of the collection.
type Topic struct {
	Name    string `yaml:"name"`
	Title   string `yaml:"title"`
	Stage   Stage  `yaml:"stage"`
	Summary string `yaml:"summary"`
}

// Script is a topic resolved for one dialect.
type Script struct {
	Topic   Topic
	Dialect string

	// Path is the embedded file the source came from.
	Path string

	// Shared reports that the dialect uses the shared rendition rather
	// than an override of its own.
	Shared bool

	// Source is the full script text.
	Source string

	// Statements is the executable breakdown of Source, in file order.
	Statements []script.Statement
}

// Catalog is the loaded collection.
type Catalog struct {
	Version  string
	dialects []string
	topics   []Topic
	scripts  map[string]map[string]*Script // dialect -> topic name
}

// manifest mirrors manifest.yaml.
type manifest struct {
	Version  string   `yaml:"version"`
	Dialects []string `yaml:"dialects"`
	Topics   []Topic  `yaml:"topics"`
}

// Load parses the manifest and resolves every topic for every dialect,
// splitting each script into statements. It fails if any combination is
// missing, so a loaded catalog is complete by construction.
func Load() (*Catalog, error) {
	var m manifest
	dec := yaml.NewDecoder(bytes.NewReader(manifestYAML))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}

	c := &Catalog{
		Version:  m.Version,
		dialects: m.Dialects,
		topics:   m.Topics,
		scripts:  make(map[string]map[string]*Script, len(m.Dialects)),
	}

	for _, dialect := range m.Dialects {
		byTopic := make(map[string]*Script, len(m.Topics))
		for _, topic := range m.Topics {
			s, err := resolve(dialect, topic)
			if err != nil {
				return nil, err
			}
			byTopic[topic.Name] = s
		}
		c.scripts[dialect] = byTopic
	}
	return c, nil
}

func (m *manifest) validate() error {
	if m.Version == "" {
		return fmt.Errorf("manifest has no version")
	}
	if len(m.Dialects) == 0 {
		return fmt.Errorf("manifest lists no dialects")
	}
	if len(m.Topics) == 0 {
		return fmt.Errorf("manifest lists no topics")
	}
	seen := make(map[string]bool, len(m.Topics))
	for _, t := range m.Topics {
		if t.Name == "" {
			return fmt.Errorf("manifest contains a topic with no name")
		}
		if seen[t.Name] {
			return fmt.Errorf("manifest lists topic %q twice", t.Name)
		}
		seen[t.Name] = true
		if !validStages[t.Stage] {
			return fmt.Errorf("topic %q has invalid stage %q", t.Name, t.Stage)
		}
	}
	return nil
}

// resolve reads the dialect override when one exists, the shared
// rendition otherwise.
func resolve(dialect string, topic Topic) (*Script, error) {
	override := path.Join("scripts", dialect, topic.Name+".sql")
	shared := path.Join("scripts", topic.Name+".sql")

	src, from, isShared, err := readFirst(override, shared)
	if err != nil {
		return nil, fmt.Errorf("topic %q has no script for dialect %q", topic.Name, dialect)
	}

	stmts, err := script.Split(src)
	if err != nil {
		return nil, fmt.Errorf("failed to split %s: %w", from, err)
	}
	if len(stmts) == 0 {
		return nil, fmt.Errorf("%s contains no statements", from)
	}

	return &Script{
		Topic:      topic,
		Dialect:    dialect,
		Path:       from,
		Shared:     isShared,
		Source:     src,
		Statements: stmts,
	}, nil
}

func readFirst(override, shared string) (string, string, bool, error) {
	if data, err := scriptFiles.ReadFile(override); err == nil {
		return string(data), override, false, nil
	}
	data, err := scriptFiles.ReadFile(shared)
	if err != nil {
		return "", "", false, err
	}
	return string(data), shared, true, nil
}

// Dialects returns the dialect names the collection ships, in manifest
// order.
func (c *Catalog) Dialects() []string {
	out := make([]string, len(c.dialects))
	copy(out, c.dialects)
	return out
}

// HasDialect reports whether the collection carries scripts for the
// named dialect.
func (c *Catalog) HasDialect(dialect string) bool {
	_, ok := c.scripts[strings.ToLower(dialect)]
	return ok
}

// Topics returns every topic in run order.
func (c *Catalog) Topics() []Topic {
	out := make([]Topic, len(c.topics))
	copy(out, c.topics)
	return out
}

// TopicNames returns the topic names in run order.
func (c *Catalog) TopicNames() []string {
	out := make([]string, len(c.topics))
	for i, t := range c.topics {
		out[i] = t.Name
	}
	return out
}

// Topic looks up one topic by name.
func (c *Catalog) Topic(name string) (Topic, bool) {
	for _, t := range c.topics {
		if t.Name == strings.ToLower(name) {
			return t, true
		}
	}
	return Topic{}, false
}

// Script returns one topic resolved for one dialect.
func (c *Catalog) Script(dialect, topic string) (*Script, error) {
	byTopic, ok := c.scripts[strings.ToLower(dialect)]
	if !ok {
		return nil, &UnknownDialectError{Dialect: dialect, Available: c.Dialects()}
	}
	s, ok := byTopic[strings.ToLower(topic)]
	if !ok {
		return nil, &UnknownTopicError{Topic: topic, Available: c.TopicNames()}
	}
	return s, nil
}

// Scripts returns every topic resolved for one dialect, in run order.
func (c *Catalog) Scripts(dialect string) ([]*Script, error) {
	byTopic, ok := c.scripts[strings.ToLower(dialect)]
	if !ok {
		return nil, &UnknownDialectError{Dialect: dialect, Available: c.Dialects()}
	}
	out := make([]*Script, 0, len(c.topics))
	for _, t := range c.topics {
		out = append(out, byTopic[t.Name])
	}
	return out, nil
}

// ScriptsByStage filters Scripts down to the named stages, keeping run
// order.
func (c *Catalog) ScriptsByStage(dialect string, stages ...Stage) ([]*Script, error) {
	all, err := c.Scripts(dialect)
	if err != nil {
		return nil, err
	}
	want := make(map[Stage]bool, len(stages))
	for _, s := range stages {
		want[s] = true
	}
	out := make([]*Script, 0, len(all))
	for _, s := range all {
		if want[s.Topic.Stage] {
			out = append(out, s)
		}
	}
	return out, nil
}

// UnknownDialectError is returned when a dialect has no scripts in the
// collection.
type UnknownDialectError struct {
	Dialect   string
	Available []string
}

func (e *UnknownDialectError) Error() string {
	return fmt.Sprintf("no scripts for dialect %q\nAvailable dialects: %v\nHint: Check your target.dialect in sqlbook.yaml", e.Dialect, e.Available)
}

// UnknownTopicError is returned when a topic name is not in the manifest.
type UnknownTopicError struct {
	Topic     string
	Available []string
}

func (e *UnknownTopicError) Error() string {
	return fmt.Sprintf("unknown topic %q\nAvailable topics: %v\nHint: Run 'sqlbook list' to browse the collection", e.Topic, e.Available)
}
