package data

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/forgeecs/forge/internal/core/ecs"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var ErrUnknownTemplate = errors.New("unknown template")

// TemplateEntry is one template as written in YAML. Components maps a
// registered component name to that component's fields.
type TemplateEntry struct {
	ID         int                  `yaml:"id"`
	Name       string               `yaml:"name"`
	Components map[string]yaml.Node `yaml:"components"`
}

type templateListFile struct {
	Templates []TemplateEntry `yaml:"templates"`
}

// TemplateTable holds templates indexed by id and by name.
type TemplateTable struct {
	byID   map[int]*ecs.Template
	byName map[string]*ecs.Template
}

// LoadTemplateTable loads templates from a YAML file. Component names are
// resolved against reg.
func LoadTemplateTable(path string, reg *ecs.Registry, log *zap.Logger) (*TemplateTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template list: %w", err)
	}
	t, err := ParseTemplateTable(raw, reg)
	if err != nil {
		return nil, err
	}
	log.Info("loaded templates", zap.String("file", path), zap.Int("count", t.Count()))
	return t, nil
}

func ParseTemplateTable(raw []byte, reg *ecs.Registry) (*TemplateTable, error) {
	var f templateListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse template list: %w", err)
	}
	t := &TemplateTable{
		byID:   make(map[int]*ecs.Template, len(f.Templates)),
		byName: make(map[string]*ecs.Template, len(f.Templates)),
	}
	for i := range f.Templates {
		entry := &f.Templates[i]
		if _, dup := t.byID[entry.ID]; dup {
			return nil, fmt.Errorf("template %d (%s): duplicate id", entry.ID, entry.Name)
		}
		if _, dup := t.byName[entry.Name]; dup && entry.Name != "" {
			return nil, fmt.Errorf("template %d (%s): duplicate name", entry.ID, entry.Name)
		}
		tmpl, err := buildTemplate(entry, reg)
		if err != nil {
			return nil, err
		}
		t.byID[entry.ID] = tmpl
		if entry.Name != "" {
			t.byName[entry.Name] = tmpl
		}
	}
	return t, nil
}

func buildTemplate(entry *TemplateEntry, reg *ecs.Registry) (*ecs.Template, error) {
	tmpl := ecs.NewTemplate(reg, entry.ID, entry.Name)
	for name, node := range entry.Components {
		id, ok := reg.ByName(name)
		if !ok {
			return nil, fmt.Errorf("template %d (%s): component %q: %w", entry.ID, entry.Name, name, ecs.ErrUnregisteredComponent)
		}
		d, err := reg.New(id)
		if err != nil {
			return nil, fmt.Errorf("template %d (%s): %w", entry.ID, entry.Name, err)
		}
		if err := node.Decode(d); err != nil {
			return nil, fmt.Errorf("template %d (%s): decode %s: %w", entry.ID, entry.Name, name, err)
		}
		if err := tmpl.AddDefault(d); err != nil {
			return nil, fmt.Errorf("template %d (%s): %w", entry.ID, entry.Name, err)
		}
	}
	return tmpl, nil
}

// Get returns a template by id, or nil if not found.
func (t *TemplateTable) Get(id int) *ecs.Template {
	return t.byID[id]
}

// ByName returns a template by name, or nil if not found.
func (t *TemplateTable) ByName(name string) *ecs.Template {
	return t.byName[name]
}

// Count returns the number of loaded templates.
func (t *TemplateTable) Count() int {
	return len(t.byID)
}

// All returns every template ordered by id.
func (t *TemplateTable) All() []*ecs.Template {
	out := make([]*ecs.Template, 0, len(t.byID))
	for _, tmpl := range t.byID {
		out = append(out, tmpl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Instantiate creates a detached entity from the named template.
func (t *TemplateTable) Instantiate(name string) (*ecs.Entity, error) {
	tmpl := t.byName[name]
	if tmpl == nil {
		return nil, fmt.Errorf("instantiate %q: %w", name, ErrUnknownTemplate)
	}
	return tmpl.Instantiate(), nil
}
