package core

import (
	"fmt"
	"sort"

	"recordcore/pkg/record"
)

// Plugin bundles a set of models and rules installed as a unit.
type Plugin interface {
	Name() string
	Version() string
	Register(registry *PluginRegistry) error
}

// PluginRegistry collects the contributions of a plugin during install.
type PluginRegistry struct {
	models []record.Model
	rules  []record.Rule
}

// RegisterModel adds a model whose schema is scanned at install time.
func (r *PluginRegistry) RegisterModel(model record.Model) {
	if model != nil {
		r.models = append(r.models, model)
	}
}

// RegisterRule adds a rule evaluated on every transaction commit.
func (r *PluginRegistry) RegisterRule(rule record.Rule) {
	if rule != nil {
		r.rules = append(r.rules, rule)
	}
}

// PluginMetadata describes an installed plugin.
type PluginMetadata struct {
	Name    string   `json:"name"`
	Version string   `json:"version"`
	Models  []string `json:"models"`
	Rules   []string `json:"rules"`
}

// InstallPlugin registers the plugin's models and rules. Plugins are
// installed once, before the service starts serving traffic; installing
// a name twice fails.
func (s *Service) InstallPlugin(p Plugin) (PluginMetadata, error) {
	if p == nil {
		return PluginMetadata{}, fmt.Errorf("nil plugin")
	}
	if _, exists := s.plugins[p.Name()]; exists {
		return PluginMetadata{}, fmt.Errorf("plugin %s already installed", p.Name())
	}
	var reg PluginRegistry
	if err := p.Register(&reg); err != nil {
		return PluginMetadata{}, fmt.Errorf("register plugin %s: %w", p.Name(), err)
	}
	meta := PluginMetadata{Name: p.Name(), Version: p.Version()}
	for _, model := range reg.models {
		table, err := s.registry.Register(model)
		if err != nil {
			return PluginMetadata{}, fmt.Errorf("plugin %s: %w", p.Name(), err)
		}
		meta.Models = append(meta.Models, table.Name)
	}
	for _, rule := range reg.rules {
		if s.engine == nil {
			return PluginMetadata{}, fmt.Errorf("plugin %s: service has no rules engine", p.Name())
		}
		s.engine.Register(rule)
		meta.Rules = append(meta.Rules, rule.Name())
	}
	if s.plugins == nil {
		s.plugins = make(map[string]PluginMetadata)
	}
	s.plugins[p.Name()] = meta
	s.logger.Info("plugin installed", "plugin", p.Name(), "version", p.Version())
	return meta, nil
}

// Plugins returns installed plugin metadata sorted by name.
func (s *Service) Plugins() []PluginMetadata {
	out := make([]PluginMetadata, 0, len(s.plugins))
	for _, meta := range s.plugins {
		out = append(out, meta)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
