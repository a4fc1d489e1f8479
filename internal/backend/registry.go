package backend

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider describes one analytics backend as configured in backends.yaml.
type Provider struct {
	Name     string `yaml:"name"`
	Kind     string `yaml:"kind"`
	Endpoint string `yaml:"endpoint"`
	// Provider is the provider field sent in AWS-shaped request bodies.
	Provider       string `yaml:"provider,omitempty"`
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty"`
}

type registryFile struct {
	Default   string     `yaml:"default"`
	Providers []Provider `yaml:"providers"`
}

// Registry holds the configured backends keyed by provider name.
type Registry struct {
	clients     map[string]*HTTPClient
	defaultName string
}

// LoadRegistry reads a backends.yaml file. Callers decide what to do when the
// file does not exist (os.IsNotExist on the returned error).
func LoadRegistry(path string, defaultTimeout time.Duration) (*Registry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f registryFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return NewRegistry(f.Providers, f.Default, defaultTimeout)
}

// NewRegistry builds a registry from provider definitions, validating each.
func NewRegistry(providers []Provider, defaultName string, defaultTimeout time.Duration) (*Registry, error) {
	r := &Registry{clients: make(map[string]*HTTPClient, len(providers))}
	for _, p := range providers {
		if p.Name == "" {
			return nil, fmt.Errorf("backend provider with empty name")
		}
		if p.Kind != KindAWS && p.Kind != KindOCI {
			return nil, fmt.Errorf("backend %q has unknown kind %q", p.Name, p.Kind)
		}
		if p.Endpoint == "" {
			return nil, fmt.Errorf("backend %q has no endpoint", p.Name)
		}
		if _, dup := r.clients[p.Name]; dup {
			return nil, fmt.Errorf("duplicate backend name %q", p.Name)
		}
		r.clients[p.Name] = NewHTTPClient(p, defaultTimeout)
	}
	if len(r.clients) == 0 {
		return nil, fmt.Errorf("no backend providers configured")
	}
	if defaultName == "" {
		defaultName = providers[0].Name
	}
	if _, ok := r.clients[defaultName]; !ok {
		return nil, fmt.Errorf("default backend %q is not configured", defaultName)
	}
	r.defaultName = defaultName
	return r, nil
}

// Resolve returns the named backend, or the default when name is empty.
func (r *Registry) Resolve(name string) (Client, bool) {
	if name == "" {
		name = r.defaultName
	}
	c, ok := r.clients[name]
	return c, ok
}

// Names lists the configured provider names.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.clients))
	for name := range r.clients {
		out = append(out, name)
	}
	return out
}
