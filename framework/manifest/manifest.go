// Package manifest reads service registrations from YAML and applies them
// to a container.
//
//	services:
//	  mailer:
//	    class: github.com/acme/app.Mailer
//	    lifecycle: transient
//	    depends_on:
//	      transport: smtp
//	    params:
//	      from: ops@example.com
//	      timeout: 5s
//
// Every class named here must still be defined in the container's catalog;
// the manifest only decides names, lifecycles and parameters.
package manifest

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/km-arc/go-autowire/framework/container"
	"github.com/km-arc/go-autowire/framework/validation"
)

// Service is one registration entry.
type Service struct {
	Class     string            `yaml:"class"`
	Lifecycle string            `yaml:"lifecycle"`
	DependsOn map[string]string `yaml:"depends_on"`
	Params    map[string]any    `yaml:"params"`
}

// Manifest is the decoded document.
type Manifest struct {
	Services map[string]Service `yaml:"services"`
}

// Issue is a single validation problem, addressed by its path in the
// document.
type Issue struct {
	Path string
	Desc string
}

// Error lists every issue found in a manifest.
type Error struct {
	Issues []Issue
}

func (e *Error) Error() string {
	parts := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		parts[i] = is.Path + ": " + is.Desc
	}
	return "manifest: " + strings.Join(parts, "; ")
}

// Load reads and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "manifest: opening")
	}
	defer f.Close()
	return Decode(f)
}

// Parse decodes and validates a manifest held in memory.
func Parse(data []byte) (*Manifest, error) {
	return Decode(bytes.NewReader(data))
}

// Decode reads a manifest from r. Unknown keys are rejected.
func Decode(r io.Reader) (*Manifest, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "manifest: decoding")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Names returns the service names in sorted order.
func (m *Manifest) Names() []string {
	names := make([]string, 0, len(m.Services))
	for n := range m.Services {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ── Validation ────────────────────────────────────────────────────────────────

var serviceRules = validation.Rules{
	"name":      "required|not_in:" + container.SelfName + "|max:255",
	"class":     `required|regex:^[\w./\\-]+$`,
	"lifecycle": "nullable|lifecycle",
}

func knownLifecycle(value, _ string, _ map[string]string) bool {
	_, err := container.ParseLifecycle(value)
	return err == nil
}

var paramRules = validation.Rules{
	"param": "required|alpha_dash",
}

// Validate checks every entry and returns an *Error listing all issues.
func (m *Manifest) Validate() error {
	var issues []Issue
	add := func(path string, bag *validation.Errors) {
		for _, f := range bag.Fields() {
			for _, msg := range bag.Bag[f] {
				issues = append(issues, Issue{Path: path + "." + f, Desc: msg})
			}
		}
	}

	for _, name := range m.Names() {
		svc := m.Services[name]
		path := "services." + name

		v := validation.Make(map[string]string{
			"name":      strings.TrimSpace(name),
			"class":     strings.TrimSpace(svc.Class),
			"lifecycle": strings.TrimSpace(svc.Lifecycle),
		}, serviceRules).Extend("lifecycle", knownLifecycle, "The :attribute must be shared or transient.")
		if v.Fails() {
			add(path, v.Errors())
		}

		for _, param := range sortedKeys(svc.DependsOn) {
			v := validation.Make(map[string]string{"param": param, "name": svc.DependsOn[param]}, validation.Rules{
				"param": paramRules["param"],
				"name":  "required",
			})
			if v.Fails() {
				add(path+".depends_on["+param+"]", v.Errors())
			}
		}
		for _, param := range sortedKeys(svc.Params) {
			if v := validation.Make(map[string]string{"param": param}, paramRules); v.Fails() {
				add(path+".params["+param+"]", v.Errors())
			}
		}
	}

	if len(issues) > 0 {
		return &Error{Issues: issues}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ── Apply ─────────────────────────────────────────────────────────────────────

// Apply registers every service with c, in name order.
func (m *Manifest) Apply(c *container.Container) error {
	for _, name := range m.Names() {
		svc := m.Services[name]
		opts, err := svc.options()
		if err != nil {
			return errors.Wrapf(err, "manifest: service %s", name)
		}
		if err := c.RegisterClass(svc.Class, name, opts...); err != nil {
			return errors.Wrapf(err, "manifest: service %s", name)
		}
	}
	return nil
}

func (s Service) options() ([]container.Option, error) {
	lc, err := container.ParseLifecycle(s.Lifecycle)
	if err != nil {
		return nil, err
	}
	opts := []container.Option{container.WithLifecycle(lc)}
	for param, dep := range s.DependsOn {
		opts = append(opts, container.DependsOn(param, dep))
	}
	if len(s.Params) > 0 {
		opts = append(opts, container.WithParams(s.Params))
	}
	return opts, nil
}

// String renders the service the way it would appear in a log line.
func (s Service) String() string {
	lc := s.Lifecycle
	if lc == "" {
		lc = container.Shared.String()
	}
	return fmt.Sprintf("%s (%s)", s.Class, lc)
}
