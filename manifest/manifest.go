// Package manifest reads YAML world manifests: the namespaces, models and
// permission grants a world should hold, with member types written as type
// expressions such as u32, Array<u8>, Option<felt252>, (u8, u16) or the name
// of a struct or enum declared under types.
//
// A manifest may also import the named records, variants and enums of a
// component's WIT resolve JSON (wit), and a resource may take its members from
// an imported record.
package manifest

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/wordstore/errors"
	"github.com/wippyai/wordstore/schema"
	"github.com/wippyai/wordstore/selector"
	"github.com/wippyai/wordstore/word"
	"github.com/wippyai/wordstore/world"
)

// Manifest is the decoded document.
type Manifest struct {
	WIT        string      `yaml:"wit,omitempty"`
	Types      []TypeDef   `yaml:"types"`
	Namespaces []Namespace `yaml:"namespaces"`

	dir      string
	imported map[string]*schema.Ty
}

// TypeDef declares a named struct (Members) or enum (Variants).
type TypeDef struct {
	Name     string    `yaml:"name"`
	Members  []Member  `yaml:"members,omitempty"`
	Variants []Variant `yaml:"variants,omitempty"`
}

// Namespace groups resources and the grants on the namespace itself.
type Namespace struct {
	Name      string     `yaml:"name"`
	Owners    []string   `yaml:"owners,omitempty"`
	Writers   []string   `yaml:"writers,omitempty"`
	Resources []Resource `yaml:"resources"`
}

// Resource declares a model, either member by member or from the imported
// WIT record named by WIT with Keys marking its key members.
type Resource struct {
	Name    string   `yaml:"name"`
	Members []Member `yaml:"members,omitempty"`
	WIT     string   `yaml:"wit,omitempty"`
	Keys    []string `yaml:"keys,omitempty"`
	Owners  []string `yaml:"owners,omitempty"`
	Writers []string `yaml:"writers,omitempty"`
}

// Member is a struct member. Key marks a model key.
type Member struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
	Key  bool   `yaml:"key,omitempty"`
}

// Variant is an enum variant. An empty Type is the unit payload.
type Variant struct {
	Name string `yaml:"name"`
	Type string `yaml:"type,omitempty"`
}

// Parse decodes a manifest. Unknown fields are rejected. A relative wit path
// is taken from the working directory.
func Parse(r io.Reader) (*Manifest, error) {
	return parse(r, "")
}

func parse(r io.Reader, dir string) (*Manifest, error) {
	m := &Manifest{dir: dir}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(m); err != nil && err != io.EOF {
		return nil, errors.Wrap(errors.PhaseManifest, errors.KindInvalidInput, err, "decode manifest")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// ParseFile reads and decodes the manifest at path. A relative wit path is
// taken from the manifest's directory.
func ParseFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseManifest, errors.KindNotFound, err, path)
	}
	return parse(bytes.NewReader(data), filepath.Dir(path))
}

// Marshal renders m as YAML.
func (m *Manifest) Marshal() ([]byte, error) {
	return yaml.Marshal(m)
}

func invalid(path []string, format string, args ...any) error {
	return errors.New(errors.PhaseManifest, errors.KindInvalidInput).
		Path(path...).
		Detail(format, args...).
		Build()
}

// Validate checks names, duplicates, accounts and every type expression.
func (m *Manifest) Validate() error {
	if _, err := m.resolver(); err != nil {
		return err
	}

	seenNS := map[string]bool{}
	for _, ns := range m.Namespaces {
		if err := selector.ValidateName("namespace", ns.Name); err != nil {
			return err
		}
		if ns.Name == world.WorldName {
			return invalid([]string{ns.Name}, "the world record is not a namespace")
		}
		if seenNS[ns.Name] {
			return invalid([]string{ns.Name}, "namespace declared twice")
		}
		seenNS[ns.Name] = true
		if err := checkAccounts([]string{ns.Name}, ns.Owners, ns.Writers); err != nil {
			return err
		}

		seen := map[string]bool{}
		for _, res := range ns.Resources {
			path := []string{ns.Name, res.Name}
			if err := selector.ValidateName("resource", res.Name); err != nil {
				return err
			}
			if seen[res.Name] {
				return invalid(path, "resource declared twice")
			}
			seen[res.Name] = true
			if err := checkAccounts(path, res.Owners, res.Writers); err != nil {
				return err
			}
			if (len(res.Members) > 0) == (res.WIT != "") {
				return invalid(path, "a resource declares either members or a WIT record")
			}
			if res.WIT == "" && len(res.Keys) > 0 {
				return invalid(path, "keys apply only to a WIT record; mark members with key")
			}
		}
	}

	_, err := m.Resources()
	return err
}

func checkAccounts(path []string, lists ...[]string) error {
	for _, list := range lists {
		for _, s := range list {
			if _, err := word.ParseAddress(s); err != nil {
				return errors.New(errors.PhaseManifest, errors.KindInvalidInput).
					Path(path...).
					Detail("account %q", s).
					Cause(err).
					Build()
			}
		}
	}
	return nil
}

// Model is a resource with its resolved descriptor.
type Model struct {
	Ty        *schema.Ty
	Namespace string
	Name      string
	Owners    []word.Address
	Writers   []word.Address
}

// Tag returns "namespace-name".
func (m Model) Tag() string {
	return selector.Tag(m.Namespace, m.Name)
}

// Resources resolves every declared model in manifest order.
func (m *Manifest) Resources() ([]Model, error) {
	r, err := m.resolver()
	if err != nil {
		return nil, err
	}

	var out []Model
	for _, ns := range m.Namespaces {
		for _, res := range ns.Resources {
			path := []string{ns.Name, res.Name}
			var ty *schema.Ty
			if res.WIT != "" {
				ty, err = r.witModel(res, path)
			} else {
				ty, err = r.structTy(res.Name, res.Members, path)
			}
			if err != nil {
				return nil, err
			}
			if len(ty.Keys()) == 0 {
				return nil, invalid([]string{ns.Name, res.Name}, "a model needs at least one key member")
			}
			out = append(out, Model{
				Namespace: ns.Name,
				Name:      res.Name,
				Ty:        ty,
				Owners:    accounts(res.Owners),
				Writers:   accounts(res.Writers),
			})
		}
	}
	return out, nil
}

// accounts parses lists already checked by Validate.
func accounts(list []string) []word.Address {
	out := make([]word.Address, 0, len(list))
	for _, s := range list {
		a, err := word.ParseAddress(s)
		if err == nil {
			out = append(out, a)
		}
	}
	return out
}
