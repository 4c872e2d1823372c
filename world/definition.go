package world

import (
	"github.com/wippyai/wordstore/introspect"
	"github.com/wippyai/wordstore/schema"
	"github.com/wippyai/wordstore/selector"
	"github.com/wippyai/wordstore/word"
)

// Definition is what a registrant submits for a resource. Selector is the
// identity the definition reports for itself; registration rejects it unless
// it equals the selector derived from the namespace and Name.
type Definition interface {
	Name() string
	Selector(namespaceHash word.Word) word.Word
	Descriptor() (*schema.Ty, error)
}

type model struct {
	ty   *schema.Ty
	err  error
	name string
}

// NewDefinition defines a resource from a descriptor.
func NewDefinition(name string, ty *schema.Ty) Definition {
	return &model{name: name, ty: ty}
}

// ModelOf defines a resource from the Go type T. An empty name uses the
// type's name.
func ModelOf[T any](name string) Definition {
	ty, err := introspect.DescriptorOf[T]()
	if name == "" && ty != nil {
		name = ty.Name
	}
	return &model{name: name, ty: ty, err: err}
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Selector(namespaceHash word.Word) word.Word {
	return selector.Combine(namespaceHash, selector.NameHash(m.name))
}

func (m *model) Descriptor() (*schema.Ty, error) {
	return m.ty, m.err
}
