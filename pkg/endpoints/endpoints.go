// Package endpoints holds the PGD API endpoint descriptors and renders them
// into absolute URLs.
package endpoints

import (
	"net/http"
	"slices"

	"github.com/cockroachdb/errors"

	"github.com/rm-hull/api-pgd-client/pkg/placeholder"
)

const (
	Token        = "token"
	Users        = "users"
	User         = "user"
	DeliveryPlan = "plano_entregas"
	WorkPlan     = "plano_trabalho"
	Participant  = "participante"
)

var (
	ErrNotDefined = errors.New("Endpoint not defined")
	ErrMalformed  = errors.New("Endpoint malformed")
)

// Descriptor describes one API endpoint.
type Descriptor struct {
	Name    string
	Path    string
	Methods []string
}

// Allows reports whether method may be used against the descriptor.
func (d Descriptor) Allows(method string) bool {
	return slices.Contains(d.Methods, method)
}

// Registry is an immutable set of descriptors keyed by name.
type Registry struct {
	byName map[string]Descriptor
}

// NewRegistry builds a registry. Descriptors must have unique, non-empty names.
func NewRegistry(descriptors ...Descriptor) (*Registry, error) {
	byName := make(map[string]Descriptor, len(descriptors))
	for _, d := range descriptors {
		if d.Name == "" {
			return nil, errors.Newf("descriptor with path %q has no name", d.Path)
		}
		if _, ok := byName[d.Name]; ok {
			return nil, errors.Newf("duplicate endpoint descriptor: %s", d.Name)
		}
		d.Methods = slices.Clone(d.Methods)
		byName[d.Name] = d
	}
	return &Registry{byName: byName}, nil
}

var defaultDescriptors = []Descriptor{
	{Name: Token, Path: "/token", Methods: []string{http.MethodPost}},
	{Name: Users, Path: "/users", Methods: []string{http.MethodGet, http.MethodPut}},
	{Name: User, Path: "/user/{email}", Methods: []string{http.MethodGet, http.MethodPut}},
	{
		Name:    DeliveryPlan,
		Path:    "/organizacao/{origem_unidade}/{cod_unidade_autorizadora}/plano_entregas/{id_plano_entregas}",
		Methods: []string{http.MethodGet, http.MethodPut},
	},
	{
		Name:    WorkPlan,
		Path:    "/organizacao/{origem_unidade}/{cod_unidade_autorizadora}/plano_trabalho/{id_plano_trabalho}",
		Methods: []string{http.MethodGet, http.MethodPut},
	},
	{
		Name:    Participant,
		Path:    "/organizacao/{origem_unidade}/{cod_unidade_autorizadora}/{cod_unidade_lotacao}/participante/{matricula_siape}",
		Methods: []string{http.MethodGet, http.MethodPut},
	},
}

// Default returns the registry of the public PGD API.
func Default() *Registry {
	r, err := NewRegistry(defaultDescriptors...)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the named descriptor.
func (r *Registry) Lookup(name string) (Descriptor, error) {
	d, ok := r.byName[name]
	if !ok || name == "" {
		return Descriptor{}, errors.Wrapf(ErrNotDefined, "endpoint %q", name)
	}
	return d, nil
}

// Resolve renders the named endpoint with params and prefixes it with domain.
// Values are inserted verbatim.
func (r *Registry) Resolve(domain, name string, params map[string]string) (string, error) {
	d, err := r.Lookup(name)
	if err != nil {
		return "", err
	}

	path, err := placeholder.Render(d.Path, params)
	if err != nil {
		return "", errors.Mark(errors.Wrapf(err, "endpoint %q", name), ErrMalformed)
	}
	return domain + path, nil
}

// Names lists the registered endpoint names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
