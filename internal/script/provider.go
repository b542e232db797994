package script

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"regexp"
	"slices"

	"github.com/kode4food/argyll/wizard/pkg/api"
	"github.com/kode4food/argyll/wizard/pkg/log"
)

// Provider supplies the values of the properties it holds scripts for.
// Attached as a handler, it serves every descriptor whose primary or
// alternate name has a script
type Provider struct {
	env     *Env
	scripts map[api.Name]string
}

var (
	ErrNoScript    = errors.New("no script for property")
	ErrResultShape = errors.New("script result does not match shape")
)

var identifierInvalid = regexp.MustCompile(`[^A-Za-z0-9_]`)

var _ api.ValueProvider = (*Provider)(nil)

// NewProvider returns a provider running the given scripts in env
func NewProvider(env *Env, scripts map[api.Name]string) *Provider {
	return &Provider{
		env:     env,
		scripts: maps.Clone(scripts),
	}
}

// Names returns the sorted names of the scripted properties
func (p *Provider) Names() []api.Name {
	return slices.Sorted(maps.Keys(p.scripts))
}

// IsHandling implements api.ValueProvider
func (p *Provider) IsHandling(d *api.Descriptor) bool {
	_, ok := p.script(d)
	return ok
}

// Get implements api.ValueProvider. The property's dependencies are read
// through the activity context and passed to the script
func (p *Provider) Get(
	ac api.ActivityContext, d *api.Descriptor,
) (any, error) {
	src, ok := p.script(d)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoScript, d.Name)
	}

	argNames := Identifiers(d.Dependencies)
	args := make([]any, len(d.Dependencies))
	for i, dep := range d.Dependencies {
		v, _, err := ac.Property(dep)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	c, err := p.env.Compile(src, argNames)
	if err != nil {
		return nil, err
	}
	res, err := p.env.Run(c, args)
	if err != nil {
		slog.Warn("Script failed",
			log.FlowKey(ac.LookupKey()),
			log.Property(d.Name),
			log.Error(err))
		return nil, err
	}
	slog.Debug("Script evaluated",
		log.FlowKey(ac.LookupKey()),
		log.Property(d.Name))
	return Coerce(d.Shape, res)
}

// Validate compiles the script of every named property against its
// dependencies, so syntax errors surface when definitions load
func (p *Provider) Validate(deps map[api.Name][]api.Name) error {
	for name, src := range p.scripts {
		if _, err := p.env.Compile(src, Identifiers(deps[name])); err != nil {
			return fmt.Errorf("%w: %q", err, name)
		}
	}
	return nil
}

func (p *Provider) script(d *api.Descriptor) (string, bool) {
	for _, n := range d.Names() {
		if src, ok := p.scripts[n]; ok {
			return src, true
		}
	}
	return "", false
}

// Identifiers maps property names to the Lua locals they are bound to
func Identifiers(names []api.Name) []string {
	res := make([]string, len(names))
	for i, n := range names {
		res[i] = identifierInvalid.ReplaceAllString(string(n), "_")
	}
	return res
}
