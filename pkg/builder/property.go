package builder

import (
	"log/slog"
	"slices"

	"github.com/kode4food/argyll/wizard/pkg/api"
	"github.com/kode4food/argyll/wizard/pkg/log"
)

// Property builds a complete api.Descriptor
type Property struct {
	name         api.Name
	alternates   []api.Name
	phase        api.RequiredPhase
	scope        api.Scope
	usage        api.Usage
	access       api.AccessRestriction
	shape        *api.Shape
	autoCreate   *bool
	saveBack     *bool
	initial      string
	provider     api.ValueProvider
	persister    api.Persister
	dependencies []api.Name
	expectations []*Expectation
	handlers     []any

	implicitPersister bool
}

// NewProperty creates a property builder for the named property
func NewProperty(name api.Name) *Property {
	return &Property{name: name}
}

func (p *Property) WithAlternates(names ...api.Name) *Property {
	res := *p
	res.alternates = append(slices.Clone(p.alternates), names...)
	return &res
}

func (p *Property) WithPhase(phase api.RequiredPhase) *Property {
	res := *p
	res.phase = phase
	return &res
}

func (p *Property) WithScope(scope api.Scope) *Property {
	res := *p
	res.scope = scope
	return &res
}

func (p *Property) WithUsage(usage api.Usage) *Property {
	res := *p
	res.usage = usage
	return &res
}

// WithScopeAndUsage sets both at once, mirroring api.Descriptor
func (p *Property) WithScopeAndUsage(
	scope api.Scope, usage api.Usage,
) *Property {
	return p.WithScope(scope).WithUsage(usage)
}

func (p *Property) WithAccess(access api.AccessRestriction) *Property {
	res := *p
	res.access = access
	return &res
}

func (p *Property) WithShape(shape *api.Shape) *Property {
	res := *p
	res.shape = shape
	return &res
}

func (p *Property) WithAutoCreate(autoCreate bool) *Property {
	res := *p
	res.autoCreate = &autoCreate
	return &res
}

func (p *Property) WithSaveBack(saveBack bool) *Property {
	res := *p
	res.saveBack = &saveBack
	return &res
}

// WithInitial sets the serialized static initial value
func (p *Property) WithInitial(initial string) *Property {
	res := *p
	res.initial = initial
	return &res
}

func (p *Property) WithProvider(provider api.ValueProvider) *Property {
	res := *p
	res.provider = provider
	return &res
}

// WithPersister attaches a persister explicitly. Building fails if the
// property's usage does not propagate changes
func (p *Property) WithPersister(persister api.Persister) *Property {
	res := *p
	res.persister = persister
	res.implicitPersister = false
	return &res
}

func (p *Property) WithDependencies(names ...api.Name) *Property {
	res := *p
	res.dependencies = append(slices.Clone(p.dependencies), names...)
	return &res
}

// WithExpectations appends expectation fragments, in priority order
func (p *Property) WithExpectations(es ...*Expectation) *Property {
	res := *p
	res.expectations = append(slices.Clone(p.expectations), es...)
	return &res
}

// WithHandlers offers candidate value providers and persisters. A handler
// is attached when no provider (or persister) is set and it reports that
// it handles the built descriptor
func (p *Property) WithHandlers(handlers ...any) *Property {
	res := *p
	res.handlers = append(slices.Clone(p.handlers), handlers...)
	return &res
}

// Name returns the primary name of the property being built
func (p *Property) Name() api.Name {
	return p.name
}

// Build fills every unset field, from the expectations first and then from
// the defaults, and validates the result
func (p *Property) Build() (*api.Descriptor, error) {
	res := *p
	for _, e := range p.expectations {
		e.fill(&res)
	}
	res.applyDefaults()

	d := res.descriptor()
	res.attachHandlers(d)
	if d.Persister != nil && res.implicitPersister && d.Usage.IsReadOnly() {
		d.Persister = nil
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if d.Scope.IsDeprecated() {
		slog.Warn("Deprecated property scope",
			log.Property(d.Name),
			slog.String("scope", string(d.Scope)))
	}
	return d, nil
}

func (p *Property) applyDefaults() {
	if p.phase == "" {
		p.phase = api.PhaseOptional
	}
	if p.scope == "" {
		p.scope = api.ScopeFlowLocal
	}
	if p.usage == "" {
		p.usage = api.UsageUse
	}
	if p.access == "" {
		p.access = api.DefaultAccess(p.usage)
	}
	if p.autoCreate == nil {
		switch {
		case p.shape.IsPrimitive():
			p.autoCreate = boolRef(true)
		case !p.shape.IsCollection():
			p.autoCreate = boolRef(false)
		}
	}
	if p.saveBack == nil &&
		(p.shape.IsCollection() || p.shape != nil && p.shape.SelfRendering) {
		p.saveBack = boolRef(true)
	}
}

func (p *Property) descriptor() *api.Descriptor {
	return &api.Descriptor{
		Name:         p.name,
		Alternates:   slices.Clone(p.alternates),
		Phase:        p.phase,
		Scope:        p.scope,
		Usage:        p.usage,
		Access:       p.access,
		Shape:        p.shape,
		AutoCreate:   p.autoCreate,
		SaveBack:     p.saveBack,
		Initial:      p.initial,
		Provider:     p.provider,
		Persister:    p.persister,
		Dependencies: slices.Clone(p.dependencies),
	}
}

func (p *Property) attachHandlers(d *api.Descriptor) {
	for _, h := range p.handlers {
		if vp, ok := h.(api.ValueProvider); ok && d.Provider == nil &&
			vp.IsHandling(d) {
			d.Provider = vp
		}
		if ps, ok := h.(api.Persister); ok && d.Persister == nil &&
			ps.IsPersisting(d) {
			d.Persister = ps
			p.implicitPersister = true
		}
	}
}

func boolRef(b bool) *bool {
	return &b
}
