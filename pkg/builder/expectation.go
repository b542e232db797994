package builder

import "github.com/kode4food/argyll/wizard/pkg/api"

// Expectation is a partial property declaration contributed by something
// that consumes the property. Only the fields it sets take part in a build,
// and an earlier expectation's fields win over a later one's
type Expectation struct {
	Scope     api.Scope
	Usage     api.Usage
	Access    api.AccessRestriction
	Shape     *api.Shape
	Provider  api.ValueProvider
	Persister api.Persister
}

func (e *Expectation) fill(p *Property) {
	if p.scope == "" {
		p.scope = e.Scope
	}
	if p.usage == "" {
		p.usage = e.Usage
	}
	if p.access == "" {
		p.access = e.Access
	}
	if p.shape == nil {
		p.shape = e.Shape
	}
	if p.provider == nil {
		p.provider = e.Provider
	}
	if p.persister == nil && e.Persister != nil {
		p.persister = e.Persister
		p.implicitPersister = true
	}
}
