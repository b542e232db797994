package definition

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"

	"github.com/kode4food/lru"
	"gopkg.in/yaml.v3"

	"github.com/kode4food/argyll/wizard/internal/script"
	"github.com/kode4food/argyll/wizard/pkg/api"
	"github.com/kode4food/argyll/wizard/pkg/builder"
	"github.com/kode4food/argyll/wizard/pkg/log"
)

type (
	// YAMLSource is an api.DefinitionSource backed by parsed YAML flow
	// declarations
	YAMLSource struct {
		specs     map[string]*FlowSpec
		cache     *lru.Cache[*api.FlowDefinition]
		scripts   *script.Env
		persister api.Persister
	}

	// Option configures a YAMLSource
	Option func(*YAMLSource)
)

const DefaultCacheSize = 256

var (
	ErrDuplicateFlow = errors.New("duplicate flow declaration")
	ErrNoScriptEnv   = errors.New("scripted property without script env")
	ErrNoPersister   = errors.New("persisted property without persister")
)

var _ api.DefinitionSource = (*YAMLSource)(nil)

// WithCacheSize bounds the number of built definitions kept in memory
func WithCacheSize(size int) Option {
	return func(s *YAMLSource) {
		s.cache = lru.NewCache[*api.FlowDefinition](size)
	}
}

// WithScripts runs property scripts in env
func WithScripts(env *script.Env) Option {
	return func(s *YAMLSource) {
		s.scripts = env
	}
}

// WithPersister attaches p to every property declared with persist: true
func WithPersister(p api.Persister) Option {
	return func(s *YAMLSource) {
		s.persister = p
	}
}

// Load parses a YAML document. Unknown fields are rejected
func Load(r io.Reader, opts ...Option) (*YAMLSource, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", api.ErrInvalidDefinition, err)
	}

	s := &YAMLSource{
		specs: map[string]*FlowSpec{},
		cache: lru.NewCache[*api.FlowDefinition](DefaultCacheSize),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, f := range doc.Flows {
		if _, ok := s.specs[f.Name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateFlow, f.Name)
		}
		s.specs[f.Name] = f
	}
	return s, nil
}

// LoadFile parses the YAML document at path
func LoadFile(path string, opts ...Option) (*YAMLSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return Load(f, opts...)
}

// FlowTypes returns the sorted names of the declared flows
func (s *YAMLSource) FlowTypes() []string {
	return slices.Sorted(maps.Keys(s.specs))
}

// FlowDefinition implements api.DefinitionSource
func (s *YAMLSource) FlowDefinition(
	flowType string,
) (*api.FlowDefinition, error) {
	spec, ok := s.specs[flowType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", api.ErrFlowNotFound, flowType)
	}
	return s.cache.Get(flowType, func() (*api.FlowDefinition, error) {
		def, err := s.build(spec)
		if err != nil {
			return nil, err
		}
		slog.Debug("Flow definition built",
			log.FlowType(flowType),
			slog.Int("activities", len(def.Activities)))
		return def, nil
	})
}

// Validate builds every declared flow and checks that every next flow it
// names is declared
func (s *YAMLSource) Validate() error {
	var errs []error
	for _, name := range s.FlowTypes() {
		def, err := s.FlowDefinition(name)
		if err != nil {
			errs = append(errs, fmt.Errorf("flow %q: %w", name, err))
			continue
		}
		for _, a := range def.Activities {
			if a.NextFlow == "" {
				continue
			}
			if _, ok := s.specs[a.NextFlow]; !ok {
				errs = append(errs, fmt.Errorf("%w: %q names next flow %q",
					api.ErrInvalidDefinition, a.Name, a.NextFlow))
			}
		}
	}
	return errors.Join(errs...)
}

func (s *YAMLSource) build(spec *FlowSpec) (*api.FlowDefinition, error) {
	scripts, err := s.scriptProvider(spec)
	if err != nil {
		return nil, err
	}

	props, err := s.properties(spec.Properties, scripts)
	if err != nil {
		return nil, err
	}
	f := builder.NewFlow(spec.Name).
		WithPage(spec.Page).
		WithProperties(props...)

	for _, as := range spec.Activities {
		props, err := s.properties(as.Properties, scripts)
		if err != nil {
			return nil, err
		}
		a := builder.NewActivity(as.Name).
			WithPage(as.Page).
			WithNextFlow(as.NextFlow).
			WithProperties(props...)
		if as.Type != "" {
			a = a.WithType(as.Type)
		}
		if as.Invisible {
			a = a.Invisible()
		}
		f = f.WithActivities(a)
	}
	return f.Build()
}

// scriptProvider gathers every script of a flow into one provider, so that
// activities declaring the same scripted property share its provider
func (s *YAMLSource) scriptProvider(spec *FlowSpec) (*script.Provider, error) {
	scripts := map[api.Name]string{}
	deps := map[api.Name][]api.Name{}
	collect := func(ps []*PropertySpec) {
		for _, p := range ps {
			if p.Script == "" {
				continue
			}
			if _, ok := scripts[p.Name]; !ok {
				scripts[p.Name] = p.Script
				deps[p.Name] = p.Dependencies
			}
		}
	}
	collect(spec.Properties)
	for _, a := range spec.Activities {
		collect(a.Properties)
	}
	if len(scripts) == 0 {
		return nil, nil
	}
	if s.scripts == nil {
		return nil, fmt.Errorf("%w: flow %q", ErrNoScriptEnv, spec.Name)
	}
	p := script.NewProvider(s.scripts, scripts)
	if err := p.Validate(deps); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *YAMLSource) properties(
	specs []*PropertySpec, scripts *script.Provider,
) ([]*builder.Property, error) {
	res := make([]*builder.Property, 0, len(specs))
	for _, ps := range specs {
		p, err := s.property(ps, scripts)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, nil
}

func (s *YAMLSource) property(
	ps *PropertySpec, scripts *script.Provider,
) (*builder.Property, error) {
	p := builder.NewProperty(ps.Name).
		WithAlternates(ps.Alternates...).
		WithDependencies(ps.Dependencies...)
	if ps.Phase != "" {
		p = p.WithPhase(ps.Phase)
	}
	if ps.Scope != "" {
		p = p.WithScope(ps.Scope)
	}
	if ps.Usage != "" {
		p = p.WithUsage(ps.Usage)
	}
	if ps.Access != "" {
		p = p.WithAccess(ps.Access)
	}
	if ps.Shape != "" {
		shape, err := api.ParseShape(ps.Shape)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", ps.Name, err)
		}
		p = p.WithShape(shape)
	}
	if ps.AutoCreate != nil {
		p = p.WithAutoCreate(*ps.AutoCreate)
	}
	if ps.SaveBack != nil {
		p = p.WithSaveBack(*ps.SaveBack)
	}
	if ps.Initial != "" {
		p = p.WithInitial(ps.Initial)
	}
	if ps.Script != "" {
		p = p.WithProvider(scripts)
	}
	if ps.Persist {
		if s.persister == nil {
			return nil, fmt.Errorf("%w: %q", ErrNoPersister, ps.Name)
		}
		p = p.WithPersister(s.persister)
	}
	return p, nil
}
