package definition

import "github.com/kode4food/argyll/wizard/pkg/api"

type (
	// Document is the top level of a YAML definition file
	Document struct {
		Flows []*FlowSpec `yaml:"flows"`
	}

	// FlowSpec declares one flow
	FlowSpec struct {
		Name       string          `yaml:"name"`
		Page       string          `yaml:"page,omitempty"`
		Properties []*PropertySpec `yaml:"properties,omitempty"`
		Activities []*ActivitySpec `yaml:"activities"`
	}

	// ActivitySpec declares one activity of a flow
	ActivitySpec struct {
		Name       string          `yaml:"name"`
		Type       string          `yaml:"type,omitempty"`
		Page       string          `yaml:"page,omitempty"`
		Invisible  bool            `yaml:"invisible,omitempty"`
		NextFlow   string          `yaml:"nextFlow,omitempty"`
		Properties []*PropertySpec `yaml:"properties,omitempty"`
	}

	// PropertySpec declares one property. Unset fields take the builder's
	// defaults
	PropertySpec struct {
		Name         api.Name              `yaml:"name"`
		Alternates   []api.Name            `yaml:"alternates,omitempty"`
		Phase        api.RequiredPhase     `yaml:"phase,omitempty"`
		Scope        api.Scope             `yaml:"scope,omitempty"`
		Usage        api.Usage             `yaml:"usage,omitempty"`
		Access       api.AccessRestriction `yaml:"access,omitempty"`
		Shape        string                `yaml:"shape,omitempty"`
		AutoCreate   *bool                 `yaml:"autoCreate,omitempty"`
		SaveBack     *bool                 `yaml:"saveBack,omitempty"`
		Initial      string                `yaml:"initial,omitempty"`
		Dependencies []api.Name            `yaml:"dependencies,omitempty"`
		Script       string                `yaml:"script,omitempty"`
		Persist      bool                  `yaml:"persist,omitempty"`
	}
)
