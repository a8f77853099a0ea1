package definition

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/fsmkit/pkg/statemachine"
)

// Definition is the authored description of one machine.
type Definition struct {
	Name           string      `yaml:"name"`
	Dispatch       []string    `yaml:"dispatch,omitempty"`
	ExitOnTeardown *bool       `yaml:"exit_on_teardown,omitempty"`
	Reentrancy     string      `yaml:"reentrancy,omitempty"`
	States         []StateDef  `yaml:"states"`
	Globals        []GlobalDef `yaml:"globals,omitempty"`
}

type StateDef struct {
	Name      string        `yaml:"name"`
	Callbacks []CallbackDef `yaml:"callbacks,omitempty"`
}

// CallbackDef describes a callback. Conditions are phase names; actions are
// names resolved through an ActionRegistry.
type CallbackDef struct {
	Name       string   `yaml:"name"`
	ID         string   `yaml:"id,omitempty"`
	Conditions []string `yaml:"conditions"`
	Active     *bool    `yaml:"active,omitempty"`
	Actions    []string `yaml:"actions,omitempty"`
}

type GlobalDef struct {
	CallbackDef `yaml:",inline"`
	Ignore      []string `yaml:"ignore,omitempty"`
}

// Parse decodes a YAML definition and validates it.
func Parse(ctx context.Context, data []byte) (*Definition, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Join(ErrParsingCancelled, err)
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, errors.Join(ErrInvalidYAML, err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

// Load reads a YAML definition from r.
func Load(ctx context.Context, r io.Reader) (*Definition, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read definition: %w", err)
	}
	return Parse(ctx, data)
}

// LoadFile reads a YAML definition from path.
func LoadFile(ctx context.Context, path string) (*Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open definition: %w", err)
	}
	defer f.Close()
	return Load(ctx, f)
}

// Validate checks the parts the machine cannot check itself: names and phase spellings.
// Duplicate state names are allowed and resolve to the first occurrence.
func (d *Definition) Validate() error {
	if len(d.States) == 0 {
		return ErrNoStates
	}
	if _, err := statemachine.ParsePhases(d.Dispatch...); err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}
	if d.Reentrancy != "" {
		var r statemachine.Reentrancy
		if err := r.UnmarshalText([]byte(d.Reentrancy)); err != nil {
			return err
		}
	}
	for i, s := range d.States {
		if s.Name == "" {
			return fmt.Errorf("%w: states[%d]", ErrMissingName, i)
		}
		for j, cb := range s.Callbacks {
			if err := cb.validate(); err != nil {
				return fmt.Errorf("states[%d] %q callbacks[%d]: %w", i, s.Name, j, err)
			}
		}
	}
	for i, g := range d.Globals {
		if err := g.validate(); err != nil {
			return fmt.Errorf("globals[%d]: %w", i, err)
		}
	}
	return nil
}

func (c CallbackDef) validate() error {
	if c.Name == "" {
		return ErrMissingName
	}
	_, err := statemachine.ParsePhases(c.Conditions...)
	return err
}

// Options converts the definition into machine options, binding action names
// through actions. Unknown action names fail with ErrUnknownAction.
func (d *Definition) Options(actions ActionRegistry) ([]statemachine.Option, error) {
	states := make([]*statemachine.State, 0, len(d.States))
	for _, sd := range d.States {
		callbacks := make([]*statemachine.Callback, 0, len(sd.Callbacks))
		for _, cd := range sd.Callbacks {
			phases, opts, err := cd.build(actions)
			if err != nil {
				return nil, fmt.Errorf("state %q: %w", sd.Name, err)
			}
			callbacks = append(callbacks, statemachine.NewCallback(cd.Name, phases, opts...))
		}
		states = append(states, statemachine.NewState(sd.Name, callbacks...))
	}

	globals := make([]*statemachine.GlobalCallback, 0, len(d.Globals))
	for _, gd := range d.Globals {
		phases, opts, err := gd.build(actions)
		if err != nil {
			return nil, fmt.Errorf("global: %w", err)
		}
		globals = append(globals, statemachine.NewGlobalCallback(gd.Name, phases, gd.Ignore, opts...))
	}

	opts := []statemachine.Option{
		statemachine.WithStates(states...),
		statemachine.WithGlobalCallbacks(globals...),
	}
	if len(d.Dispatch) > 0 {
		mask, err := statemachine.ParsePhases(d.Dispatch...)
		if err != nil {
			return nil, err
		}
		opts = append(opts, statemachine.WithDispatchMask(mask))
	}
	if d.ExitOnTeardown != nil {
		opts = append(opts, statemachine.WithExitOnTeardown(*d.ExitOnTeardown))
	}
	if d.Reentrancy != "" {
		var r statemachine.Reentrancy
		if err := r.UnmarshalText([]byte(d.Reentrancy)); err != nil {
			return nil, err
		}
		opts = append(opts, statemachine.WithReentrancy(r))
	}
	return opts, nil
}

func (c CallbackDef) build(actions ActionRegistry) (statemachine.Phase, []statemachine.CallbackOption, error) {
	phases, err := statemachine.ParsePhases(c.Conditions...)
	if err != nil {
		return statemachine.PhaseNone, nil, fmt.Errorf("callback %q: %w", c.Name, err)
	}

	listeners := make([]statemachine.Action, 0, len(c.Actions))
	for _, name := range c.Actions {
		a, ok := actions[name]
		if !ok {
			return statemachine.PhaseNone, nil, fmt.Errorf("callback %q: %w: %q", c.Name, ErrUnknownAction, name)
		}
		listeners = append(listeners, a)
	}

	opts := []statemachine.CallbackOption{
		statemachine.WithCallbackID(c.ID),
		statemachine.WithListeners(listeners...),
	}
	if c.Active != nil && !*c.Active {
		opts = append(opts, statemachine.Inactive())
	}
	return phases, opts, nil
}

// Build creates a machine from the definition. base options are applied first,
// so authored settings override host defaults such as statemachine.WithConfig.
func Build(d *Definition, actions ActionRegistry, base ...statemachine.Option) (*statemachine.Machine, error) {
	opts, err := d.Options(actions)
	if err != nil {
		return nil, err
	}
	all := make([]statemachine.Option, 0, len(base)+len(opts))
	all = append(all, base...)
	return statemachine.New(d.Name, append(all, opts...)...)
}
