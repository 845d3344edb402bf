// Package patch persists the state of an engine as a document.
//
// A document lists modules with their parameters and the cables between
// them. Loading is tolerant: anything that cannot be restored is
// reported in diagnostics and skipped, the rest of the patch is loaded.
package patch

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"pipelined.dev/rack"
	"pipelined.dev/rack/module"
)

// Version of the document format.
const Version = 1

var (
	// ErrUnsupportedFormat is returned when document format is unknown.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrParamRange is reported when persisted parameter value is out of
	// range and was clamped.
	ErrParamRange = errors.New("parameter out of range")
	// ErrInputConnected is reported when document has more than one cable
	// to the same input. The last cable is kept.
	ErrInputConnected = errors.New("input already connected")
)

type (
	// Document is a persisted patch.
	Document struct {
		Version int      `yaml:"version" json:"version"`
		Modules []Module `yaml:"modules" json:"modules"`
		Cables  []Cable  `yaml:"cables,omitempty" json:"cables,omitempty"`
	}

	// Module is a persisted module instance. Continuous parameters are
	// stored in Params, discrete ones in Switches.
	Module struct {
		Type     string             `yaml:"type" json:"type"`
		ID       string             `yaml:"id" json:"id"`
		Label    string             `yaml:"label,omitempty" json:"label,omitempty"`
		X        float64            `yaml:"x,omitempty" json:"x,omitempty"`
		Y        float64            `yaml:"y,omitempty" json:"y,omitempty"`
		Params   map[string]float64 `yaml:"params,flow,omitempty" json:"params,omitempty"`
		Switches map[string]int     `yaml:"switches,flow,omitempty" json:"switches,omitempty"`
	}

	// Cable is a persisted cable.
	Cable struct {
		From     string `yaml:"from" json:"from"`
		FromPort string `yaml:"fromPort" json:"fromPort"`
		To       string `yaml:"to" json:"to"`
		ToPort   string `yaml:"toPort" json:"toPort"`
	}

	// Diagnostics lists problems found while loading a document.
	Diagnostics []error
)

func (d Diagnostics) Error() string {
	s := make([]string, 0, len(d))
	for _, err := range d {
		s = append(s, err.Error())
	}
	return strings.Join(s, "\n")
}

// Is checks if any of diagnostics match provided sentinel error.
func (d Diagnostics) Is(err error) bool {
	for _, e := range d {
		if errors.Is(e, err) {
			return true
		}
	}
	return false
}

// Err returns untyped nil if there are no diagnostics.
func (d Diagnostics) Err() error {
	if len(d) > 0 {
		return d
	}
	return nil
}

// Save captures modules, parameters and cables of the engine.
func Save(e *rack.Engine) Document {
	doc := Document{
		Version: Version,
		Modules: make([]Module, 0, len(e.Modules())),
	}
	for _, inst := range e.Modules() {
		m := Module{
			Type:  inst.Type(),
			ID:    inst.ID(),
			Label: inst.Label,
			X:     inst.X,
			Y:     inst.Y,
		}
		for _, p := range inst.Descriptor().Params {
			v, _ := inst.Param(p.Name)
			if p.Unit.Discrete() {
				if m.Switches == nil {
					m.Switches = make(map[string]int)
				}
				m.Switches[p.Name] = int(math.Round(v))
				continue
			}
			if m.Params == nil {
				m.Params = make(map[string]float64)
			}
			m.Params[p.Name] = v
		}
		doc.Modules = append(doc.Modules, m)
	}
	for _, c := range e.Connections() {
		doc.Cables = append(doc.Cables, Cable{
			From:     c.FromModule,
			FromPort: c.FromPort,
			To:       c.ToModule,
			ToPort:   c.ToPort,
		})
	}
	return doc
}

// Load restores the document into the engine. Modules of unknown types
// and cables which reference missing modules or ports are dropped.
// Parameter values are clamped to their ranges and unknown parameters
// are skipped. A cable to an already connected input replaces the
// previous one. Every such problem is returned in diagnostics.
func Load(e *rack.Engine, doc Document) Diagnostics {
	var diag Diagnostics
	if doc.Version > Version {
		diag = append(diag, fmt.Errorf("document version %d is newer than %d", doc.Version, Version))
	}
	for _, m := range doc.Modules {
		inst, err := e.AddModule(m.Type, m.ID)
		if err != nil {
			diag = append(diag, fmt.Errorf("module %q: %w", m.ID, err))
			continue
		}
		inst.Meta = module.Meta{Label: m.Label, X: m.X, Y: m.Y}
		for _, name := range sortedKeys(m.Params) {
			diag = setParam(inst, name, m.Params[name], diag)
		}
		for _, name := range sortedKeys(m.Switches) {
			diag = setParam(inst, name, float64(m.Switches[name]), diag)
		}
	}
	inputs := make(map[rack.Endpoint]rack.Endpoint, len(doc.Cables))
	for _, c := range doc.Cables {
		from := rack.Endpoint{Module: c.From, Port: c.FromPort}
		to := rack.Endpoint{Module: c.To, Port: c.ToPort}
		if _, err := e.AddCable(from, to); err != nil {
			diag = append(diag, fmt.Errorf("cable %s -> %s: %w", from, to, err))
			continue
		}
		if prev, ok := inputs[to]; ok {
			diag = append(diag, fmt.Errorf("cable %s -> %s replaces %s: %w", from, to, prev, ErrInputConnected))
		}
		inputs[to] = from
	}
	return diag
}

func setParam(inst *module.Instance, name string, v float64, diag Diagnostics) Diagnostics {
	d := inst.Descriptor()
	i := d.Param(name)
	if i < 0 {
		return append(diag, fmt.Errorf("module %q: %s: %w", inst.ID(), name, module.ErrUnknownParam))
	}
	spec := d.Params[i]
	if clamped := spec.Clamp(v); clamped != v {
		diag = append(diag, fmt.Errorf("module %q: %s %v clamped to %v: %w", inst.ID(), name, v, clamped, ErrParamRange))
	}
	// name is known
	_ = inst.SetParam(name, v)
	return diag
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
