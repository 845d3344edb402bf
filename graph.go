package rack

import (
	"fmt"

	"pipelined.dev/rack/module"
)

// AddModule instantiates a module of provided type. If id is empty, a
// unique one is generated.
func (e *Engine) AddModule(typ, id string) (*module.Instance, error) {
	d, ok := e.catalog.Lookup(typ)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, typ)
	}
	if id == "" {
		id = newUID()
	}
	if _, ok := e.byID[id]; ok {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateID, id)
	}
	inst := module.NewInstance(id, e.seq, d, e.cfg)
	e.seq++
	e.modules = append(e.modules, inst)
	e.byID[id] = inst
	e.dirty = true
	e.log.Debug(fmt.Sprintf("%s: added module %s of type %s", e.name, id, typ))
	return inst, nil
}

// RemoveModule removes the module and every cable attached to it.
// Removed cables are returned.
func (e *Engine) RemoveModule(id string) ([]Cable, error) {
	inst, ok := e.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModule, id)
	}
	removed := e.RemoveCablesForModule(id)
	for i := range e.modules {
		if e.modules[i] == inst {
			e.modules = append(e.modules[:i], e.modules[i+1:]...)
			break
		}
	}
	delete(e.byID, id)
	e.dirty = true
	e.log.Debug(fmt.Sprintf("%s: removed module %s with %d cables", e.name, id, len(removed)))
	return removed, nil
}

// Module returns the module instance with provided id.
func (e *Engine) Module(id string) (*module.Instance, bool) {
	inst, ok := e.byID[id]
	return inst, ok
}

// Modules returns all modules in creation order.
func (e *Engine) Modules() []*module.Instance {
	modules := make([]*module.Instance, len(e.modules))
	copy(modules, e.modules)
	return modules
}

// AddCable connects output port to input port. A cable that already
// terminates at the input is replaced.
func (e *Engine) AddCable(from, to Endpoint) (Cable, error) {
	src, ok := e.byID[from.Module]
	if !ok {
		return Cable{}, fmt.Errorf("%w: %q", ErrUnknownModule, from.Module)
	}
	dst, ok := e.byID[to.Module]
	if !ok {
		return Cable{}, fmt.Errorf("%w: %q", ErrUnknownModule, to.Module)
	}
	srcPort := src.Descriptor().Output(from.Port)
	if srcPort < 0 {
		return Cable{}, fmt.Errorf("%w: %s has no output %q", ErrUnknownPort, src.Type(), from.Port)
	}
	dstPort := dst.Descriptor().Input(to.Port)
	if dstPort < 0 {
		return Cable{}, fmt.Errorf("%w: %s has no input %q", ErrUnknownPort, dst.Type(), to.Port)
	}
	if old, ok := e.dest[to]; ok {
		e.remove(old)
	}
	c := &cable{
		Cable: Cable{
			ID:   newUID(),
			From: from,
			To:   to,
			Kind: src.Descriptor().Outputs[srcPort].Kind,
		},
		src:     src,
		dst:     dst,
		srcPort: srcPort,
		dstPort: dstPort,
	}
	e.cables = append(e.cables, c)
	e.cableID[c.ID] = c
	e.dest[to] = c
	e.dirty = true
	e.log.Debug(fmt.Sprintf("%s: added cable %s", e.name, c.Cable))
	return c.Cable, nil
}

// RemoveCable removes the cable with provided id.
func (e *Engine) RemoveCable(id string) (Cable, bool) {
	c, ok := e.cableID[id]
	if !ok {
		return Cable{}, false
	}
	e.remove(c)
	return c.Cable, true
}

// RemoveCableTo removes the cable which terminates at the input.
func (e *Engine) RemoveCableTo(to Endpoint) (Cable, bool) {
	c, ok := e.dest[to]
	if !ok {
		return Cable{}, false
	}
	e.remove(c)
	return c.Cable, true
}

// RemoveCablesForModule removes every cable attached to the module in
// either direction.
func (e *Engine) RemoveCablesForModule(id string) []Cable {
	var removed []Cable
	for i := 0; i < len(e.cables); {
		c := e.cables[i]
		if c.From.Module != id && c.To.Module != id {
			i++
			continue
		}
		// remove shifts the slice
		e.remove(c)
		removed = append(removed, c.Cable)
	}
	return removed
}

func (e *Engine) remove(c *cable) {
	for i := range e.cables {
		if e.cables[i] == c {
			e.cables = append(e.cables[:i], e.cables[i+1:]...)
			break
		}
	}
	delete(e.cableID, c.ID)
	delete(e.dest, c.To)
	e.dirty = true
	e.log.Debug(fmt.Sprintf("%s: removed cable %s", e.name, c.Cable))
}

// Outgoing returns cables which start at the endpoint in creation order.
func (e *Engine) Outgoing(from Endpoint) []Cable {
	var cables []Cable
	for _, c := range e.cables {
		if c.From == from {
			cables = append(cables, c.Cable)
		}
	}
	return cables
}

// Incoming returns the cable which terminates at the endpoint.
func (e *Engine) Incoming(to Endpoint) (Cable, bool) {
	c, ok := e.dest[to]
	if !ok {
		return Cable{}, false
	}
	return c.Cable, true
}

// HasCable returns true if cable with provided id exists.
func (e *Engine) HasCable(id string) bool {
	_, ok := e.cableID[id]
	return ok
}

// Cables returns all cables in creation order.
func (e *Engine) Cables() []Cable {
	cables := make([]Cable, 0, len(e.cables))
	for _, c := range e.cables {
		cables = append(cables, c.Cable)
	}
	return cables
}

// Connections returns all cables as serializable tuples.
func (e *Engine) Connections() []Connection {
	connections := make([]Connection, 0, len(e.cables))
	for _, c := range e.cables {
		connections = append(connections, Connection{
			FromModule: c.From.Module,
			FromPort:   c.From.Port,
			ToModule:   c.To.Module,
			ToPort:     c.To.Port,
		})
	}
	return connections
}

// Connect creates cables from tuples. Tuples which cannot be connected
// are skipped and reported in returned errors.
func (e *Engine) Connect(connections []Connection) []error {
	var errs []error
	for _, conn := range connections {
		_, err := e.AddCable(
			Endpoint{Module: conn.FromModule, Port: conn.FromPort},
			Endpoint{Module: conn.ToModule, Port: conn.ToPort},
		)
		if err != nil {
			errs = append(errs, fmt.Errorf("cable %s.%s -> %s.%s: %w", conn.FromModule, conn.FromPort, conn.ToModule, conn.ToPort, err))
		}
	}
	return errs
}
