package rack

import (
	"fmt"

	"pipelined.dev/rack/internal/schedule"
	"pipelined.dev/rack/module"
)

type (
	// Schedule is the execution order of the patch.
	Schedule struct {
		// Order contains module ids.
		Order []string
		// Deferred contains ids of cables which deliver the value of
		// the previous block.
		Deferred map[string]bool
	}

	// routing is the cached plan of block processing.
	routing struct {
		schedule Schedule
		steps    []step
		lags     []lag
	}

	// step binds inputs of a single instance and processes it.
	step struct {
		inst     *module.Instance
		bindings []binding
	}

	// binding of an input port. Nil buffer means the port is not
	// connected.
	binding struct {
		port int
		buf  module.Buffer
	}

	// lag carries the output of the deferred cable source into the lag
	// buffer at the end of the block.
	lag struct {
		src module.Buffer
		dst module.Buffer
	}
)

// Schedule returns current execution order and deferred cables. The
// schedule is rebuilt if the patch has changed.
func (e *Engine) Schedule() Schedule {
	e.route()
	s := Schedule{
		Order:    make([]string, len(e.routing.schedule.Order)),
		Deferred: make(map[string]bool, len(e.routing.schedule.Deferred)),
	}
	copy(s.Order, e.routing.schedule.Order)
	for id, deferred := range e.routing.schedule.Deferred {
		s.Deferred[id] = deferred
	}
	return s
}

// route rebuilds the routing if the patch has changed.
func (e *Engine) route() {
	if !e.dirty {
		return
	}
	index := make(map[*module.Instance]int, len(e.modules))
	for i, inst := range e.modules {
		index[inst] = i
	}
	edges := make([]schedule.Edge, len(e.cables))
	for i, c := range e.cables {
		edges[i] = schedule.Edge{From: index[c.src], To: index[c.dst]}
	}
	s := schedule.Build(len(e.modules), edges)

	r := routing{
		schedule: Schedule{
			Order:    make([]string, 0, len(s.Order)),
			Deferred: make(map[string]bool, len(e.cables)),
		},
		steps: make([]step, 0, len(s.Order)),
	}
	lags := make(map[string]module.Buffer)
	for i, c := range e.cables {
		r.schedule.Deferred[c.ID] = s.Deferred[i]
		if !s.Deferred[i] {
			continue
		}
		buf, ok := e.lags[c.ID]
		if !ok {
			buf = make(module.Buffer, e.cfg.BlockSize)
			copy(buf, c.src.OutputAt(c.srcPort))
		}
		lags[c.ID] = buf
		r.lags = append(r.lags, lag{src: c.src.OutputAt(c.srcPort), dst: buf})
	}
	for _, n := range s.Order {
		inst := e.modules[n]
		st := step{
			inst:     inst,
			bindings: make([]binding, len(inst.Descriptor().Inputs)),
		}
		for port, spec := range inst.Descriptor().Inputs {
			st.bindings[port].port = port
			c, ok := e.dest[Endpoint{Module: inst.ID(), Port: spec.Name}]
			if !ok {
				continue
			}
			if r.schedule.Deferred[c.ID] {
				st.bindings[port].buf = lags[c.ID]
			} else {
				st.bindings[port].buf = c.src.OutputAt(c.srcPort)
			}
		}
		r.steps = append(r.steps, st)
		r.schedule.Order = append(r.schedule.Order, inst.ID())
	}
	e.routing = r
	e.lags = lags
	e.dirty = false
	e.log.Debug(fmt.Sprintf("%s: schedule rebuilt: %d modules, %d cables, %d deferred", e.name, len(r.steps), len(e.cables), len(r.lags)))
}

// bind connects input ports of the step. Unconnected ports which still
// alias foreign data are released.
func (st *step) bind() {
	for _, b := range st.bindings {
		if b.buf != nil {
			st.inst.Bind(b.port, b.buf)
			continue
		}
		if st.inst.Bound(b.port) {
			st.inst.Release(b.port)
		}
	}
}

// update copies deferred outputs into lag buffers.
func (r *routing) update() {
	for _, l := range r.lags {
		copy(l.dst, l.src)
	}
}

// clearLags zeroes every lag buffer.
func (e *Engine) clearLags() {
	for _, buf := range e.lags {
		buf.Fill(0)
	}
}
