package http

import (
	"sync"
	"time"

	"roi-widget/service"
)

const (
	controllerIdleTTL      = 30 * time.Minute
	controllerEvictionTick = 5 * time.Minute
)

// ControllerRegistry keeps one LeadController per form instance so the
// in-flight guard spans every request for that form.
type ControllerRegistry struct {
	mu          sync.Mutex
	controllers map[string]*service.LeadController
	newFn       func(formID string) *service.LeadController
	idleTTL     time.Duration
	now         func() time.Time
	stop        chan struct{}
	stopOnce    sync.Once
}

func NewControllerRegistry(newFn func(formID string) *service.LeadController) *ControllerRegistry {
	reg := &ControllerRegistry{
		controllers: make(map[string]*service.LeadController),
		newFn:       newFn,
		idleTTL:     controllerIdleTTL,
		now:         time.Now,
		stop:        make(chan struct{}),
	}
	go reg.evictLoop()
	return reg
}

// Get returns the controller for formID, creating it on first use. The
// controller is stamped as used before the lock is released, so an
// eviction tick cannot drop it between Get and Submit.
func (g *ControllerRegistry) Get(formID string) *service.LeadController {
	g.mu.Lock()
	defer g.mu.Unlock()

	c, ok := g.controllers[formID]
	if !ok {
		c = g.newFn(formID)
		g.controllers[formID] = c
	}
	c.Touch(g.now())
	return c
}

func (g *ControllerRegistry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.controllers)
}

func (g *ControllerRegistry) evictLoop() {
	ticker := time.NewTicker(controllerEvictionTick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.evictIdle()
		case <-g.stop:
			return
		}
	}
}

// evictIdle drops controllers idle for longer than idleTTL. Controllers
// with a submission in flight are never dropped.
func (g *ControllerRegistry) evictIdle() {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	for id, c := range g.controllers {
		since, idle := c.IdleSince()
		if idle && now.Sub(since) > g.idleTTL {
			delete(g.controllers, id)
		}
	}
}

func (g *ControllerRegistry) Stop() {
	g.stopOnce.Do(func() { close(g.stop) })
}
