package devserver

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown IDs
var ErrNotFound = errors.New("not found")

// Catalog is the in-memory data of the development backend
type Catalog struct {
	mu         sync.RWMutex
	components []*Component
	vehicles   []*RailwayVehicle
	files      map[string][]byte
}

// NewCatalog creates an empty catalog
func NewCatalog() *Catalog {
	return &Catalog{files: make(map[string][]byte)}
}

// AddComponent stores a new component
func (c *Catalog) AddComponent(req ComponentRequest) *Component {
	c.mu.Lock()
	defer c.mu.Unlock()

	comp := &Component{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Code:        req.Code,
		Description: req.Description,
		Images:      []string{},
		CreatedAt:   time.Now(),
	}
	c.components = append(c.components, comp)
	return comp
}

// Components returns every component in creation order
func (c *Catalog) Components() []Component {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Component, 0, len(c.components))
	for _, comp := range c.components {
		out = append(out, *comp)
	}
	return out
}

// Component returns one component
func (c *Catalog) Component(id string) (Component, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, comp := range c.components {
		if comp.ID == id {
			return *comp, nil
		}
	}
	return Component{}, ErrNotFound
}

// HasComponentCode reports whether a component already uses code
func (c *Catalog) HasComponentCode(code string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, comp := range c.components {
		if comp.Code == code {
			return true
		}
	}
	return false
}

// DeleteComponent removes a component
func (c *Catalog) DeleteComponent(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, comp := range c.components {
		if comp.ID == id {
			c.components = append(c.components[:i], c.components[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// AddVehicle stores a vehicle task and its images
func (c *Catalog) AddVehicle(model, number string, images map[string][]byte, order []string) *RailwayVehicle {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := &RailwayVehicle{
		ID:        uuid.NewString(),
		Model:     model,
		Number:    number,
		Images:    append([]string{}, order...),
		CreatedAt: time.Now(),
	}
	for name, data := range images {
		c.files[v.ID+"/"+name] = data
	}
	c.vehicles = append(c.vehicles, v)
	return v
}

// Vehicles returns every vehicle task in creation order
func (c *Catalog) Vehicles() []RailwayVehicle {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]RailwayVehicle, 0, len(c.vehicles))
	for _, v := range c.vehicles {
		out = append(out, *v)
	}
	return out
}

// Counts returns the number of components and vehicles
func (c *Catalog) Counts() (components, vehicles int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.components), len(c.vehicles)
}
