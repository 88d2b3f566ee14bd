package signaling

import "sort"

// Registry maps a display name to the live client holding it.
// It is owned by the hub goroutine and is not safe for concurrent use.
type Registry struct {
	clients map[string]*Client
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]*Client)}
}

// Register claims name for c. Names are compared exactly.
func (r *Registry) Register(name string, c *Client) error {
	if _, taken := r.clients[name]; taken {
		return ErrNameTaken
	}
	r.clients[name] = c
	c.Name = name
	return nil
}

func (r *Registry) Lookup(name string) (*Client, bool) {
	c, ok := r.clients[name]
	return c, ok
}

// Unregister removes name. Removing an absent name is a no-op.
func (r *Registry) Unregister(name string) {
	delete(r.clients, name)
}

func (r *Registry) Len() int {
	return len(r.clients)
}

// Names returns the registered names in sorted order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
