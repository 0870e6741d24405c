package document

import (
	"fmt"
	"sync"
)

// RegisterHook fires once per model when it is first registered on a
// connection.
type RegisterHook func(*Model)

// Connection is the registry of every model set up against one storage
// backend. Plugins install named administrative functions on it so a single
// call can retune every registered model.
type Connection struct {
	mu     sync.RWMutex
	models map[string]*Model
	order  []string
	funcs  map[string]func(string)
	hooks  []RegisterHook
}

// NewConnection constructs an empty connection registry.
func NewConnection() *Connection {
	return &Connection{
		models: map[string]*Model{},
		funcs:  map[string]func(string){},
	}
}

// Register adds model to the registry and fires registration hooks. A model
// name can only be registered once per connection.
func (c *Connection) Register(model *Model) error {
	if model == nil {
		return fmt.Errorf("document: model must not be nil")
	}
	c.mu.Lock()
	if _, exists := c.models[model.Name()]; exists {
		c.mu.Unlock()
		return fmt.Errorf("document: model %q already registered", model.Name())
	}
	c.models[model.Name()] = model
	c.order = append(c.order, model.Name())
	hooks := append([]RegisterHook(nil), c.hooks...)
	c.mu.Unlock()

	for _, hook := range hooks {
		if hook != nil {
			hook(model)
		}
	}
	return nil
}

// Model looks up a registered model by name.
func (c *Connection) Model(name string) (*Model, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	model, ok := c.models[name]
	return model, ok
}

// Models returns registered models in registration order.
func (c *Connection) Models() []*Model {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Model, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.models[name])
	}
	return out
}

// OnRegister subscribes hook to future model registrations.
func (c *Connection) OnRegister(hook RegisterHook) {
	if hook == nil {
		return
	}
	c.mu.Lock()
	c.hooks = append(c.hooks, hook)
	c.mu.Unlock()
}

// InstallFunction stores fn under name unless one is already installed,
// reporting whether the installation happened. The check-before-install
// semantics keep repeated plugin setups from redefining each other.
func (c *Connection) InstallFunction(name string, fn func(string)) bool {
	if name == "" || fn == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.funcs[name]; exists {
		return false
	}
	c.funcs[name] = fn
	return true
}

// Function looks up an installed connection function by name.
func (c *Connection) Function(name string) (func(string), bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn, ok := c.funcs[name]
	return fn, ok
}

// Call invokes the installed function for name with arg, reporting whether a
// function was installed. Missing functions are a quiet no-op.
func (c *Connection) Call(name, arg string) bool {
	fn, ok := c.Function(name)
	if !ok {
		return false
	}
	fn(arg)
	return true
}

var (
	defaultConnectionOnce sync.Once
	defaultConnection     *Connection
)

// Default returns the process-wide default connection, initialised exactly
// once on first use.
func Default() *Connection {
	defaultConnectionOnce.Do(func() {
		defaultConnection = NewConnection()
	})
	return defaultConnection
}
