package gateway

import (
	"sort"
	"strings"
	"sync"

	inerr "github.com/ivanpodgorny/walletgate/internal/errors"
)

// Factory создаёт адаптер платёжного шлюза.
type Factory func() (Adapter, error)

// Registry сопоставляет идентификаторы платёжных шлюзов с конструкторами адаптеров.
// Адаптер создаётся при первом обращении и переиспользуется.
type Registry struct {
	mu        sync.Mutex
	factories map[string]Factory
	adapters  map[string]Adapter
}

// UnsupportedGatewayError возвращается при запросе незарегистрированного шлюза.
type UnsupportedGatewayError struct {
	Name string
}

func (e *UnsupportedGatewayError) Error() string {
	return "Unsupported payment gateway: " + e.Name
}

func (e *UnsupportedGatewayError) Unwrap() error {
	return inerr.ErrInvalidArgument
}

func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		adapters:  make(map[string]Adapter),
	}
}

// Register добавляет шлюз name. Имя регистрируется без учёта регистра,
// повторная регистрация заменяет конструктор.
func (r *Registry) Register(name string, f Factory) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(name)
	r.factories[key] = f
	delete(r.adapters, key)

	return r
}

// Get возвращает адаптер шлюза name без учёта регистра. Если шлюз не
// зарегистрирован, возвращает *UnsupportedGatewayError.
func (r *Registry) Get(name string) (Adapter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(name)
	if a, ok := r.adapters[key]; ok {
		return a, nil
	}

	f, ok := r.factories[key]
	if !ok {
		return nil, &UnsupportedGatewayError{Name: name}
	}

	a, err := f()
	if err != nil {
		return nil, err
	}
	r.adapters[key] = a

	return a, nil
}

// Names возвращает отсортированный список зарегистрированных шлюзов.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}
