package alerts

import (
	"sync"
	"time"
)

// Registry хранит отпечатки уже опубликованных алертов. API отдает весь
// торговый день целиком, поэтому каждый алерт приходит в каждом ответе
// повторно. Отпечатки старше окна свежести вычищаются: такие алерты
// и так отбрасываются фильтром по времени.
type Registry struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

// NewRegistry создает пустой реестр отпечатков.
func NewRegistry() *Registry {
	return &Registry{seen: make(map[string]time.Time)}
}

// Seen сообщает, был ли алерт с таким отпечатком уже опубликован.
func (r *Registry) Seen(fingerprint string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.seen[fingerprint]
	return ok
}

// Add запоминает отпечаток алерта вместе с временем его события.
func (r *Registry) Add(fingerprint string, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen[fingerprint] = at
}

// Prune удаляет отпечатки алертов, событие которых старше cutoff.
func (r *Registry) Prune(cutoff time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for fingerprint, at := range r.seen {
		if at.Before(cutoff) {
			delete(r.seen, fingerprint)
		}
	}
}
