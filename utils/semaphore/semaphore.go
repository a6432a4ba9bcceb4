package semaphore

import "sync"

// Semaphore es un semáforo contador. Cada Signal despierta a exactamente un Wait;
// si nadie está esperando el permiso queda acumulado para el próximo.
type Semaphore struct {
	mu    sync.Mutex
	cond  *sync.Cond
	count int
}

// NewSemaphore crea un semáforo con value permisos iniciales.
func NewSemaphore(value int) *Semaphore {
	if value < 0 {
		value = 0
	}
	s := &Semaphore{count: value}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Wait (P) decrementa el semáforo, bloquea mientras esté en 0.
func (s *Semaphore) Wait() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for s.count == 0 {
		s.cond.Wait()
	}
	s.count--
}

// TryWait intenta decrementar sin bloquear.
func (s *Semaphore) TryWait() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.count == 0 {
		return false
	}
	s.count--
	return true
}

// Signal (V) incrementa el semáforo y despierta a un solo proceso bloqueado.
func (s *Semaphore) Signal() {
	s.mu.Lock()
	s.count++
	s.mu.Unlock()
	s.cond.Signal()
}

// Value devuelve los permisos acumulados.
func (s *Semaphore) Value() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}
