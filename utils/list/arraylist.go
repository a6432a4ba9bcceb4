package list

import (
	"errors"
	"sync"
)

// ErrEmptyList se devuelve al desencolar de una lista vacía.
var ErrEmptyList = errors.New("list is empty")

// ArrayList es una cola FIFO segura para usar desde varias goroutines.
// El valor cero es una lista vacía lista para usar.
type ArrayList[T any] struct {
	mu    sync.Mutex
	items []T
}

// Add encola un elemento al final de la lista.
//
// Ejemplo:
//
//	func main() {
//		faults := &list.ArrayList[*models.Fault]{}
//		faults.Add(fault)
//	}
func (list *ArrayList[T]) Add(item T) {
	list.mu.Lock()
	defer list.mu.Unlock()

	list.items = append(list.items, item)
}

// Dequeue elimina y devuelve el primer elemento de la cola.
// Si la lista está vacía retorna el valor "cero" del tipo T y ErrEmptyList.
//
// Ejemplo:
//
//	func main() {
//		numbers := &list.ArrayList[int]{}
//		numbers.Add(10)
//		numbers.Add(20)
//		value, _ := numbers.Dequeue()
//		fmt.Println("Valor: ", value) //output: 10
//	}
func (list *ArrayList[T]) Dequeue() (T, error) {
	list.mu.Lock()
	defer list.mu.Unlock()

	if len(list.items) == 0 {
		var zero T
		return zero, ErrEmptyList
	}
	item := list.items[0]

	// Se limpia la referencia para que el GC pueda liberar el elemento
	var zero T
	list.items[0] = zero
	list.items = list.items[1:]
	return item, nil
}

// Drain vacía la lista y devuelve sus elementos en orden de llegada.
func (list *ArrayList[T]) Drain() []T {
	list.mu.Lock()
	defer list.mu.Unlock()

	items := list.items
	list.items = nil
	return items
}

// GetAll retorna una copia de los elementos, sin modificar la lista.
func (list *ArrayList[T]) GetAll() []T {
	list.mu.Lock()
	defer list.mu.Unlock()

	itemsCopy := make([]T, len(list.items))
	copy(itemsCopy, list.items)
	return itemsCopy
}

// Size devuelve la cantidad de elementos encolados.
func (list *ArrayList[T]) Size() int {
	list.mu.Lock()
	defer list.mu.Unlock()

	return len(list.items)
}
