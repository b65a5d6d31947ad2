// Package userlock реализует таблицу блокировок по идентификатору пользователя.
// Операции, изменяющие состояние доступа одного пользователя, обязаны
// выполняться последовательно: проверка по команде пользователя не должна
// перемежаться с фоновой проверкой истечения подписок. Операции разных
// пользователей идут параллельно.
package userlock

import "sync"

// Table хранит по одному мьютексу на пользователя. Мьютексы не удаляются:
// их количество ограничено числом пользователей за время жизни процесса.
type Table struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewTable создает пустую таблицу блокировок.
func NewTable() *Table {
	return &Table{locks: make(map[int64]*sync.Mutex)}
}

// Lock захватывает блокировку пользователя и возвращает функцию освобождения.
//
//	unlock := table.Lock(userID)
//	defer unlock()
func (t *Table) Lock(userID int64) func() {
	t.mu.Lock()
	l, ok := t.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		t.locks[userID] = l
	}
	t.mu.Unlock()

	l.Lock()
	return l.Unlock
}
