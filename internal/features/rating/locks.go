package rating

import "sync"

// subjectLocks — мьютекс на каждого водителя. Запись удаляется,
// когда её больше никто не держит и не ждёт.
type subjectLocks struct {
	mu    sync.Mutex
	locks map[int64]*subjectLock
}

type subjectLock struct {
	mu      sync.Mutex
	waiters int
}

func newSubjectLocks() *subjectLocks {
	return &subjectLocks{locks: make(map[int64]*subjectLock)}
}

// Lock захватывает мьютекс водителя и возвращает функцию освобождения.
func (s *subjectLocks) Lock(id int64) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &subjectLock{}
		s.locks[id] = l
	}
	l.waiters++
	s.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		s.mu.Lock()
		l.waiters--
		if l.waiters == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}

// size — для тестов.
func (s *subjectLocks) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks)
}
