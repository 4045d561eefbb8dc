package dashboard

import "time"

// scheduler runs delayed work on the controller goroutine. Every task has a
// cancel handle; a task cancelled before its callback reaches the loop is
// never run, even if its timer already fired.
type scheduler struct {
	post  func(func()) bool
	next  uint64
	tasks map[uint64]*task
}

type task struct {
	timer     *time.Timer
	cancelled bool
}

func newScheduler(post func(func()) bool) *scheduler {
	return &scheduler{post: post, tasks: make(map[uint64]*task)}
}

// after schedules fn to run on the loop once d has elapsed. The returned
// function cancels it; it must also be called from the loop.
func (s *scheduler) after(d time.Duration, fn func()) (cancel func()) {
	s.next++
	id := s.next
	t := &task{}
	s.tasks[id] = t
	t.timer = time.AfterFunc(d, func() {
		s.post(func() {
			if t.cancelled {
				return
			}
			delete(s.tasks, id)
			fn()
		})
	})
	return func() {
		if t.cancelled {
			return
		}
		t.cancelled = true
		t.timer.Stop()
		delete(s.tasks, id)
	}
}

// pending reports how many tasks have neither run nor been cancelled.
func (s *scheduler) pending() int { return len(s.tasks) }

func (s *scheduler) cancelAll() {
	for id, t := range s.tasks {
		t.cancelled = true
		t.timer.Stop()
		delete(s.tasks, id)
	}
}
