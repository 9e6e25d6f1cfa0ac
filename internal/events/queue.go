package events

import "sync"

type message struct {
	Kind string
	Data []byte
	prev *message
}

// queue is a FIFO of pending audit events.
type queue struct {
	lock sync.Mutex
	head *message
	tail *message
	size int
}

func newQueue() *queue {
	return &queue{}
}

func (q *queue) PushBack(msg *message) {
	q.lock.Lock()
	defer q.lock.Unlock()

	if q.head == nil {
		q.head = msg
		q.tail = msg
	} else {
		q.tail.prev = msg
		q.tail = msg
	}
	q.size++
}

func (q *queue) Pop() *message {
	q.lock.Lock()
	defer q.lock.Unlock()

	if q.head == nil {
		return nil
	}
	tmp := q.head
	if q.head.prev != nil {
		q.head = q.head.prev
	} else {
		// removing the last one
		q.head = nil
		q.tail = nil
	}
	q.size--
	return tmp
}

func (q *queue) Size() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return q.size
}
