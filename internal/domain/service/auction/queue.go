package auction

import "tg_auction/internal/domain/entity"

// Queue is the ordered list of pending auctions. It is owned exclusively by
// the controller goroutine; all access goes through the command inbox, so the
// queue itself needs no locking.
type Queue struct {
	items []*entity.Auction
}

func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue appends to the tail. Duplicates are allowed: the same lot may be
// auctioned twice on purpose.
func (q *Queue) Enqueue(a *entity.Auction) int {
	q.items = append(q.items, a)
	return len(q.items)
}

// PushFront returns an auction to the head, used when a start attempt fails
// before the auction went live.
func (q *Queue) PushFront(a *entity.Auction) {
	q.items = append([]*entity.Auction{a}, q.items...)
}

// Dequeue pops the head; ok is false on an empty queue.
func (q *Queue) Dequeue() (*entity.Auction, bool) {
	if len(q.items) == 0 {
		return nil, false
	}

	head := q.items[0]
	q.items = q.items[1:]
	return head, true
}

// Peek returns up to k upcoming auctions without mutating the queue.
func (q *Queue) Peek(k int) []*entity.Auction {
	if k > len(q.items) {
		k = len(q.items)
	}

	out := make([]*entity.Auction, k)
	copy(out, q.items[:k])
	return out
}

func (q *Queue) Len() int {
	return len(q.items)
}
