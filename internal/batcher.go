package internal

import "code.hybscloud.com/atomix"

type Batcher struct {
	// each nested batch increases the depth by 1
	// if depth > 0, scheduling waits until the outermost batch is complete
	depth atomix.Int32
}

func NewBatcher() *Batcher {
	return &Batcher{}
}

func (b *Batcher) IsBatching() bool {
	return b.depth.Load() > 0
}

func (b *Batcher) Batch(fn, onComplete func()) {
	b.depth.Add(1)
	defer func() {
		if b.depth.Add(-1) == 0 && onComplete != nil {
			onComplete()
		}
	}()

	fn()
}

// Batch runs fn and schedules the updates it enqueued once, after it returns.
func (r *Root) Batch(fn func()) {
	r.batcher.Batch(fn, r.flushBatch)
}
