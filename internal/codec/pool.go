package codec

import (
	"context"
	"sync"

	"github.com/sourcegraph/conc"
)

type job struct {
	blob  string
	reply chan result
}

type result struct {
	data []byte
	err  error
}

// Pool is a fixed set of decode workers fed over a channel. Inputs and
// outputs are copied through the channel; workers share no mutable state
// with callers.
type Pool struct {
	dec  Decoder
	jobs chan job
	wg   *conc.WaitGroup
	once sync.Once
}

// NewPool starts size decode workers. Returns nil when size <= 0, which
// callers treat as "pool unavailable".
func NewPool(size int, dec Decoder) *Pool {
	if size <= 0 {
		return nil
	}
	p := &Pool{
		dec:  dec,
		jobs: make(chan job),
		wg:   conc.NewWaitGroup(),
	}
	for i := 0; i < size; i++ {
		p.wg.Go(p.run)
	}
	return p
}

func (p *Pool) run() {
	for j := range p.jobs {
		data, err := decodeAndValidate(p.dec, j.blob)
		j.reply <- result{data: data, err: err}
	}
}

// Decode submits blob to a worker and waits for the decoded JSON text.
// Cancelled contexts abandon the round-trip; the caller falls back to an
// in-line decode.
func (p *Pool) Decode(ctx context.Context, blob string) ([]byte, error) {
	reply := make(chan result, 1)
	select {
	case p.jobs <- job{blob: blob, reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case r := <-reply:
		return r.data, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops the workers. Decode must not be called after Close.
func (p *Pool) Close() {
	p.once.Do(func() {
		close(p.jobs)
		p.wg.Wait()
	})
}
