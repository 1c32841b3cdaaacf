package pdftoolkit

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one worker is available.
	MinPoolSize = 1

	// MaxPoolSize caps toolkits, each of which may own a browser.
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for browser and rasterizer child processes.
	cpuDivisor = 2
)

// ErrPoolClosed is returned by Acquire after Close.
var ErrPoolClosed = errors.New("toolkit pool closed")

// ToolkitPool hands out Toolkit instances for parallel work. Toolkits are
// created lazily on first acquire and reused afterwards.
type ToolkitPool struct {
	size     int
	opts     []Option
	toolkits []*Toolkit
	sem      chan *Toolkit
	mu       sync.Mutex
	created  int
	closed   bool
}

// NewToolkitPool creates a pool of up to n toolkits built with opts.
func NewToolkitPool(n int, opts ...Option) *ToolkitPool {
	if n < 1 {
		n = 1
	}
	return &ToolkitPool{
		size:     n,
		opts:     opts,
		toolkits: make([]*Toolkit, 0, n),
		sem:      make(chan *Toolkit, n),
	}
}

// Acquire returns an idle toolkit, creating one while the pool is below
// capacity. It blocks until a toolkit is released or ctx is done.
func (p *ToolkitPool) Acquire(ctx context.Context) (*Toolkit, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	select {
	case t := <-p.sem:
		p.mu.Unlock()
		return t, nil
	default:
	}
	if p.created < p.size {
		p.created++
		p.mu.Unlock()

		t, err := NewToolkit(p.opts...)

		p.mu.Lock()
		defer p.mu.Unlock()
		if err != nil {
			p.created--
			return nil, err
		}
		p.toolkits = append(p.toolkits, t)
		return t, nil
	}
	p.mu.Unlock()

	select {
	case t, ok := <-p.sem:
		if !ok {
			return nil, ErrPoolClosed
		}
		return t, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns t to the pool. Releasing after Close does nothing.
func (p *ToolkitPool) Release(t *Toolkit) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || t == nil {
		return
	}
	p.sem <- t
}

// Close closes every toolkit created by the pool.
func (p *ToolkitPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.sem)
	toolkits := p.toolkits
	p.mu.Unlock()

	var errs []error
	for _, t := range toolkits {
		if err := t.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Size returns the pool capacity.
func (p *ToolkitPool) Size() int {
	return p.size
}

// ResolvePoolSize determines the pool size.
// Priority: explicit workers > GOMAXPROCS-based calculation.
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		return workers
	}

	// GOMAXPROCS is container-aware once automaxprocs has run.
	n := runtime.GOMAXPROCS(0) / cpuDivisor
	return max(MinPoolSize, min(n, MaxPoolSize))
}
