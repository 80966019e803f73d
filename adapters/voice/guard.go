package voice

import (
	"sync"

	"github.com/Divya4879/Sassy-AI-Debate-Coach/domain"
)

// Guard wraps handlers so that once a final or an error has been delivered
// every later event is dropped. Callbacks never run concurrently.
func Guard(h domain.StreamHandlers) domain.StreamHandlers {
	g := &guard{inner: h}
	return domain.StreamHandlers{
		OnPartial: g.partial,
		OnFinal:   g.final,
		OnError:   g.error,
	}
}

type guard struct {
	mu    sync.Mutex
	ended bool
	inner domain.StreamHandlers
}

func (g *guard) partial(text string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ended || g.inner.OnPartial == nil {
		return
	}
	g.inner.OnPartial(text)
}

func (g *guard) final(text string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ended {
		return
	}
	g.ended = true
	if g.inner.OnFinal != nil {
		g.inner.OnFinal(text)
	}
}

func (g *guard) error(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ended {
		return
	}
	g.ended = true
	if g.inner.OnError != nil {
		g.inner.OnError(err)
	}
}
