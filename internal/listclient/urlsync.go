package listclient

import (
	"net/url"
	"sync"
)

// URLSyncer mirrors list state into an address bar or any other place that
// should reconstruct the view from parameters.
type URLSyncer interface {
	Replace(params url.Values)
}

// URLSyncFunc adapts a function to URLSyncer.
type URLSyncFunc func(params url.Values)

// Replace implements URLSyncer.
func (f URLSyncFunc) Replace(params url.Values) { f(params) }

// urlSync delivers parameters to a URLSyncer on its own goroutine. Pushes
// never block: a value not yet delivered is replaced by a newer one.
type urlSync struct {
	target URLSyncer
	ch     chan url.Values
	done   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

func newURLSync(target URLSyncer) *urlSync {
	u := &urlSync{
		target: target,
		ch:     make(chan url.Values, 1),
		done:   make(chan struct{}),
	}
	u.wg.Add(1)
	go u.run()
	return u
}

func (u *urlSync) run() {
	defer u.wg.Done()
	for {
		select {
		case <-u.done:
			return
		case params := <-u.ch:
			u.target.Replace(params)
		}
	}
}

func (u *urlSync) push(params url.Values) {
	for {
		select {
		case <-u.done:
			return
		case u.ch <- params:
			return
		default:
		}
		// Drop the stale pending value and retry.
		select {
		case <-u.ch:
		default:
		}
	}
}

func (u *urlSync) close() {
	u.once.Do(func() { close(u.done) })
	u.wg.Wait()
}
