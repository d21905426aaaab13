package ticketing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type provider struct {
	srv   *httptest.Server
	calls map[string]*int32
	mu    sync.Mutex
}

func newProvider(t *testing.T) *provider {
	t.Helper()
	p := &provider{calls: map[string]*int32{}}
	mux := http.NewServeMux()
	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		p.hit("list")
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		assert.Equal(t, "north", r.URL.Query().Get("organizer"))
		_, _ = w.Write([]byte(`{"events":[{"id":"e1","name":"Derby","min_price":"12.50","currency":"USD"}]}`))
	})
	mux.HandleFunc("/events/e1", func(w http.ResponseWriter, r *http.Request) {
		p.hit("event")
		_, _ = w.Write([]byte(`{"id":"e1","name":"Derby"}`))
	})
	mux.HandleFunc("/events/e1/availability", func(w http.ResponseWriter, r *http.Request) {
		p.hit("availability")
		time.Sleep(20 * time.Millisecond)
		_, _ = w.Write([]byte(`{"event_id":"e1","sections":[{"id":"s1","name":"North","price":"30","available":40}]}`))
	})
	mux.HandleFunc("/events/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/purchases", func(w http.ResponseWriter, r *http.Request) {
		p.hit("purchase")
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"ext-1","event_id":"e1","quantity":2,"amount":"60","currency":"USD","status":"CONFIRMED"}`))
	})
	mux.HandleFunc("/events/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"message":"upstream down"}`))
	})
	p.srv = httptest.NewServer(mux)
	t.Cleanup(p.srv.Close)
	return p
}

func (p *provider) hit(name string) {
	p.mu.Lock()
	c, ok := p.calls[name]
	if !ok {
		c = new(int32)
		p.calls[name] = c
	}
	p.mu.Unlock()
	atomic.AddInt32(c, 1)
}

func (p *provider) count(name string) int32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.calls[name]; ok {
		return atomic.LoadInt32(c)
	}
	return 0
}

func newCached(t *testing.T, p *provider) (*CachedClient, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	origin := NewClient(p.srv.URL, "key", 2*time.Second)
	return NewCachedClient(origin, rdb, time.Minute, 10*time.Second, zap.NewNop()), mr
}

func TestClientErrors(t *testing.T) {
	p := newProvider(t)
	c := NewClient(p.srv.URL, "key", time.Second)

	_, err := c.GetEvent(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.GetEvent(context.Background(), "broken")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "upstream down", apiErr.Message)
}

func TestCachedListEventsHitsOriginOnce(t *testing.T) {
	p := newProvider(t)
	c, mr := newCached(t, p)
	ctx := context.Background()

	first, err := c.ListEvents(ctx, "north")
	require.NoError(t, err)
	second, err := c.ListEvents(ctx, "north")
	require.NoError(t, err)

	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.True(t, first[0].MinPrice.Equal(second[0].MinPrice))
	assert.Equal(t, "12.5", second[0].MinPrice.String())
	assert.EqualValues(t, 1, p.count("list"))
	assert.True(t, mr.Exists("ticketing:events:north"))
	assert.Equal(t, time.Minute, mr.TTL("ticketing:events:north"))
}

func TestCachedAvailabilityExpires(t *testing.T) {
	p := newProvider(t)
	c, mr := newCached(t, p)
	ctx := context.Background()

	_, err := c.Availability(ctx, "e1")
	require.NoError(t, err)
	mr.FastForward(11 * time.Second)
	_, err = c.Availability(ctx, "e1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, p.count("availability"))
}

func TestConcurrentMissesShareOneOriginCall(t *testing.T) {
	p := newProvider(t)
	c, _ := newCached(t, p)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			av, err := c.Availability(context.Background(), "e1")
			assert.NoError(t, err)
			assert.Equal(t, 40, av.Sections[0].Available)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, p.count("availability"), int32(2))
}

func TestPurchaseInvalidates(t *testing.T) {
	p := newProvider(t)
	c, mr := newCached(t, p)
	ctx := context.Background()

	_, err := c.GetEvent(ctx, "e1")
	require.NoError(t, err)
	_, err = c.Availability(ctx, "e1")
	require.NoError(t, err)
	require.True(t, mr.Exists("ticketing:availability:e1"))

	pur, err := c.Purchase(ctx, PurchaseRequest{EventID: "e1", SectionID: "s1", Quantity: 2, Reference: "r1"})
	require.NoError(t, err)
	assert.Equal(t, "ext-1", pur.ID)
	assert.False(t, mr.Exists("ticketing:availability:e1"))
	assert.False(t, mr.Exists("ticketing:event:e1"))
}

func TestRedisDownFallsBackToOrigin(t *testing.T) {
	p := newProvider(t)
	c, mr := newCached(t, p)
	mr.Close()

	ev, err := c.GetEvent(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, "Derby", ev.Name)
}

func TestOriginErrorsAreNotCached(t *testing.T) {
	p := newProvider(t)
	c, mr := newCached(t, p)

	_, err := c.GetEvent(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, mr.Exists("ticketing:event:missing"))
}

func TestCancelledCallerDoesNotFailSharedLoad(t *testing.T) {
	started := make(chan struct{})
	gate := make(chan struct{})
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			close(started)
		}
		<-gate
		_, _ = w.Write([]byte(`{"id":"final","name":"Final"}`))
	}))
	t.Cleanup(srv.Close)
	var once sync.Once
	release := func() { once.Do(func() { close(gate) }) }
	t.Cleanup(release)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	c := NewCachedClient(NewClient(srv.URL, "key", 2*time.Second), rdb, time.Minute, time.Minute, zap.NewNop())

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := c.GetEvent(ctxA, "final")
		errA <- err
	}()
	<-started

	type result struct {
		ev  *Event
		err error
	}
	resB := make(chan result, 1)
	go func() {
		ev, err := c.GetEvent(context.Background(), "final")
		resB <- result{ev, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelA()
	select {
	case err := <-errA:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller still waiting")
	}

	release()
	select {
	case r := <-resB:
		require.NoError(t, r.err)
		assert.Equal(t, "Final", r.ev.Name)
	case <-time.After(2 * time.Second):
		t.Fatal("second caller never returned")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.True(t, mr.Exists(eventKey("final")))
}
