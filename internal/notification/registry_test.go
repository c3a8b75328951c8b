package notification

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_ConnectSupersedes(t *testing.T) {
	r := NewRegistry()
	c1, c2 := &fakeChannel{}, &fakeChannel{}

	assert.False(t, r.Connect(1, c1))
	assert.True(t, r.Connect(1, c2), "second connect replaces the first")

	ch, ok := r.ChannelFor(1)
	require.True(t, ok)
	assert.Same(t, c2, ch)
	assert.Equal(t, 1, r.Len())

	// The old channel's teardown must not evict the newer registration.
	assert.False(t, r.Disconnect(1, c1))
	ch, ok = r.ChannelFor(1)
	require.True(t, ok)
	assert.Same(t, c2, ch)

	assert.True(t, r.Disconnect(1, c2))
	_, ok = r.ChannelFor(1)
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_ReconnectSameChannel(t *testing.T) {
	r := NewRegistry()
	c := &fakeChannel{}

	r.Connect(1, c)
	assert.False(t, r.Connect(1, c), "re-registering the same channel supersedes nothing")
}

func TestRegistry_DisconnectAbsent(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.Disconnect(42, &fakeChannel{}))
}

func TestRegistry_UsersAreIndependent(t *testing.T) {
	r := NewRegistry()
	a, b := &fakeChannel{}, &fakeChannel{}
	r.Connect(1, a)
	r.Connect(2, b)

	assert.False(t, r.Disconnect(2, a))
	assert.True(t, r.Disconnect(1, a))

	ch, ok := r.ChannelFor(2)
	require.True(t, ok)
	assert.Same(t, b, ch)
}

func TestRegistry_ConcurrentConnectDisconnect(t *testing.T) {
	r := NewRegistry()
	const n = 64

	channels := make([]*fakeChannel, n)
	for i := range channels {
		channels[i] = &fakeChannel{}
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func(ch *fakeChannel) {
			defer wg.Done()
			r.Connect(7, ch)
		}(channels[i])
		go func(ch *fakeChannel) {
			defer wg.Done()
			r.ChannelFor(7)
		}(channels[i])
	}
	wg.Wait()

	winner, ok := r.ChannelFor(7)
	require.True(t, ok)
	assert.Equal(t, 1, r.Len())

	// Every loser's disconnect is stale; only the winner's removes the entry.
	for _, ch := range channels {
		wg.Add(1)
		go func(ch *fakeChannel) {
			defer wg.Done()
			if ch != winner {
				assert.False(t, r.Disconnect(7, ch))
			}
		}(ch)
	}
	wg.Wait()

	still, ok := r.ChannelFor(7)
	require.True(t, ok)
	assert.Same(t, winner, still)
	assert.True(t, r.Disconnect(7, winner))
}
