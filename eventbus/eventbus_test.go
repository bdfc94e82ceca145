package eventbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCacheOneKeepsLatest(t *testing.T) {
	b := NewBus(4)
	ns := b.Namespace("winder-1")
	ns.Configure("StateEvent", PolicyConfig{Policy: CacheOne})

	now := time.Now()
	ns.Emit("StateEvent", "standby", now)
	ns.Emit("StateEvent", "pull", now.Add(time.Millisecond))

	sub := ns.Subscribe("StateEvent")
	msg := <-sub.Channel()
	ev := msg.Payload.(Event)
	require.Equal(t, "pull", ev.Data)

	select {
	case <-sub.Channel():
		t.Fatal("expected only one cached event")
	default:
	}
}

func TestCacheNKeepsLastK(t *testing.T) {
	b := NewBus(8)
	ns := b.Namespace("extruder-1")
	ns.Configure("LiveValuesEvent", PolicyConfig{Policy: CacheN, N: 2})

	now := time.Now()
	ns.Emit("LiveValuesEvent", 1, now)
	ns.Emit("LiveValuesEvent", 2, now)
	ns.Emit("LiveValuesEvent", 3, now)

	sub := ns.Subscribe("LiveValuesEvent")
	first := (<-sub.Channel()).Payload.(Event).Data
	second := (<-sub.Channel()).Payload.(Event).Data
	require.Equal(t, 2, first)
	require.Equal(t, 3, second)
}

func TestCacheFirstAndLast(t *testing.T) {
	b := NewBus(8)
	ns := b.Namespace("buffer-1")
	ns.Configure("StateEvent", PolicyConfig{Policy: CacheFirstAndLast})

	now := time.Now()
	ns.Emit("StateEvent", "a", now)
	ns.Emit("StateEvent", "b", now)
	ns.Emit("StateEvent", "c", now)

	sub := ns.Subscribe("StateEvent")
	first := (<-sub.Channel()).Payload.(Event).Data
	last := (<-sub.Channel()).Payload.(Event).Data
	require.Equal(t, "a", first)
	require.Equal(t, "c", last)
}

func TestCacheDurationRespectsMinGap(t *testing.T) {
	b := NewBus(8)
	ns := b.Namespace("aquapath-1")
	ns.Configure("LiveValuesEvent", PolicyConfig{Policy: CacheDuration, Window: time.Second, MinGap: 100 * time.Millisecond})

	now := time.Now()
	ns.Emit("LiveValuesEvent", 1, now)
	ns.Emit("LiveValuesEvent", 2, now.Add(10*time.Millisecond)) // within min_gap, dropped
	ns.Emit("LiveValuesEvent", 3, now.Add(200*time.Millisecond))

	sub := ns.Subscribe("LiveValuesEvent")
	a := (<-sub.Channel()).Payload.(Event).Data
	c := (<-sub.Channel()).Payload.(Event).Data
	require.Equal(t, 1, a)
	require.Equal(t, 3, c)
}
