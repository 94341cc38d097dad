package echo

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsEchoWithinWindow(t *testing.T) {
	s := NewSuppressor()
	t0 := time.Now()
	s.recordAt("123", "hi", "m1", t0)

	assert.True(t, s.IsEcho("m1", "123", "hi", t0.Add(time.Second)))
}

func TestIsEchoWindowExpired(t *testing.T) {
	s := NewSuppressor()
	t0 := time.Now()
	s.recordAt("123", "hi", "m1", t0)

	assert.False(t, s.IsEcho("", "123", "hi", t0.Add(31*time.Second)))
	assert.Equal(t, 0, s.Len(), "expired record should be pruned")
}

func TestIsEchoMatchesByTextWithoutID(t *testing.T) {
	s := NewSuppressor()
	t0 := time.Now()
	s.recordAt("123", "hello there", "", t0)

	assert.True(t, s.IsEcho("", "123", "hello there", t0.Add(time.Second)))
	assert.False(t, s.IsEcho("", "123", "different", t0.Add(time.Second)))
}

func TestIsEchoRequiresSameDestination(t *testing.T) {
	s := NewSuppressor()
	t0 := time.Now()
	s.recordAt("123", "hi", "m1", t0)

	assert.False(t, s.IsEcho("m1", "456", "hi", t0.Add(time.Second)))
}

func TestIsEchoIDCheckedBeforeText(t *testing.T) {
	s := NewSuppressor()
	t0 := time.Now()
	s.recordAt("123", "hi", "m1", t0)
	s.recordAt("123", "hi", "m2", t0)

	assert.True(t, s.IsEcho("m2", "123", "hi", t0.Add(time.Second)))
}

func TestPruneKeepsRecentRecords(t *testing.T) {
	s := NewSuppressor()
	t0 := time.Now()
	s.recordAt("1", "old", "", t0.Add(-40*time.Second))
	s.recordAt("1", "recent", "", t0.Add(-10*time.Second))

	s.Prune(t0)
	assert.Equal(t, 1, s.Len())
	assert.True(t, s.IsEcho("", "1", "recent", t0))
}

func TestRecordCapBounded(t *testing.T) {
	s := NewSuppressor()
	t0 := time.Now()
	for i := 0; i < maxRecords+50; i++ {
		s.recordAt("1", fmt.Sprintf("msg-%d", i), "", t0)
	}
	assert.Equal(t, maxRecords, s.Len())
	// Oldest entries were dropped, newest retained.
	assert.False(t, s.IsEcho("", "1", "msg-0", t0))
	assert.True(t, s.IsEcho("", "1", fmt.Sprintf("msg-%d", maxRecords+49), t0))
}
