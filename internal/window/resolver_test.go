package window_test

import (
	"testing"
	"time"

	"github.com/septivank/environment-monitor/internal/window"
	"github.com/stretchr/testify/assert"
)

var now = time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

func fixed() time.Time { return now }

func TestResolve_BothBoundsKept(t *testing.T) {
	r := window.NewResolver(0, fixed)
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	gotFrom, gotTo := r.Resolve(&from, &to)
	assert.Equal(t, from, gotFrom)
	assert.Equal(t, to, gotTo)
}

func TestResolve_EmptyWindowKept(t *testing.T) {
	r := window.NewResolver(0, fixed)
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	gotFrom, gotTo := r.Resolve(&at, &at)
	assert.Equal(t, at, gotFrom)
	assert.Equal(t, at, gotTo)
}

func TestResolve_DefaultTrailingWindow(t *testing.T) {
	r := window.NewResolver(0, fixed)

	gotFrom, gotTo := r.Resolve(nil, nil)
	assert.Equal(t, now.Add(-24*time.Hour), gotFrom)
	assert.Equal(t, now, gotTo)
}

func TestResolve_LoneBoundIgnored(t *testing.T) {
	r := window.NewResolver(6*time.Hour, fixed)
	from := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	gotFrom, gotTo := r.Resolve(&from, nil)
	assert.Equal(t, now.Add(-6*time.Hour), gotFrom)
	assert.Equal(t, now, gotTo)

	gotFrom, gotTo = r.Resolve(nil, &from)
	assert.Equal(t, now.Add(-6*time.Hour), gotFrom)
	assert.Equal(t, now, gotTo)
}
