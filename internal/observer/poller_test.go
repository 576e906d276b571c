package observer_test

import (
	"context"
	"testing"
	"time"

	"github.com/sitepilot/crm-backend/internal/application/dto"
	"github.com/sitepilot/crm-backend/internal/observer"
	"github.com/stretchr/testify/require"
)

// scriptedSource replays a sequence of log snapshots, one per poll.
type scriptedSource struct {
	snapshots [][]dto.LogEntryView
	calls     int
}

func (s *scriptedSource) ReadLog(ctx context.Context, orderID uint64) ([]dto.LogEntryView, error) {
	idx := s.calls
	if idx >= len(s.snapshots) {
		idx = len(s.snapshots) - 1
	}
	s.calls++
	return s.snapshots[idx], nil
}

func entry(id uint64, step, status string) dto.LogEntryView {
	return dto.LogEntryView{ID: id, Step: step, Status: status, CreatedAt: time.Now()}
}

func TestPollerDeliversEntriesInOrderExactlyOnce(t *testing.T) {
	source := &scriptedSource{snapshots: [][]dto.LogEntryView{
		{entry(1, "briefing", "info")},
		{entry(1, "briefing", "info"), entry(2, "sitemap", "info")},
		{entry(1, "briefing", "info"), entry(2, "sitemap", "info"), entry(3, "SUCCESS", "success")},
	}}

	var seen []uint64
	var doneCount int
	p := observer.NewPoller(source)
	p.Interval = time.Millisecond
	p.OnEntry = func(e dto.LogEntryView) { seen = append(seen, e.ID) }
	p.OnDone = func(e dto.LogEntryView) { doneCount++ }

	err := p.Run(context.Background(), 42)
	require.NoError(t, err)

	require.Equal(t, []uint64{1, 2, 3}, seen, "entries must arrive in append order, no repeats")
	require.Equal(t, 1, doneCount, "completion callback fires exactly once")
}

func TestPollerStopsOnErrorTerminal(t *testing.T) {
	source := &scriptedSource{snapshots: [][]dto.LogEntryView{
		{entry(1, "briefing", "info"), entry(2, "ERROR", "error")},
	}}

	var terminal dto.LogEntryView
	p := observer.NewPoller(source)
	p.Interval = time.Millisecond
	p.OnDone = func(e dto.LogEntryView) { terminal = e }

	require.NoError(t, p.Run(context.Background(), 7))
	require.Equal(t, "ERROR", terminal.Step)
	require.Equal(t, 1, source.calls, "no polls after the terminal entry")
}

func TestPollerNeverRegresses(t *testing.T) {
	// second snapshot is a shorter, stale read; nothing may be re-emitted
	source := &scriptedSource{snapshots: [][]dto.LogEntryView{
		{entry(1, "briefing", "info"), entry(2, "sitemap", "info")},
		{entry(1, "briefing", "info")},
		{entry(1, "briefing", "info"), entry(2, "sitemap", "info"), entry(3, "SUCCESS", "success")},
	}}

	var seen []uint64
	p := observer.NewPoller(source)
	p.Interval = time.Millisecond
	p.OnEntry = func(e dto.LogEntryView) { seen = append(seen, e.ID) }

	require.NoError(t, p.Run(context.Background(), 42))
	require.Equal(t, []uint64{1, 2, 3}, seen)
}

func TestPollerHonoursContextCancel(t *testing.T) {
	source := &scriptedSource{snapshots: [][]dto.LogEntryView{
		{entry(1, "briefing", "info")},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	p := observer.NewPoller(source)
	p.Interval = 50 * time.Millisecond

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := p.Run(ctx, 42)
	require.ErrorIs(t, err, context.Canceled)
}
