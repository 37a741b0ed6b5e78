package timer

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu        sync.Mutex
	ticks     []Tick
	fires     []Fire
	imminents int
}

func (r *recorder) tick(_ string, t Tick) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticks = append(r.ticks, t)
}

func (r *recorder) fire(_ string, f Fire) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fires = append(r.fires, f)
}

func (r *recorder) imminent(_ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.imminents++
}

func (r *recorder) snapshot() (ticks []Tick, fires []Fire, imminent int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Tick(nil), r.ticks...), append([]Fire(nil), r.fires...), r.imminents
}

func TestTurnTimer_FiresAfterDuration(t *testing.T) {
	rec := &recorder{}
	s := NewScheduler("ROOM", rec.tick, rec.fire, rec.imminent)
	s.SetTickInterval(5 * time.Millisecond)

	s.Start(KindTurn, 3*5*time.Millisecond, "p1")
	require.Eventually(t, func() bool {
		_, fires, _ := rec.snapshot()
		return len(fires) == 1
	}, time.Second, time.Millisecond)

	_, fires, _ := rec.snapshot()
	require.Equal(t, KindTurn, fires[0].Kind)
	require.Equal(t, "p1", fires[0].TurnHolder)
}

func TestTurnTimer_CancelSuppressesFire(t *testing.T) {
	rec := &recorder{}
	s := NewScheduler("ROOM", rec.tick, rec.fire, rec.imminent)
	s.SetTickInterval(5 * time.Millisecond)

	s.Start(KindTurn, 10*5*time.Millisecond, "p1")
	time.Sleep(10 * time.Millisecond)
	s.Cancel(KindTurn)
	time.Sleep(80 * time.Millisecond)

	_, fires, _ := rec.snapshot()
	require.Empty(t, fires)
}

func TestPredictionTimer_WaitsGraceBeforeFiring(t *testing.T) {
	rec := &recorder{}
	s := NewScheduler("ROOM", rec.tick, rec.fire, rec.imminent)
	s.SetTickInterval(5 * time.Millisecond)
	s.SetPredictionGrace(20 * time.Millisecond)

	start := time.Now()
	s.Start(KindPrediction, 2*5*time.Millisecond, "")
	require.Eventually(t, func() bool {
		_, _, imminent := rec.snapshot()
		return imminent == 1
	}, time.Second, time.Millisecond)

	require.Eventually(t, func() bool {
		_, fires, _ := rec.snapshot()
		return len(fires) == 1
	}, time.Second, time.Millisecond)

	elapsed := time.Since(start)
	require.GreaterOrEqual(t, elapsed, 20*time.Millisecond)
}

// TestStart_RestartAtExpiryNeverDeliversStaleFire targets the narrow window
// where a countdown's ticker crosses zero and is about to call onFire at
// the exact moment a restart (Start, which cancels-then-replaces the same
// kind) lands — the turn-confirm/advance/restart sequence that happens in
// normal play when a player confirms right as their own turn timer expires.
// The restarted countdown must never let the superseded one's Fire through.
func TestStart_RestartAtExpiryNeverDeliversStaleFire(t *testing.T) {
	rec := &recorder{}
	s := NewScheduler("ROOM", rec.tick, rec.fire, rec.imminent)
	s.SetTickInterval(time.Millisecond)

	for i := 0; i < 300; i++ {
		s.Start(KindTurn, time.Millisecond, "stale")
		time.Sleep(900 * time.Microsecond)
		s.Start(KindTurn, 50*time.Millisecond, "fresh")
		time.Sleep(2 * time.Millisecond)
	}
	s.Cancel(KindTurn)

	_, fires, _ := rec.snapshot()
	for _, f := range fires {
		require.NotEqual(t, "stale", f.TurnHolder, "a superseded countdown must never deliver its Fire")
	}
}

func TestStart_RestartsCancelsPriorRun(t *testing.T) {
	rec := &recorder{}
	s := NewScheduler("ROOM", rec.tick, rec.fire, rec.imminent)
	s.SetTickInterval(5 * time.Millisecond)

	s.Start(KindTurn, 20*5*time.Millisecond, "p1")
	time.Sleep(10 * time.Millisecond)
	s.Start(KindTurn, 3*5*time.Millisecond, "p2")

	require.Eventually(t, func() bool {
		_, fires, _ := rec.snapshot()
		return len(fires) == 1
	}, time.Second, time.Millisecond)

	_, fires, _ := rec.snapshot()
	require.Equal(t, "p2", fires[0].TurnHolder)
}
