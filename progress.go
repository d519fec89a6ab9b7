package autohds

// Stage names passed to a ProgressFunc.
const (
	StageDistances = "distances"
	StageIndex     = "index"
	StageHDS       = "hds"
	StageAutoHDS   = "autohds"
)

// ProgressFunc receives coarse progress for long stages. done counts rows or
// levels finished out of total. It is called from the goroutine running the
// clustering and must not block for long.
type ProgressFunc func(stage string, done, total int)

// progressTracker rate-limits ProgressFunc calls to roughly one per tenth of
// the work, never more often than every 500 units nor less often than every
// 10000.
type progressTracker struct {
	fn    ProgressFunc
	stage string
	total int
	width int
	next  int
}

func newProgressTracker(fn ProgressFunc, stage string, total int) *progressTracker {
	width := min(max(total/10, 500), 10000)
	return &progressTracker{fn: fn, stage: stage, total: total, width: width, next: width}
}

func (p *progressTracker) update(done int) {
	if p.fn == nil {
		return
	}
	if done >= p.next || done == p.total {
		p.fn(p.stage, done, p.total)
		p.next = (done/p.width + 1) * p.width
	}
}
