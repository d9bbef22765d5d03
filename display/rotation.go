package display

import (
	"time"

	"github.com/marcus-crane/lobby/models"
)

const RotationInterval = 6 * time.Second

type Pager struct {
	From  int `json:"from"`
	To    int `json:"to"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Pages int `json:"pages"`
}

// RotationController pages through the roster a window at a time. Its timer
// only exists while there is more than one window worth of patients.
type RotationController struct {
	store    *RosterStore
	sched    Scheduler
	offset   int
	timer    Timer
	OnChange func()
}

func NewRotationController(store *RosterStore, sched Scheduler) *RotationController {
	return &RotationController{
		store: store,
		sched: sched,
	}
}

func (rc *RotationController) Offset() int {
	return rc.offset
}

func (rc *RotationController) Running() bool {
	return rc.timer != nil
}

func (rc *RotationController) Window() []models.Patient {
	return ComputeWindow(rc.store.Patients(), rc.offset)
}

// Tick moves to the next window. It always looks at the roster as it is now
// rather than whatever it was when the timer was armed.
func (rc *RotationController) Tick() {
	n := rc.store.Len()
	if n <= WindowSize {
		return
	}
	rc.offset += WindowSize
	if rc.offset >= n {
		rc.offset = 0
	}
}

// Sync brings the offset and timer in line with a freshly replaced roster
func (rc *RotationController) Sync() {
	n := rc.store.Len()
	if n <= WindowSize {
		rc.offset = 0
		rc.Stop()
		return
	}
	if rc.offset >= n {
		rc.offset = 0
	}
	if rc.timer == nil {
		rc.arm()
	}
}

func (rc *RotationController) Stop() {
	if rc.timer != nil {
		rc.timer.Stop()
		rc.timer = nil
	}
}

func (rc *RotationController) Pager() (Pager, bool) {
	n := rc.store.Len()
	if n <= WindowSize {
		return Pager{}, false
	}
	return Pager{
		From:  rc.offset + 1,
		To:    min(rc.offset+WindowSize, n),
		Total: n,
		Page:  rc.offset/WindowSize + 1,
		Pages: (n + WindowSize - 1) / WindowSize,
	}, true
}

func (rc *RotationController) arm() {
	rc.timer = rc.sched.AfterFunc(RotationInterval, func() {
		rc.timer = nil
		rc.Tick()
		if rc.OnChange != nil {
			rc.OnChange()
		}
		if rc.store.Len() > WindowSize {
			rc.arm()
		}
	})
}
