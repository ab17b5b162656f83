// Package pipeline defines the stage events shared by the render and
// post-processing steps and the front ends that display them.
package pipeline

type Stage string

const (
	StageLoad      Stage = "load"
	StageRender    Stage = "render"
	StagePreflight Stage = "preflight"
	StageConcat    Stage = "concat"
	StageMix       Stage = "mix"
	StageFinalize  Stage = "finalize"
)

// Stages lists every stage in execution order.
func Stages() []Stage {
	return []Stage{StageLoad, StageRender, StagePreflight, StageConcat, StageMix, StageFinalize}
}

func (s Stage) Label() string {
	switch s {
	case StageLoad:
		return "Load data"
	case StageRender:
		return "Render main video"
	case StagePreflight:
		return "Check inputs"
	case StageConcat:
		return "Concatenate clips"
	case StageMix:
		return "Mix background music"
	case StageFinalize:
		return "Finalize output"
	default:
		return string(s)
	}
}

type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusWarning Status = "warning"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Terminal reports whether no further events are expected for the stage.
func (s Status) Terminal() bool {
	switch s {
	case StatusDone, StatusWarning, StatusSkipped, StatusFailed:
		return true
	}
	return false
}

type Event struct {
	Stage  Stage
	Status Status
	Detail string
}

// Reporter receives stage events. Implementations must be safe to call from
// the goroutine running the pipeline.
type Reporter interface {
	Report(Event)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(Event)

func (f ReporterFunc) Report(e Event) { f(e) }

// Nop discards every event.
type Nop struct{}

func (Nop) Report(Event) {}

// Or returns r, or Nop when r is nil.
func Or(r Reporter) Reporter {
	if r == nil {
		return Nop{}
	}
	return r
}
