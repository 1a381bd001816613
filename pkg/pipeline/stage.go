package pipeline

// Stage is the state of a generation job.
type Stage string

const (
	StageIdle      Stage = "idle"
	StageAnalyzing Stage = "analyzing"
	StageLayingOut Stage = "laying_out"
	StageRendering Stage = "rendering"
	StageDone      Stage = "done"
	StageFailed    Stage = "failed"
	StageCancelled Stage = "cancelled"
)

var transitions = map[Stage][]Stage{
	StageIdle:      {StageAnalyzing, StageFailed},
	StageAnalyzing: {StageLayingOut, StageFailed, StageCancelled},
	StageLayingOut: {StageRendering, StageFailed, StageCancelled},
	StageRendering: {StageDone, StageFailed},
}

// CanTransition reports whether a job may move from s to next.
func (s Stage) CanTransition(next Stage) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Terminal reports whether s is a final stage.
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageFailed || s == StageCancelled
}

// Label returns the progress message shown while a job is in s.
func (s Stage) Label() string {
	switch s {
	case StageAnalyzing:
		return "Analizando semántica..."
	case StageLayingOut:
		return "Calculando geometría..."
	case StageRendering:
		return "Renderizando estilo..."
	case StageDone:
		return "Listo"
	case StageFailed:
		return "Error"
	case StageCancelled:
		return "Cancelado"
	default:
		return ""
	}
}
