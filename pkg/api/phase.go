package api

type (
	// RequiredPhase names the lifecycle point by which a property must have
	// a value
	RequiredPhase string

	// Direction is the direction of an activity transition
	Direction string
)

const (
	PhaseOptional    RequiredPhase = "optional"
	PhaseActivate    RequiredPhase = "activate"
	PhaseAdvance     RequiredPhase = "advance"
	PhaseSaveChanges RequiredPhase = "saveChanges"
	PhaseFinish      RequiredPhase = "finish"
	PhaseCreates     RequiredPhase = "creates"
)

const (
	DirectionNone     Direction = "none"
	DirectionForward  Direction = "forward"
	DirectionBackward Direction = "backward"
)

// DirectionOf returns the direction of moving from one activity index to
// another
func DirectionOf(from, to int) Direction {
	switch {
	case to > from:
		return DirectionForward
	case to < from:
		return DirectionBackward
	default:
		return DirectionNone
	}
}
