package mediaupload

// Phase is a network step of the upload protocol.
type Phase string

const (
	PhaseInit     Phase = "INIT"
	PhaseAppend   Phase = "APPEND"
	PhaseFinalize Phase = "FINALIZE"
	PhaseStatus   Phase = "STATUS"
	PhasePost     Phase = "STATUS_POST"
)

// State is the position of an attempt in the upload state machine.
// Transitions only move forward; any failure jumps to StateDone.
type State int

const (
	StateIdle State = iota
	StateReadingFile
	StateAcquiringCredential
	StateInit
	StateAppend
	StateFinalize
	StateAwaitingProcessing
	StatePostingStatus
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateReadingFile:
		return "ReadingFile"
	case StateAcquiringCredential:
		return "AcquiringCredential"
	case StateInit:
		return "Init"
	case StateAppend:
		return "Append"
	case StateFinalize:
		return "Finalize"
	case StateAwaitingProcessing:
		return "AwaitingProcessing"
	case StatePostingStatus:
		return "PostingStatus"
	case StateDone:
		return "Done"
	default:
		return "Unknown"
	}
}
