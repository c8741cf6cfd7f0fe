package domain

type OrderStatus string

const (
	OrderStatusNew        OrderStatus = "new"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusDone       OrderStatus = "done"
	OrderStatusError      OrderStatus = "error"
)

type PreprintStatus string

const (
	PreprintStatusPending    PreprintStatus = "pending"
	PreprintStatusProcessing PreprintStatus = "processing"
	PreprintStatusCompleted  PreprintStatus = "completed"
	PreprintStatusFailed     PreprintStatus = "failed"
)

type PrintStatus string

const (
	PrintStatusPending    PrintStatus = "pending"
	PrintStatusProcessing PrintStatus = "processing"
	PrintStatusRipped     PrintStatus = "ripped"
	PrintStatusCompleted  PrintStatus = "completed"
	PrintStatusFailed     PrintStatus = "failed"
)

// Phase identifies one stage of external finishing. The numeric values are
// wire-visible as operation_id in dispatch payloads.
type Phase int

const (
	PhasePreprint Phase = 1
	PhasePrint    Phase = 2
	PhaseLabel    Phase = 3
)

func (p Phase) Name() string {
	switch p {
	case PhasePreprint:
		return "PREPRINT"
	case PhasePrint:
		return "PRINT"
	case PhaseLabel:
		return "LABEL"
	default:
		return ""
	}
}

func (p Phase) Valid() bool {
	return p == PhasePreprint || p == PhasePrint || p == PhaseLabel
}

// WorkflowStage is the operator-facing stage label. It is always derived from
// the two phase statuses and never stored.
type WorkflowStage string

const (
	StageNuovo      WorkflowStage = "nuovo"
	StagePreStampa  WorkflowStage = "pre-stampa"
	StageStampa     WorkflowStage = "stampa"
	StageRippato    WorkflowStage = "rippato"
	StageCompletato WorkflowStage = "completato"
)

// Stage derives the workflow stage from the two phase statuses.
func Stage(preprint PreprintStatus, print PrintStatus) WorkflowStage {
	switch {
	case print == PrintStatusCompleted:
		return StageCompletato
	case print == PrintStatusRipped:
		return StageRippato
	case preprint == PreprintStatusCompleted:
		return StageStampa
	case preprint == PreprintStatusProcessing:
		return StagePreStampa
	default:
		return StageNuovo
	}
}
