package vault

import "fmt"

// Stage is one state of an item's lifecycle, backed by a directory.
type Stage string

const (
	StageIntake          Stage = "intake"
	StageNeedsAction     Stage = "needs_action"
	StagePlan            Stage = "plan"
	StagePendingApproval Stage = "pending_approval"
	StageApproved        Stage = "approved"
	StageRejected        Stage = "rejected"
	StageDone            Stage = "done"
)

// Stages lists every stage in pipeline order.
var Stages = []Stage{
	StageIntake,
	StageNeedsAction,
	StagePlan,
	StagePendingApproval,
	StageApproved,
	StageRejected,
	StageDone,
}

var stageDirs = map[Stage]string{
	StageIntake:          "Inbox",
	StageNeedsAction:     "Needs_Action",
	StagePlan:            "Plans",
	StagePendingApproval: "Pending_Approval",
	StageApproved:        "Approved",
	StageRejected:        "Rejected",
	StageDone:            "Done",
}

// Dir returns the directory name of the stage relative to the vault root.
func (s Stage) Dir() string {
	return stageDirs[s]
}

// IsValid reports whether s is a known stage.
func (s Stage) IsValid() bool {
	_, ok := stageDirs[s]
	return ok
}

// String implements fmt.Stringer.
func (s Stage) String() string { return string(s) }

// ParseStage accepts either the stage identifier or its directory name.
func ParseStage(v string) (Stage, error) {
	for s, dir := range stageDirs {
		if v == string(s) || v == dir {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown stage %q", v)
}
