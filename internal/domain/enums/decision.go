package enums

type Decision string

const (
	DecisionAllow Decision = "allow"
	DecisionKick  Decision = "kick"
	DecisionBan   Decision = "ban"
)

func (d Decision) RequiresAction() bool {
	return d == DecisionKick || d == DecisionBan
}
