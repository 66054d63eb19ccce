package api

type (
	// FlowID identifies a stored flow snapshot
	FlowID string
)

// LatestFlowID is the reserved identifier that resolves to the most
// recently created flow
const LatestFlowID FlowID = "latest"

// IsLatest reports whether id is the reserved "most recent" token
func (id FlowID) IsLatest() bool {
	return id == LatestFlowID
}
