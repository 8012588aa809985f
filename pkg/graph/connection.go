package graph

// Connection is a directed edge record stored on its source node.
type Connection[ID NodeID, C any] struct {
	Target ID
	Data   C
}

// BackwardLink records that Source holds a forward connection to the node
// that owns the link. It carries no payload; the payload lives only on the
// forward side.
type BackwardLink[ID NodeID] struct {
	Source ID
}
