package graph

// Node is a live vertex. Data may be modified freely through the pointer
// returned by Graph.NodeGet; the adjacency indices are only reachable
// read-only and are maintained by the Graph so that both sides of every
// edge stay in step.
type Node[ID NodeID, N, C any, F ForwardIndex[ID, C], B BackwardIndex[ID]] struct {
	id       ID
	Data     N
	forward  F
	backward B
}

// ID returns the node's id, which is also its slot index.
func (n *Node[ID, N, C, F, B]) ID() ID { return n.id }

// Forward returns the node's outgoing connections in storage order.
func (n *Node[ID, N, C, F, B]) Forward() []Connection[ID, C] { return n.forward.Data() }

// Connection returns the outgoing connection to target.
func (n *Node[ID, N, C, F, B]) Connection(target ID) (Connection[ID, C], error) {
	return n.forward.Get(target)
}

// Backward returns the links to the node's predecessors.
func (n *Node[ID, N, C, F, B]) Backward() []BackwardLink[ID] { return n.backward.Data() }

// HasPredecessor reports whether source holds a connection to this node.
func (n *Node[ID, N, C, F, B]) HasPredecessor(source ID) bool { return n.backward.Contains(source) }

// OutDegree returns the number of outgoing connections.
func (n *Node[ID, N, C, F, B]) OutDegree() int { return n.forward.Len() }

// InDegree returns the number of predecessors.
func (n *Node[ID, N, C, F, B]) InDegree() int { return n.backward.Len() }
