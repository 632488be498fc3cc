package types

// DecisionNode is either an internal yes/no question or a terminal action.
// Exactly one of Question or Action is set; Yes and No are non-nil only on
// internal nodes.
type DecisionNode struct {
	Question string        `json:"question,omitempty" yaml:"question,omitempty" bson:"question,omitempty"`
	Yes      *DecisionNode `json:"yes,omitempty" yaml:"yes,omitempty" bson:"yes,omitempty"`
	No       *DecisionNode `json:"no,omitempty" yaml:"no,omitempty" bson:"no,omitempty"`
	Action   string        `json:"action,omitempty" yaml:"action,omitempty" bson:"action,omitempty"`
}

// MaxTreeDepth is the deepest level of a decision tree; the root is depth 1.
const MaxTreeDepth = 3

// NewQuestion builds an internal node.
func NewQuestion(question string, yes, no *DecisionNode) *DecisionNode {
	return &DecisionNode{Question: question, Yes: yes, No: no}
}

// NewAction builds a leaf node.
func NewAction(action string) *DecisionNode {
	return &DecisionNode{Action: action}
}

// IsLeaf reports whether the node is a terminal action.
func (n *DecisionNode) IsLeaf() bool {
	return n != nil && n.Question == ""
}

// Depth returns the number of levels in the tree rooted at n.
func (n *DecisionNode) Depth() int {
	if n == nil {
		return 0
	}
	if n.IsLeaf() {
		return 1
	}
	return 1 + max(n.Yes.Depth(), n.No.Depth())
}

// Walk visits every node depth-first with its depth (root = 1).
// Returning false from fn stops descent below that node.
func (n *DecisionNode) Walk(fn func(node *DecisionNode, depth int) bool) {
	n.walk(1, fn)
}

func (n *DecisionNode) walk(depth int, fn func(*DecisionNode, int) bool) {
	if n == nil || !fn(n, depth) {
		return
	}
	n.Yes.walk(depth+1, fn)
	n.No.walk(depth+1, fn)
}
