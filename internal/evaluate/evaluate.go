// Package evaluate implements the Evaluator (spec §4.7): top-down
// keyword invocation against a JSON instance, dynamic-anchor resolution,
// and report assembly in Flag/Basic/Detailed/Verbose form.
package evaluate

import (
	"math/big"

	"github.com/schemagraph/jsonschema/anymap"
	"github.com/schemagraph/jsonschema/internal/graph"
	"github.com/schemagraph/jsonschema/keyword"
	"github.com/schemagraph/jsonschema/numcache"
	"github.com/schemagraph/jsonschema/uri"
	"github.com/schemagraph/jsonschema/valuecache"
)

// Output selects the report structure (spec §4.7.1).
type Output uint8

const (
	// Flag reports only a boolean.
	Flag Output = iota
	// Basic flattens the tree into leaf assessments.
	Basic
	// Detailed collapses single-child applicator nodes and prunes empty
	// ones.
	Detailed
	// Verbose keeps the complete tree.
	Verbose
)

// Node is one assessment in the report tree (spec §6.3's wire fields).
type Node struct {
	Valid                   bool           `json:"valid"`
	KeywordLocation         string         `json:"keywordLocation"`
	AbsoluteKeywordLocation string         `json:"absoluteKeywordLocation"`
	InstanceLocation        string         `json:"instanceLocation"`
	Error                   string         `json:"error,omitempty"`
	Code                    string         `json:"code,omitempty"`
	Params                  map[string]any `json:"params,omitempty"`
	Annotation              any            `json:"annotation,omitempty"`
	Annotations             []*Node        `json:"annotations,omitempty"`
	Errors                  []*Node        `json:"errors,omitempty"`

	kind string
}

// hasUnevaluated reports whether a dialect declares any "unevaluated*"
// keyword, which forces exhaustive evaluation even under Flag output
// (spec §4.7.1).
func hasUnevaluated(descriptors []keyword.Descriptor) bool {
	for _, d := range descriptors {
		if d.Kind == "unevaluatedProperties" || d.Kind == "unevaluatedItems" {
			return true
		}
	}
	return false
}

// dynamicFrame is one entry of the dynamic-anchor stack. evaluateSchema
// pushes one for every non-boolean schema it evaluates, not only for
// resource boundaries (schema nodes with their own $id), and pops it on
// exit, so a binding lasts only while the schema that registered it is
// being evaluated.
type dynamicFrame struct {
	anchors map[string]keyword.SchemaKey
}

// Evaluator drives evaluation against a committed Schema graph.
type Evaluator struct {
	graph       *graph.Graph
	numbers     *numcache.Cache
	values      *valuecache.Cache
	descriptors []keyword.Descriptor
	exhaustive  bool
}

// New creates an Evaluator over a committed graph. descriptors is the
// dialect's keyword set, consulted only to decide whether Flag output
// may short-circuit.
func New(g *graph.Graph, n *numcache.Cache, v *valuecache.Cache, descriptors []keyword.Descriptor) *Evaluator {
	return &Evaluator{graph: g, numbers: n, values: v, descriptors: descriptors, exhaustive: hasUnevaluated(descriptors)}
}

// Evaluate runs root against value, producing a report in the requested
// Output form.
func (e *Evaluator) Evaluate(root keyword.SchemaKey, value any, output Output) (*Node, bool) {
	ec := &evalContext{
		e:            e,
		shortCircuit: output == Flag && !e.exhaustive,
		state:        make(map[keyword.SchemaKey]*anymap.Map),
	}
	node := ec.evaluateSchema(root, value, uri.Root, uri.Root)
	if node == nil {
		// Short-circuited to failure before any node was produced.
		return &Node{Valid: false}, false
	}
	switch output {
	case Flag:
		return &Node{Valid: node.Valid}, node.Valid
	case Basic:
		return flatten(node), node.Valid
	case Detailed:
		return collapse(node), node.Valid
	default:
		return node, node.Valid
	}
}

// shortCircuitAbort is used internally to unwind evaluation as soon as a
// Flag-mode failure is found.
type shortCircuitAbort struct{}

func (shortCircuitAbort) Error() string { return "short-circuited" }

// evalContext threads per-evaluation state: the caches, the dynamic
// anchor stack, and per-schema-node heterogeneous state maps (keyed by
// SchemaKey since a schema may be evaluated against more than one
// instance location within one Evaluate call, e.g. under items/prefixItems).
type evalContext struct {
	e            *Evaluator
	shortCircuit bool
	failed       bool

	state map[keyword.SchemaKey]*anymap.Map
	stack []dynamicFrame

	self             keyword.SchemaKey
	instanceLocation uri.Pointer
	keywordLocation  uri.Pointer
	current          *Node
}

func (ec *evalContext) Self() keyword.SchemaKey       { return ec.self }
func (ec *evalContext) InstanceLocation() uri.Pointer { return ec.instanceLocation }
func (ec *evalContext) KeywordLocation() uri.Pointer  { return ec.keywordLocation }
func (ec *evalContext) Numbers() *numcache.Cache      { return ec.e.numbers }
func (ec *evalContext) Values() *valuecache.Cache     { return ec.e.values }

func (ec *evalContext) State() *anymap.Map {
	return ec.ChildState(ec.self)
}

func (ec *evalContext) ChildState(key keyword.SchemaKey) *anymap.Map {
	m, ok := ec.state[key]
	if !ok {
		m = anymap.New()
		ec.state[key] = m
	}
	return m
}

func (ec *evalContext) Annotate(value any) {
	ec.current.Annotation = value
}

func (ec *evalContext) Fail(code, message string, params map[string]any) {
	ec.current.Valid = false
	ec.current.Error = message
	ec.current.Code = code
	ec.current.Params = params
	ec.failed = true
}

func (ec *evalContext) ParseNumber(literal string) (*big.Rat, error) {
	return ec.e.numbers.GetOrInsert(literal)
}

func (ec *evalContext) PushDynamicAnchor(name string, key keyword.SchemaKey) {
	if len(ec.stack) == 0 {
		return
	}
	top := &ec.stack[len(ec.stack)-1]
	if top.anchors == nil {
		top.anchors = make(map[string]keyword.SchemaKey)
	}
	top.anchors[name] = key
}

func (ec *evalContext) LookupDynamicAnchor(name string) (keyword.SchemaKey, bool) {
	for _, frame := range ec.stack {
		if k, ok := frame.anchors[name]; ok {
			return k, true
		}
	}
	return keyword.Invalid, false
}

func (ec *evalContext) EvaluateChild(key keyword.SchemaKey, instanceSegment, keywordSegment uri.Pointer, value any) (bool, error) {
	child := ec.evaluateSchema(key, value, ec.instanceLocation.Append(instanceSegment), ec.keywordLocation.Append(keywordSegment))
	if child == nil {
		return false, shortCircuitAbort{}
	}
	ec.current.appendChild(child)
	if !child.Valid {
		ec.current.Valid = false
	}
	return child.Valid, nil
}

func (ec *evalContext) TryChild(key keyword.SchemaKey, instanceSegment, keywordSegment uri.Pointer, value any) (bool, error) {
	savedShortCircuit, savedFailed := ec.shortCircuit, ec.failed
	ec.shortCircuit = false
	child := ec.evaluateSchema(key, value, ec.instanceLocation.Append(instanceSegment), ec.keywordLocation.Append(keywordSegment))
	ec.shortCircuit, ec.failed = savedShortCircuit, savedFailed
	if child == nil {
		return false, nil
	}
	ec.current.appendChild(child)
	return child.Valid, nil
}

// evaluateSchema evaluates key against value, pushing/popping a
// dynamic-anchor frame when key is a resource boundary (has its own
// canonical URI distinct from any enclosing schema — approximated here
// by every schema pushing a frame, since only dynamicRef/dynamicAnchor
// keywords populate it and non-resource schemas simply push an empty,
// harmless frame).
func (ec *evalContext) evaluateSchema(key keyword.SchemaKey, value any, instanceLocation, keywordLocation uri.Pointer) *Node {
	if ec.shortCircuit && ec.failed {
		return nil
	}

	sch := ec.e.graph.Schema(key)
	absolute := ""
	if len(sch.URIs) > 0 {
		absolute = sch.URIs[0]
	}

	node := &Node{
		Valid:                   true,
		InstanceLocation:        instanceLocation.String(),
		KeywordLocation:         keywordLocation.String(),
		AbsoluteKeywordLocation: absolute,
	}

	if sch.BoolValue != nil {
		node.Valid = *sch.BoolValue
		if !node.Valid {
			node.Error = "false schema never validates"
			if ec.shortCircuit {
				ec.failed = true
			}
		}
		return node
	}

	ec.stack = append(ec.stack, dynamicFrame{})
	defer func() { ec.stack = ec.stack[:len(ec.stack)-1] }()

	prevSelf, prevInstance, prevKeyword, prevCurrent := ec.self, ec.instanceLocation, ec.keywordLocation, ec.current
	ec.self, ec.instanceLocation, ec.keywordLocation, ec.current = key, instanceLocation, keywordLocation, node
	defer func() {
		ec.self, ec.instanceLocation, ec.keywordLocation, ec.current = prevSelf, prevInstance, prevKeyword, prevCurrent
	}()

	for _, kw := range sch.Keywords {
		if err := kw.Evaluate(ec, value); err != nil {
			if _, aborted := err.(shortCircuitAbort); aborted {
				return nil
			}
			node.Valid = false
			node.Error = err.Error()
		}
		if ec.shortCircuit && !node.Valid {
			ec.failed = true
			break
		}
	}

	return node
}

func (n *Node) appendChild(child *Node) {
	if child.Valid {
		n.Annotations = append(n.Annotations, child)
	} else {
		n.Errors = append(n.Errors, child)
	}
}

// flatten implements Basic output: a flat list of leaf assessments in
// the root node's Errors/Annotations slots.
func flatten(root *Node) *Node {
	out := &Node{Valid: root.Valid}
	var walk func(n *Node)
	walk = func(n *Node) {
		if len(n.Annotations) == 0 && len(n.Errors) == 0 {
			leaf := &Node{
				Valid:                   n.Valid,
				InstanceLocation:        n.InstanceLocation,
				KeywordLocation:         n.KeywordLocation,
				AbsoluteKeywordLocation: n.AbsoluteKeywordLocation,
				Error:                   n.Error,
				Code:                    n.Code,
				Params:                  n.Params,
				Annotation:              n.Annotation,
			}
			if leaf.Valid {
				out.Annotations = append(out.Annotations, leaf)
			} else {
				out.Errors = append(out.Errors, leaf)
			}
			return
		}
		for _, c := range n.Annotations {
			walk(c)
		}
		for _, c := range n.Errors {
			walk(c)
		}
	}
	walk(root)
	return out
}

// collapse implements Detailed output: applicator nodes with exactly one
// child are replaced by that child, and nodes with no children and no
// own error/annotation are pruned from their parent's list.
func collapse(n *Node) *Node {
	n.Annotations = collapseChildren(n.Annotations)
	n.Errors = collapseChildren(n.Errors)
	if len(n.Annotations) == 1 && len(n.Errors) == 0 && n.Error == "" {
		return n.Annotations[0]
	}
	if len(n.Errors) == 1 && len(n.Annotations) == 0 && n.Error == "" {
		return n.Errors[0]
	}
	return n
}

func collapseChildren(children []*Node) []*Node {
	out := make([]*Node, 0, len(children))
	for _, c := range children {
		collapsed := collapse(c)
		if collapsed.Error == "" && collapsed.Annotation == nil && len(collapsed.Annotations) == 0 && len(collapsed.Errors) == 0 {
			continue
		}
		out = append(out, collapsed)
	}
	return out
}
