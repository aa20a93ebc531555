package jsonschema

import (
	"io"
	"strings"

	jsonexp "github.com/go-json-experiment/json"
	"github.com/kaptinlin/go-i18n"

	"github.com/schemagraph/jsonschema/internal/evaluate"
)

// Flag is the minimal Flag-output report: validity only, grounded on
// kaptinlin/jsonschema's result.go Flag.
type Flag struct {
	Valid bool `json:"valid"`
}

// ListEntry is one entry of a flattened, optionally localized error
// report, grounded on kaptinlin/jsonschema's result.go List.
type ListEntry struct {
	Valid            bool        `json:"valid"`
	KeywordLocation  string      `json:"keywordLocation"`
	InstanceLocation string      `json:"instanceLocation"`
	Error            string      `json:"error,omitempty"`
	Annotation       any         `json:"annotation,omitempty"`
	Details          []ListEntry `json:"details,omitempty"`
}

// Report wraps one evaluate.Node tree and adds the conveniences
// kaptinlin/jsonschema's EvaluationResult offered on top of the teacher's
// typed *Schema result: flattening to a flag or list view, and
// translating keyword failures through an *i18n.Localizer. Report never
// re-runs evaluation; it is a read-only view over the tree Engine.Evaluate
// already produced.
type Report struct {
	node *evaluate.Node
}

func newReport(node *evaluate.Node) *Report {
	return &Report{node: node}
}

// IsValid reports the root node's validity.
func (r *Report) IsValid() bool { return r.node.Valid }

// Node returns the underlying evaluate.Node tree, for callers that want
// the raw Basic/Detailed/Verbose structure spec §6.3 defines on the wire.
func (r *Report) Node() *evaluate.Node { return r.node }

// WriteJSON streams the report tree to w without an intermediate
// []byte allocation, grounded on kaptinlin/jsonschema's schema.go use of
// go-json-experiment/json for low-allocation streaming encode.
func (r *Report) WriteJSON(w io.Writer) error {
	return jsonexp.MarshalWrite(w, r.node)
}

// ToFlag collapses the report to its boolean verdict.
func (r *Report) ToFlag() Flag {
	return Flag{Valid: r.node.Valid}
}

// ToList converts the report into a ListEntry tree, untranslated: each
// entry's Details holds the node's error children, or its annotation
// children when the node is valid. Equivalent to ToLocalizedList(nil).
func (r *Report) ToList() ListEntry {
	return r.toListEntry(nil)
}

// ToLocalizedList builds the same tree as ToList, but renders each
// failing node's message through localizer when one is supplied,
// grounded on kaptinlin/jsonschema's result.go
// EvaluationResult.ToLocalizeList.
func (r *Report) ToLocalizedList(localizer *i18n.Localizer) ListEntry {
	return r.toListEntry(localizer)
}

func (r *Report) toListEntry(localizer *i18n.Localizer) ListEntry {
	return nodeToListEntry(r.node, localizer)
}

func nodeToListEntry(n *evaluate.Node, localizer *i18n.Localizer) ListEntry {
	entry := ListEntry{
		Valid:            n.Valid,
		KeywordLocation:  n.KeywordLocation,
		InstanceLocation: n.InstanceLocation,
		Annotation:       n.Annotation,
	}
	entry.Error = localizeNode(n, localizer)

	children := n.Errors
	if n.Valid {
		children = n.Annotations
	}
	if len(children) > 0 {
		entry.Details = make([]ListEntry, len(children))
		for i, c := range children {
			entry.Details[i] = nodeToListEntry(c, localizer)
		}
	}
	return entry
}

// localizeNode renders a node's failure message: through localizer,
// keyed by the keyword Code the failing keyword passed to Fail, falling
// back to the raw English message evaluate already produced when no
// localizer is given or the node carries no Code (e.g. a $ref chain
// failure or a bare boolean-false schema).
func localizeNode(n *evaluate.Node, localizer *i18n.Localizer) string {
	if n.Error == "" {
		return ""
	}
	if localizer == nil || n.Code == "" {
		return n.Error
	}
	return localizer.Get(n.Code, i18n.Vars(stringifyParams(n.Params)))
}

// stringifyParams renders Fail's params map to strings, since every
// keyword passes typed values (ints, []string, ...) but i18n.Vars
// substitutes into a text template as strings.
func stringifyParams(params map[string]any) map[string]any {
	if params == nil {
		return nil
	}
	out := make(map[string]any, len(params))
	for k, v := range params {
		switch val := v.(type) {
		case []string:
			out[k] = strings.Join(val, ", ")
		default:
			out[k] = val
		}
	}
	return out
}

// GetErrors collects every failing leaf's message into a map keyed by
// instance location, the common "show me what's wrong" shape,
// grounded on kaptinlin/jsonschema's result.go
// EvaluationResult.GetDetailedErrors.
func (r *Report) GetErrors(localizer ...*i18n.Localizer) map[string]string {
	var loc *i18n.Localizer
	if len(localizer) > 0 {
		loc = localizer[0]
	}
	out := make(map[string]string)
	collectErrors(r.node, loc, out)
	return out
}

func collectErrors(n *evaluate.Node, localizer *i18n.Localizer, out map[string]string) {
	if !n.Valid && n.Error != "" && len(n.Errors) == 0 {
		out[n.InstanceLocation] = localizeNode(n, localizer)
	}
	for _, c := range n.Errors {
		collectErrors(c, localizer, out)
	}
}
