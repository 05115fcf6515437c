// Package gbt decodes and evaluates gradient-boosted tree ensembles stored in
// the "gbtree/v1" JSON artifact format.
//
// An artifact carries a flat node list per tree. Internal nodes send a sample
// left when x[feature] < threshold. Children always sit after their parent in
// the node list, which Decode enforces so evaluation cannot loop.
package gbt

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	FormatV1 = "gbtree/v1"

	ObjectiveBinaryLogistic = "binary:logistic"
	ObjectiveMultiSoftprob  = "multi:softprob"
)

var (
	ErrInvalidModel = errors.New("invalid model artifact")
	ErrFeatureCount = errors.New("feature count mismatch")
	ErrNumeric      = errors.New("non-finite model output")
)

// Node is one entry of a tree's node list.
type Node struct {
	Leaf      bool    `json:"leaf,omitempty"`
	Value     float64 `json:"value,omitempty"`
	Feature   int     `json:"feature,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Left      int     `json:"left,omitempty"`
	Right     int     `json:"right,omitempty"`
}

// Tree contributes its leaf value to the margin of Class.
type Tree struct {
	Class int    `json:"class"`
	Nodes []Node `json:"nodes"`
}

// Model is a decoded, validated ensemble. It is immutable and safe for
// concurrent use.
type Model struct {
	Format      string   `json:"format"`
	Objective   string   `json:"objective"`
	NumFeatures int      `json:"num_features"`
	NumClass    int      `json:"num_class"`
	BaseMargin  float64  `json:"base_margin"`
	Labels      []string `json:"labels,omitempty"`
	Trees       []Tree   `json:"trees"`
}

// Output is the result of evaluating one feature vector.
type Output struct {
	Label         int
	Class         string
	Probabilities []float64
}

// Decode reads and validates a model from r.
func Decode(r io.Reader) (*Model, error) {
	var m Model
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Model) validate() error {
	if m.Format != FormatV1 {
		return fmt.Errorf("%w: unsupported format %q", ErrInvalidModel, m.Format)
	}
	switch m.Objective {
	case ObjectiveBinaryLogistic:
		if m.NumClass == 0 {
			m.NumClass = 2
		}
		if m.NumClass != 2 {
			return fmt.Errorf("%w: %s requires num_class 2", ErrInvalidModel, m.Objective)
		}
	case ObjectiveMultiSoftprob:
		if m.NumClass < 2 {
			return fmt.Errorf("%w: %s requires num_class >= 2", ErrInvalidModel, m.Objective)
		}
	default:
		return fmt.Errorf("%w: unsupported objective %q", ErrInvalidModel, m.Objective)
	}
	if m.NumFeatures <= 0 {
		return fmt.Errorf("%w: num_features must be positive", ErrInvalidModel)
	}
	if len(m.Labels) > 0 && len(m.Labels) != m.NumClass {
		return fmt.Errorf("%w: %d labels for %d classes", ErrInvalidModel, len(m.Labels), m.NumClass)
	}
	if len(m.Trees) == 0 {
		return fmt.Errorf("%w: no trees", ErrInvalidModel)
	}

	margins := m.numMargins()
	for ti, t := range m.Trees {
		if t.Class < 0 || t.Class >= margins {
			return fmt.Errorf("%w: tree %d: class %d out of range", ErrInvalidModel, ti, t.Class)
		}
		if len(t.Nodes) == 0 {
			return fmt.Errorf("%w: tree %d: empty", ErrInvalidModel, ti)
		}
		for ni, n := range t.Nodes {
			if n.Leaf {
				if math.IsNaN(n.Value) || math.IsInf(n.Value, 0) {
					return fmt.Errorf("%w: tree %d node %d: non-finite leaf", ErrInvalidModel, ti, ni)
				}
				continue
			}
			if n.Feature < 0 || n.Feature >= m.NumFeatures {
				return fmt.Errorf("%w: tree %d node %d: feature %d out of range", ErrInvalidModel, ti, ni, n.Feature)
			}
			if n.Left <= ni || n.Right <= ni || n.Left >= len(t.Nodes) || n.Right >= len(t.Nodes) {
				return fmt.Errorf("%w: tree %d node %d: bad child index", ErrInvalidModel, ti, ni)
			}
		}
	}
	return nil
}

// numMargins is 1 for binary models (a single logit) and NumClass otherwise.
func (m *Model) numMargins() int {
	if m.Objective == ObjectiveBinaryLogistic {
		return 1
	}
	return m.NumClass
}

// Predict evaluates x.
func (m *Model) Predict(x []float64) (*Output, error) {
	if len(x) != m.NumFeatures {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrFeatureCount, m.NumFeatures, len(x))
	}

	margins := make([]float64, m.numMargins())
	for i := range margins {
		margins[i] = m.BaseMargin
	}
	for _, t := range m.Trees {
		margins[t.Class] += t.leafValue(x)
	}
	for _, v := range margins {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, ErrNumeric
		}
	}

	var probs []float64
	if m.Objective == ObjectiveBinaryLogistic {
		p := 1 / (1 + math.Exp(-margins[0]))
		probs = []float64{1 - p, p}
	} else {
		lse := floats.LogSumExp(margins)
		probs = make([]float64, len(margins))
		for i, v := range margins {
			probs[i] = math.Exp(v - lse)
		}
	}

	out := &Output{Label: floats.MaxIdx(probs), Probabilities: probs}
	if len(m.Labels) > 0 {
		out.Class = m.Labels[out.Label]
	}
	return out, nil
}

func (t Tree) leafValue(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Leaf {
			return n.Value
		}
		if x[n.Feature] < n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}
