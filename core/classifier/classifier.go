package classifier

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/kilianp07/ucommit/core/factory"
)

// Classifier is a binary classifier. Fit is called once; Predict must be
// safe for concurrent use afterwards.
type Classifier interface {
	Fit(X mat.Matrix, y []int) error
	Predict(X mat.Matrix) ([]int, error)
}

// ErrNotFitted is returned by Predict before Fit.
var ErrNotFitted = errors.New("classifier not fitted")

var registry = factory.NewRegistry[Classifier]()

// Register adds a classifier factory identified by name.
func Register(name string, f factory.Factory[Classifier]) error {
	return registry.Register(name, f)
}

// New creates an unfitted classifier from its configuration.
func New(cfg factory.ModuleConfig) (Classifier, error) {
	return registry.Create(cfg)
}

// Kinds lists the registered classifier types.
func Kinds() []string { return registry.Names() }

func init() {
	_ = Register("constant", func(map[string]any) (Classifier, error) {
		return &Constant{}, nil
	})
	_ = Register("tree", func(conf map[string]any) (Classifier, error) {
		c := struct {
			MaxDepth int `json:"max_depth"`
			MinLeaf  int `json:"min_leaf"`
		}{MaxDepth: 8, MinLeaf: 1}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewTree(c.MaxDepth, c.MinLeaf), nil
	})
	_ = Register("logistic", func(conf map[string]any) (Classifier, error) {
		c := struct {
			Lambda        float64 `json:"lambda"`
			MaxIterations int     `json:"max_iterations"`
		}{Lambda: 1e-3, MaxIterations: 500}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewLogistic(c.Lambda, c.MaxIterations), nil
	})
}

func checkFit(X mat.Matrix, y []int) error {
	r, _ := X.Dims()
	if r != len(y) {
		return fmt.Errorf("%d feature rows for %d labels", r, len(y))
	}
	if r == 0 {
		return errors.New("no training rows")
	}
	for _, l := range y {
		if l != 0 && l != 1 {
			return fmt.Errorf("label %d is not binary", l)
		}
	}
	return nil
}

// majority returns the most frequent label; ties go to 1.
func majority(y []int) int {
	ones := 0
	for _, l := range y {
		ones += l
	}
	if 2*ones >= len(y) {
		return 1
	}
	return 0
}

// Constant always predicts the majority class of its training labels.
type Constant struct {
	Label  int
	fitted bool
}

// Fit records the majority label.
func (c *Constant) Fit(X mat.Matrix, y []int) error {
	if err := checkFit(X, y); err != nil {
		return err
	}
	c.Label = majority(y)
	c.fitted = true
	return nil
}

// Predict returns Label for every row.
func (c *Constant) Predict(X mat.Matrix) ([]int, error) {
	if !c.fitted {
		return nil, ErrNotFitted
	}
	r, _ := X.Dims()
	out := make([]int, r)
	for i := range out {
		out[i] = c.Label
	}
	return out, nil
}
