package classifier

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

// Logistic is an L2-regularised logistic regression on standardised
// features, fitted with L-BFGS. A single-class label column degenerates to
// a constant predictor.
type Logistic struct {
	Lambda        float64
	MaxIterations int

	mean, scale []float64
	weights     []float64 // bias first
	constant    *Constant
}

// NewLogistic returns an unfitted logistic regression.
func NewLogistic(lambda float64, maxIterations int) *Logistic {
	if maxIterations <= 0 {
		maxIterations = 500
	}
	return &Logistic{Lambda: lambda, MaxIterations: maxIterations}
}

// Fit estimates the weights.
func (l *Logistic) Fit(X mat.Matrix, y []int) error {
	if err := checkFit(X, y); err != nil {
		return err
	}
	ones := 0
	for _, v := range y {
		ones += v
	}
	if ones == 0 || ones == len(y) {
		l.constant = &Constant{}
		return l.constant.Fit(X, y)
	}
	l.constant = nil

	rows := toRows(X)
	d := len(rows[0])
	l.mean = make([]float64, d)
	l.scale = make([]float64, d)
	col := make([]float64, len(rows))
	for j := 0; j < d; j++ {
		for i, r := range rows {
			col[i] = r[j]
		}
		mean, std := stat.MeanStdDev(col, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		l.mean[j], l.scale[j] = mean, std
	}
	z := make([][]float64, len(rows))
	for i, r := range rows {
		z[i] = l.standardise(r)
	}

	n := float64(len(y))
	problem := optimize.Problem{
		Func: func(w []float64) float64 {
			var loss float64
			for i, zi := range z {
				m := w[0] + floats.Dot(w[1:], zi)
				// log(1+exp(-s·m)) with s = ±1
				if y[i] == 1 {
					loss += softplus(-m)
				} else {
					loss += softplus(m)
				}
			}
			return loss/n + 0.5*l.Lambda*floats.Dot(w[1:], w[1:])
		},
		Grad: func(grad, w []float64) {
			for k := range grad {
				grad[k] = 0
			}
			for i, zi := range z {
				r := sigmoid(w[0]+floats.Dot(w[1:], zi)) - float64(y[i])
				grad[0] += r
				floats.AddScaled(grad[1:], r, zi)
			}
			floats.Scale(1/n, grad)
			floats.AddScaled(grad[1:], l.Lambda, w[1:])
		},
	}
	settings := &optimize.Settings{
		GradientThreshold: 1e-8,
		MajorIterations:   l.MaxIterations,
	}
	res, err := optimize.Minimize(problem, make([]float64, d+1), settings, &optimize.LBFGS{})
	// A line search stalling near the optimum is reported as an error; the
	// best location found is still usable when finite.
	if err != nil && (res == nil || !finiteAll(res.X)) {
		return fmt.Errorf("logistic fit: %w", err)
	}
	l.weights = res.X
	return nil
}

// Predict labels rows with probability >= 0.5 as committed.
func (l *Logistic) Predict(X mat.Matrix) ([]int, error) {
	if l.constant != nil {
		return l.constant.Predict(X)
	}
	if l.weights == nil {
		return nil, ErrNotFitted
	}
	r, c := X.Dims()
	if c != len(l.mean) {
		return nil, fmt.Errorf("expected %d features, got %d", len(l.mean), c)
	}
	out := make([]int, r)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, X)
		if l.weights[0]+floats.Dot(l.weights[1:], l.standardise(row)) >= 0 {
			out[i] = 1
		}
	}
	return out, nil
}

func (l *Logistic) standardise(r []float64) []float64 {
	out := make([]float64, len(r))
	for j, v := range r {
		out[j] = (v - l.mean[j]) / l.scale[j]
	}
	return out
}

func finiteAll(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return len(v) > 0
}

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

// softplus computes log(1+exp(x)) without overflow.
func softplus(x float64) float64 {
	if x > 30 {
		return x
	}
	return math.Log1p(math.Exp(x))
}
