// Package brain implements the feed-forward network that steers neural cars.
//
// A [Network] is a stack of fully connected [Level]s with a step activation:
// an output fires (1) when its weighted input sum exceeds its bias. Weights and
// biases live in [-1, 1]. Evaluation is pure; [Network.Mutate] nudges a copy
// towards random values for the genetic training loop.
package brain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"

	"github.com/san-kum/roadsim/internal/geom"
)

var ErrShape = errors.New("brain: invalid network shape")

type Level struct {
	Biases  []float64   `json:"biases"`
	Weights [][]float64 `json:"weights"` // [input][output]
}

func newLevel(rng *rand.Rand, inputs, outputs int) *Level {
	l := &Level{
		Biases:  make([]float64, outputs),
		Weights: make([][]float64, inputs),
	}
	for i := range l.Weights {
		l.Weights[i] = make([]float64, outputs)
		for j := range l.Weights[i] {
			l.Weights[i][j] = rng.Float64()*2 - 1
		}
	}
	for j := range l.Biases {
		l.Biases[j] = rng.Float64()*2 - 1
	}
	return l
}

func (l *Level) feedForward(inputs []float64) []float64 {
	outputs := make([]float64, len(l.Biases))
	for j := range outputs {
		sum := 0.0
		for i, in := range inputs {
			if i >= len(l.Weights) {
				break
			}
			sum += in * l.Weights[i][j]
		}
		if sum > l.Biases[j] {
			outputs[j] = 1
		}
	}
	return outputs
}

type Network struct {
	Levels []*Level `json:"levels"`
}

// New builds a randomly initialised network with the given layer sizes, for
// example New(rng, 5, 6, 4).
func New(rng *rand.Rand, sizes ...int) (*Network, error) {
	if len(sizes) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 layers, got %d", ErrShape, len(sizes))
	}
	for _, s := range sizes {
		if s <= 0 {
			return nil, fmt.Errorf("%w: layer sizes must be positive, got %v", ErrShape, sizes)
		}
	}

	n := &Network{Levels: make([]*Level, 0, len(sizes)-1)}
	for i := 0; i < len(sizes)-1; i++ {
		n.Levels = append(n.Levels, newLevel(rng, sizes[i], sizes[i+1]))
	}
	return n, nil
}

// FeedForward runs inputs through every level.
func (n *Network) FeedForward(inputs []float64) []float64 {
	out := inputs
	for _, l := range n.Levels {
		out = l.feedForward(out)
	}
	return out
}

// Evaluate is FeedForward under the name the vehicle expects of a controller.
func (n *Network) Evaluate(inputs []float64) []float64 {
	return n.FeedForward(inputs)
}

// Sizes reports the layer sizes, inputs first.
func (n *Network) Sizes() []int {
	if len(n.Levels) == 0 {
		return nil
	}
	sizes := []int{len(n.Levels[0].Weights)}
	for _, l := range n.Levels {
		sizes = append(sizes, len(l.Biases))
	}
	return sizes
}

func (n *Network) Clone() *Network {
	c := &Network{Levels: make([]*Level, len(n.Levels))}
	for i, l := range n.Levels {
		cl := &Level{
			Biases:  append([]float64(nil), l.Biases...),
			Weights: make([][]float64, len(l.Weights)),
		}
		for j, w := range l.Weights {
			cl.Weights[j] = append([]float64(nil), w...)
		}
		c.Levels[i] = cl
	}
	return c
}

// Mutate moves every parameter towards a fresh random value by amount.
// amount 0 leaves the network unchanged, 1 replaces it entirely.
func (n *Network) Mutate(rng *rand.Rand, amount float64) {
	for _, l := range n.Levels {
		for j := range l.Biases {
			l.Biases[j] = geom.Lerp(l.Biases[j], rng.Float64()*2-1, amount)
		}
		for i := range l.Weights {
			for j := range l.Weights[i] {
				l.Weights[i][j] = geom.Lerp(l.Weights[i][j], rng.Float64()*2-1, amount)
			}
		}
	}
}

func Load(path string) (*Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var n Network
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("decode brain: %w", err)
	}
	if err := n.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &n, nil
}

// validate checks that every level is rectangular and that each level takes
// as many inputs as the previous one produces.
func (n *Network) validate() error {
	if len(n.Levels) == 0 {
		return fmt.Errorf("%w: no levels", ErrShape)
	}
	for k, l := range n.Levels {
		if l == nil || len(l.Biases) == 0 || len(l.Weights) == 0 {
			return fmt.Errorf("%w: level %d is empty", ErrShape, k)
		}
		for i, row := range l.Weights {
			if len(row) != len(l.Biases) {
				return fmt.Errorf("%w: level %d row %d has %d weights for %d outputs",
					ErrShape, k, i, len(row), len(l.Biases))
			}
		}
		if k > 0 && len(l.Weights) != len(n.Levels[k-1].Biases) {
			return fmt.Errorf("%w: level %d takes %d inputs, level %d gives %d",
				ErrShape, k, len(l.Weights), k-1, len(n.Levels[k-1].Biases))
		}
	}
	return nil
}

func Save(path string, n *Network) error {
	data, err := json.MarshalIndent(n, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
