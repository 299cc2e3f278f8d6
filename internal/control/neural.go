package control

// Neural holds the command latched from the last controller evaluation.
// Outputs are gates: any non-zero value switches the matching field on.
type Neural struct {
	cmd Command
}

func NewNeural() *Neural {
	return &Neural{}
}

func (n *Neural) Kind() Kind { return KindNeural }

func (n *Neural) Command() Command {
	return n.cmd
}

// Apply maps outputs to forward, left, right, reverse in that order. Missing
// outputs read as off.
func (n *Neural) Apply(outputs []float64) {
	gate := func(i int) bool {
		return i < len(outputs) && outputs[i] != 0
	}
	n.cmd = Command{
		Forward: gate(0),
		Left:    gate(1),
		Right:   gate(2),
		Reverse: gate(3),
	}
}
