package control

// Fixed always drives forward.
type Fixed struct{}

func NewFixed() *Fixed {
	return &Fixed{}
}

func (f *Fixed) Kind() Kind { return KindFixed }

func (f *Fixed) Command() Command {
	return Command{Forward: true}
}
