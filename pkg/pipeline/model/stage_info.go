package model

// StageInfo describes a registered stage: its id and the ports it declared.
// Options receive StageInfo values; the stage implementation itself is never
// exposed to them.
type StageInfo struct {
	ID      string
	Inputs  []Port
	Outputs []Port
}

// Binding is a directed connection from an output port of one stage to an
// input port of another.
type Binding struct {
	FromStage string
	FromPort  string
	ToStage   string
	ToPort    string
}

func (b *Binding) String() string {
	return b.FromStage + "." + b.FromPort + " -> " + b.ToStage + "." + b.ToPort
}
