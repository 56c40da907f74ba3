package stack

// Diagnostic codes for recoverable conditions found during assembly.
const (
	// CodeIrregularSpacing flags inter-slice distances that are not
	// uniform, typically because slices are missing from the input.
	CodeIrregularSpacing = "irregular_spacing"
)

// Diagnostic is a non-fatal condition observed while assembling a stack.
// Assembly proceeds after reporting one.
type Diagnostic struct {
	// Code identifies the condition.
	Code string

	// Message is a human-readable description.
	Message string

	// Spacings lists the distinct inter-slice distances observed, when the
	// condition concerns slice spacing.
	Spacings []float64
}

// Sink receives diagnostics from an assembler. A sink is supplied by the
// caller so that concurrent assemblies never share warning state.
type Sink interface {
	Report(d Diagnostic)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Diagnostic)

// Report calls f(d).
func (f SinkFunc) Report(d Diagnostic) { f(d) }

// Collector is a Sink that retains diagnostics in the order reported.
type Collector struct {
	Diagnostics []Diagnostic
}

// Report appends d to the collected diagnostics.
func (c *Collector) Report(d Diagnostic) {
	c.Diagnostics = append(c.Diagnostics, d)
}
