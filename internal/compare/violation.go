// Package compare implements the golden-vs-test validation core: the
// violation accumulator, the recursive tree walk, and the three
// dataset-kind validators.
package compare

import "fmt"

// Kind classifies a violation per the error-handling taxonomy.
type Kind string

const (
	// KindParameterDomain marks a policy threshold outside its domain.
	KindParameterDomain Kind = "parameter_domain"
	// KindStructural marks mismatched key sets, shapes or dtypes.
	KindStructural Kind = "structural"
	// KindTolerance marks an exceeded numeric, overlap or phase budget.
	KindTolerance Kind = "tolerance"
	// KindSoft marks a logged-only difference in an allow-listed
	// free-text field. Soft violations never flip the verdict.
	KindSoft Kind = "soft"
)

// Violation records a single mismatch. Violations are accumulated,
// never used as control flow.
type Violation struct {
	Path    string
	Kind    Kind
	Message string
}

// Hard reports whether the violation counts against the verdict.
func (v Violation) Hard() bool { return v.Kind != KindSoft }

func (v Violation) String() string {
	return fmt.Sprintf("[%s] %s: %s", v.Kind, v.Path, v.Message)
}
