package compare

import "github.com/zjrosen/goldcheck/internal/config"

// DatasetKind selects which validator a dataset pair is routed to.
// The dispatch is a closed three-way enum resolved once per walk from
// the dataset name; no dynamic registration exists.
type DatasetKind int

const (
	// DatasetGeneric is the tolerance-banded elementwise comparison.
	DatasetGeneric DatasetKind = iota
	// DatasetLabelOverlap is the area-ratio mask comparison.
	DatasetLabelOverlap
	// DatasetPhaseCongruence is the modulo-2π displacement comparison.
	DatasetPhaseCongruence
)

func (k DatasetKind) String() string {
	switch k {
	case DatasetLabelOverlap:
		return "label-overlap"
	case DatasetPhaseCongruence:
		return "phase-congruence"
	default:
		return "generic"
	}
}

// kindTable builds the name→kind lookup for one run. Everything not in
// the table is DatasetGeneric.
func kindTable(dataDset string) map[string]DatasetKind {
	return map[string]DatasetKind{
		config.LabelDatasetName: DatasetLabelOverlap,
		dataDset:                DatasetPhaseCongruence,
	}
}
