package compare

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_EmptyPasses(t *testing.T) {
	s := NewSession()
	assert.True(t, s.Passed())
	assert.Zero(t, s.HardCount())
	assert.Empty(t, s.Violations())
	assert.Zero(t, s.DatasetsCompared())
}

func TestSession_HardViolationFlipsVerdict(t *testing.T) {
	s := NewSession()
	s.Report("/d", KindTolerance, "off by %g", 0.5)

	assert.False(t, s.Passed())
	assert.Equal(t, 1, s.HardCount())

	violations := s.Violations()
	require.Len(t, violations, 1)
	assert.Equal(t, "/d", violations[0].Path)
	assert.Equal(t, "off by 0.5", violations[0].Message)
	assert.True(t, violations[0].Hard())
}

func TestSession_SoftViolationKeepsVerdict(t *testing.T) {
	s := NewSession()
	s.ReportSoft("/identification/software_version", "value differs")

	assert.True(t, s.Passed())
	assert.Zero(t, s.HardCount())
	require.Len(t, s.Violations(), 1)
	assert.False(t, s.Violations()[0].Hard())
}

func TestSession_AccumulatesAcrossKinds(t *testing.T) {
	s := NewSession()
	s.Report("/a", KindStructural, "missing")
	s.Report("/b", KindParameterDomain, "bad threshold")
	s.ReportSoft("/c", "log only")
	s.DatasetDone()
	s.DatasetDone()

	assert.Equal(t, 2, s.HardCount())
	assert.Len(t, s.Violations(), 3)
	assert.Equal(t, 2, s.DatasetsCompared())
}

func TestSession_ViolationsReturnsCopy(t *testing.T) {
	s := NewSession()
	s.Report("/a", KindTolerance, "x")

	got := s.Violations()
	got[0].Message = "mutated"
	assert.Equal(t, "x", s.Violations()[0].Message)
}

func TestSession_ConcurrentReports(t *testing.T) {
	s := NewSession()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Report("/d", KindTolerance, "concurrent")
			s.DatasetDone()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, s.HardCount())
	assert.Equal(t, 50, s.DatasetsCompared())
}

func TestKindTable(t *testing.T) {
	kinds := kindTable("displacement")
	assert.Equal(t, DatasetLabelOverlap, kinds["connected_component_labels"])
	assert.Equal(t, DatasetPhaseCongruence, kinds["displacement"])
	_, ok := kinds["temporal_coherence"]
	assert.False(t, ok, "unknown names fall back to generic at the call site")
}

func TestDatasetKindString(t *testing.T) {
	assert.Equal(t, "generic", DatasetGeneric.String())
	assert.Equal(t, "label-overlap", DatasetLabelOverlap.String())
	assert.Equal(t, "phase-congruence", DatasetPhaseCongruence.String())
}
