package sidecar

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/goldcheck/internal/compare"
)

// writeProduct creates dir/product.h5 plus a side collection holding
// the given member files, returning the product path.
func writeProduct(t *testing.T, members []string) string {
	t.Helper()
	dir := t.TempDir()
	productPath := filepath.Join(dir, "product.h5")
	require.NoError(t, os.WriteFile(productPath, []byte("x"), 0o600))
	if members != nil {
		sideDir := filepath.Join(dir, DirName)
		require.NoError(t, os.Mkdir(sideDir, 0o700))
		for _, name := range members {
			require.NoError(t, os.WriteFile(filepath.Join(sideDir, name), []byte("x"), 0o600))
		}
	}
	return productPath
}

func TestSideDir(t *testing.T) {
	assert.Equal(t, filepath.Join("/out", DirName), SideDir("/out/product.h5"))
}

func TestCompare_EqualSets(t *testing.T) {
	s := compare.NewSession()
	golden := writeProduct(t, []string{"compressed_a.h5", "compressed_b.h5"})
	test := writeProduct(t, []string{"compressed_a.h5", "compressed_b.h5"})

	require.NoError(t, Compare(s, golden, test))
	assert.True(t, s.Passed())
}

func TestCompare_SymmetricDifference(t *testing.T) {
	s := compare.NewSession()
	golden := writeProduct(t, []string{"compressed_a.h5", "compressed_b.h5"})
	test := writeProduct(t, []string{"compressed_a.h5", "compressed_c.h5"})

	require.NoError(t, Compare(s, golden, test))

	violations := s.Violations()
	require.Len(t, violations, 1)
	assert.Equal(t, compare.KindStructural, violations[0].Kind)
	assert.Contains(t, violations[0].Message, "compressed_b.h5")
	assert.Contains(t, violations[0].Message, "compressed_c.h5")
}

func TestCompare_GoldenWithoutSideCollectionPasses(t *testing.T) {
	s := compare.NewSession()
	golden := writeProduct(t, nil)
	test := writeProduct(t, []string{"compressed_a.h5"})

	require.NoError(t, Compare(s, golden, test))
	assert.True(t, s.Passed(), "golden products predating side collections pass")
}

func TestCompare_TestMissingSideCollectionFails(t *testing.T) {
	s := compare.NewSession()
	golden := writeProduct(t, []string{"compressed_a.h5"})
	test := writeProduct(t, nil)

	require.NoError(t, Compare(s, golden, test))

	violations := s.Violations()
	require.Len(t, violations, 1)
	assert.Equal(t, compare.KindStructural, violations[0].Kind)
}

// TestCompare_MembershipPredicate: only files containing "compressed"
// with the .h5 extension count; everything else in the directory is
// invisible to the comparison.
func TestCompare_MembershipPredicate(t *testing.T) {
	s := compare.NewSession()
	golden := writeProduct(t, []string{"compressed_a.h5"})
	test := writeProduct(t, []string{"compressed_a.h5", "compressed_a.h5.tmp", "readme.txt", "other.h5"})

	require.NoError(t, Compare(s, golden, test))
	assert.True(t, s.Passed())
}

func TestCompare_EmptyDirectoriesMatch(t *testing.T) {
	s := compare.NewSession()
	golden := writeProduct(t, []string{})
	test := writeProduct(t, []string{})

	require.NoError(t, Compare(s, golden, test))
	assert.True(t, s.Passed())
}
