// Package sidecar compares the auxiliary side collection that travels
// next to a primary product: a variable-cardinality set of compressed
// reference-epoch files in a fixed-name sibling directory.
package sidecar

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zjrosen/goldcheck/internal/compare"
	"github.com/zjrosen/goldcheck/internal/log"
)

// DirName is the fixed name of the side-collection directory next to
// the primary artifact.
const DirName = "compressed_slcs"

// Membership predicate for side-collection files.
const (
	memberSubstring = "compressed"
	memberExt       = ".h5"
)

// SideDir returns the side-collection directory for a product path.
func SideDir(productPath string) string {
	return filepath.Join(filepath.Dir(productPath), DirName)
}

// Compare checks set equality of side-collection member names. A
// golden side without the directory predates the feature and passes;
// a test side missing it when golden has it is a hard failure.
func Compare(s *compare.Session, goldenProduct, testProduct string) error {
	goldenDir := SideDir(goldenProduct)
	testDir := SideDir(testProduct)

	goldenSet, err := members(goldenDir)
	if os.IsNotExist(err) {
		log.Info(log.CatSidecar, "golden product has no side collection, skipping", "dir", goldenDir)
		return nil
	} else if err != nil {
		return fmt.Errorf("listing golden side collection: %w", err)
	}

	testSet, err := members(testDir)
	if os.IsNotExist(err) {
		s.Report(DirName, compare.KindStructural,
			"golden product has a side collection (%d members) but test product has none", len(goldenSet))
		return nil
	} else if err != nil {
		return fmt.Errorf("listing test side collection: %w", err)
	}

	missing := subtract(goldenSet, testSet)
	extra := subtract(testSet, goldenSet)
	log.Info(log.CatSidecar, "side collections compared",
		"golden_members", len(goldenSet),
		"test_members", len(testSet),
		"missing_from_test", len(missing),
		"only_in_test", len(extra))

	if len(missing) > 0 || len(extra) > 0 {
		s.Report(DirName, compare.KindStructural,
			"side collection members differ: missing from test [%s], only in test [%s]",
			strings.Join(missing, ", "), strings.Join(extra, ", "))
	}
	return nil
}

// members lists side-collection file names matching the membership
// predicate, sorted.
func members(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.Contains(name, memberSubstring) && filepath.Ext(name) == memberExt {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out, nil
}

func subtract(a, b []string) []string {
	set := make(map[string]struct{}, len(b))
	for _, n := range b {
		set[n] = struct{}{}
	}
	var out []string
	for _, n := range a {
		if _, ok := set[n]; !ok {
			out = append(out, n)
		}
	}
	return out
}
