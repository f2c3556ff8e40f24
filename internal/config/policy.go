package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SensorCenterFrequencyHz is the radar center frequency the default
// wavelength is derived from (Sentinel-1 C-band).
const SensorCenterFrequencyHz = 5.405e9

const speedOfLight = 299_792_458.0

// DefaultWavelength returns the sensor wavelength in meters implied by
// the fixed center frequency (≈0.05547 m).
func DefaultWavelength() float64 {
	return speedOfLight / SensorCenterFrequencyHz
}

// LabelDatasetName is the classification-mask dataset every product
// carries alongside its measurement dataset.
const LabelDatasetName = "connected_component_labels"

// Policy holds the named comparison thresholds. All values are
// overridable by the caller; out-of-domain values are rejected by
// DomainErrors, never clamped.
type Policy struct {
	// PixelFailFraction is the max allowed fraction of out-of-tolerance
	// pixels for the generic numeric check. Domain [0,1].
	PixelFailFraction float64 `mapstructure:"pixel_fail_fraction" yaml:"pixel_fail_fraction"`
	// AbsDiffThreshold is the elementwise absolute difference band for
	// the generic numeric check. Must be >= 0.
	AbsDiffThreshold float64 `mapstructure:"abs_diff_threshold" yaml:"abs_diff_threshold"`
	// LabelOverlapThreshold is the minimum intersection/golden area
	// ratio for classification masks. Domain [0,1].
	LabelOverlapThreshold float64 `mapstructure:"label_overlap_threshold" yaml:"label_overlap_threshold"`
	// NaNFractionThreshold is the max allowed fraction of NaN-affected
	// pixels among the test side's valid pixels. Domain [0,1].
	NaNFractionThreshold float64 `mapstructure:"nan_fraction_threshold" yaml:"nan_fraction_threshold"`
	// PhaseAbsTolerance is the linear displacement tolerance, in
	// meters, converted to a phase tolerance before use. Must be >= 0.
	PhaseAbsTolerance float64 `mapstructure:"phase_abs_tolerance" yaml:"phase_abs_tolerance"`
	// Wavelength is the sensor wavelength in meters. Must be > 0.
	Wavelength float64 `mapstructure:"wavelength" yaml:"wavelength"`
	// DataDatasetName is the measurement dataset routed to the
	// phase-congruence check.
	DataDatasetName string `mapstructure:"data_dataset" yaml:"data_dataset"`
	// ExcludedGroups are group names skipped entirely during the walk.
	ExcludedGroups []string `mapstructure:"exclude_groups" yaml:"exclude_groups"`
	// SoftFailDatasets are free-text/version dataset names whose value
	// differences are logged but never fail the run. They also skip the
	// dtype equality check.
	SoftFailDatasets []string `mapstructure:"soft_fail_datasets" yaml:"soft_fail_datasets"`
}

// DefaultPolicy returns the policy used when the caller overrides nothing.
func DefaultPolicy() Policy {
	return Policy{
		PixelFailFraction:     0.01,
		AbsDiffThreshold:      1e-5,
		LabelOverlapThreshold: 0.9,
		NaNFractionThreshold:  0.01,
		PhaseAbsTolerance:     1e-5,
		Wavelength:            DefaultWavelength(),
		DataDatasetName:       "displacement",
		SoftFailDatasets:      []string{"software_version", "product_version"},
	}
}

// DomainErrors returns one error per threshold that is outside its
// documented domain. An empty slice means the policy is usable.
func (p Policy) DomainErrors() []error {
	var errs []error
	if p.PixelFailFraction < 0 || p.PixelFailFraction > 1 {
		errs = append(errs, fmt.Errorf("pixel_fail_fraction %v outside [0,1]", p.PixelFailFraction))
	}
	if p.AbsDiffThreshold < 0 {
		errs = append(errs, fmt.Errorf("abs_diff_threshold %v must be >= 0", p.AbsDiffThreshold))
	}
	if p.LabelOverlapThreshold < 0 || p.LabelOverlapThreshold > 1 {
		errs = append(errs, fmt.Errorf("label_overlap_threshold %v outside [0,1]", p.LabelOverlapThreshold))
	}
	if p.NaNFractionThreshold < 0 || p.NaNFractionThreshold > 1 {
		errs = append(errs, fmt.Errorf("nan_fraction_threshold %v outside [0,1]", p.NaNFractionThreshold))
	}
	if p.PhaseAbsTolerance < 0 {
		errs = append(errs, fmt.Errorf("phase_abs_tolerance %v must be >= 0", p.PhaseAbsTolerance))
	}
	if p.Wavelength <= 0 {
		errs = append(errs, fmt.Errorf("wavelength %v must be > 0", p.Wavelength))
	}
	return errs
}

// IsSoftFail reports whether a dataset name is on the log-only list.
func (p Policy) IsSoftFail(name string) bool {
	for _, n := range p.SoftFailDatasets {
		if n == name {
			return true
		}
	}
	return false
}

// IsExcludedGroup reports whether a group name is skipped entirely.
func (p Policy) IsExcludedGroup(name string) bool {
	for _, n := range p.ExcludedGroups {
		if n == name {
			return true
		}
	}
	return false
}

// LoadPolicyFile reads a YAML policy override file on top of the
// defaults. Absent keys keep their default values.
func LoadPolicyFile(path string) (Policy, error) {
	p := DefaultPolicy()
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("reading policy file: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parsing policy file %s: %w", path, err)
	}
	return p, nil
}
