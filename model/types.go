package model

import "fmt"

// ObservationID is a dense, 0-based row index into the observation matrix.
type ObservationID uint32

// DiagnosisCode is an atomic clinical code: a column of the observation matrix.
type DiagnosisCode uint32

// FeatureID identifies an output feature: a row of the indicator matrix.
type FeatureID uint32

// String returns a string representation of the FeatureID.
func (f FeatureID) String() string {
	return fmt.Sprintf("F%d", uint32(f))
}

// FeatureIDs converts raw bitmap values into FeatureIDs, preserving order.
func FeatureIDs(raw []uint32) []FeatureID {
	out := make([]FeatureID, len(raw))
	for i, v := range raw {
		out[i] = FeatureID(v)
	}
	return out
}
