// Package model defines the identifier types shared by featmap packages.
//
// # Identity Types
//
//   - ObservationID: 0-based row of the observation matrix X (uint32)
//   - DiagnosisCode: column of X and of the indicator matrix I (uint32)
//   - FeatureID: row of I, and column of the output matrix Y (uint32)
//
// All three are matrix indices and therefore non-negative. Their natural
// ordering is significant: the resolver breaks ties by ascending FeatureID.
package model
