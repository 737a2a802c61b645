package model

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeatureIDs(t *testing.T) {
	assert.Equal(t, []FeatureID{3, 1, 7}, FeatureIDs([]uint32{3, 1, 7}))
	assert.Empty(t, FeatureIDs(nil))
}

func TestFeatureID_String(t *testing.T) {
	assert.Equal(t, "F12", FeatureID(12).String())
	assert.Equal(t, "[F0 F2]", fmt.Sprint([]FeatureID{0, 2}))
}
