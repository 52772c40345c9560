package plans

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlanType(t *testing.T) {
	assert.Equal(t, TypeBasic, PlanType(nil))
	assert.Equal(t, TypePremium, PlanType(&Plan{Type: " Premium "}))
	assert.Equal(t, TypeBasic, PlanType(&Plan{Type: "gold"}))
}

func TestDefaultContentNeverEmpty(t *testing.T) {
	for _, typ := range []string{TypeBasic, TypeIntermediate, TypePremium, ""} {
		c := DefaultContent(&Plan{Type: typ})
		assert.NotEmpty(t, c.Title)
		assert.NotEmpty(t, c.Description)
		assert.NotNil(t, c.Features)
		assert.Empty(t, c.Features)
	}
}

func TestContentFromNilFeatures(t *testing.T) {
	c := ContentFrom(&RegionalPlanContent{Title: "t", Description: "d"})
	assert.NotNil(t, c.Features)
	assert.Len(t, c.Features, 0)
}
