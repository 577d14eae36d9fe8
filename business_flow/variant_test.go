package businessflow

import (
	"fmt"
	"testing"

	"github.com/amirphl/Susanoo/models"
	"github.com/amirphl/Susanoo/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariantToken(t *testing.T) {
	t.Run("EmailIsLowercased", func(t *testing.T) {
		assert.Equal(t, "jane@example.com", VariantToken("Jane@Example.COM", nil, nil, ""))
	})

	t.Run("EmailWinsOverIdentifiers", func(t *testing.T) {
		cid := uint(7)
		oid := uint(9)
		assert.Equal(t, "jane@example.com", VariantToken("jane@example.com", &cid, &oid, "Jane"))
	})

	t.Run("CompositeWithoutEmail", func(t *testing.T) {
		cid := uint(7)
		oid := uint(9)
		assert.Equal(t, "contact:7|org:9|Jane Doe", VariantToken("", &cid, &oid, "Jane Doe"))
	})

	t.Run("CompositeWithNilIdentifiers", func(t *testing.T) {
		assert.Equal(t, "contact:0|org:0|Jane Doe", VariantToken("", nil, nil, "Jane Doe"))
	})
}

func TestAssignVariant(t *testing.T) {
	t.Run("NilWhenNotABTest", func(t *testing.T) {
		assert.Nil(t, AssignVariant(false, 50, "jane@example.com"))
	})

	t.Run("Deterministic", func(t *testing.T) {
		first := AssignVariant(true, 50, "jane@example.com")
		require.NotNil(t, first)
		for i := 0; i < 100; i++ {
			again := AssignVariant(true, 50, "jane@example.com")
			require.NotNil(t, again)
			assert.Equal(t, *first, *again)
		}
	})

	t.Run("SplitZeroIsAllB", func(t *testing.T) {
		for i := 0; i < 200; i++ {
			v := AssignVariant(true, 0, fmt.Sprintf("user%d@example.com", i))
			require.NotNil(t, v)
			assert.Equal(t, models.VariantB, *v)
		}
	})

	t.Run("SplitHundredIsAllA", func(t *testing.T) {
		for i := 0; i < 200; i++ {
			v := AssignVariant(true, 100, fmt.Sprintf("user%d@example.com", i))
			require.NotNil(t, v)
			assert.Equal(t, models.VariantA, *v)
		}
	})

	t.Run("SplitRoughlyBalanced", func(t *testing.T) {
		var a, b int
		for i := 0; i < 2000; i++ {
			v := AssignVariant(true, 50, fmt.Sprintf("user%d@example.com", i))
			require.NotNil(t, v)
			if *v == models.VariantA {
				a++
			} else {
				b++
			}
		}
		// The hash spreads evenly enough that a 50/50 split should not be
		// wildly lopsided over 2000 tokens
		assert.Greater(t, a, 700)
		assert.Greater(t, b, 700)
	})

	t.Run("CaseInsensitiveViaToken", func(t *testing.T) {
		upper := AssignVariant(true, 50, VariantToken("JANE@EXAMPLE.COM", nil, nil, ""))
		lower := AssignVariant(true, 50, VariantToken("jane@example.com", nil, nil, ""))
		require.NotNil(t, upper)
		require.NotNil(t, lower)
		assert.Equal(t, *lower, *upper)
	})
}

func TestStepAppliesTo(t *testing.T) {
	variantA := utils.ToPtr(models.VariantA)
	variantB := utils.ToPtr(models.VariantB)

	t.Run("NoVariantAppliesToEveryone", func(t *testing.T) {
		step := &models.CampaignStep{}
		assert.True(t, step.AppliesTo(true, variantA))
		assert.True(t, step.AppliesTo(true, variantB))
		assert.True(t, step.AppliesTo(false, nil))
	})

	t.Run("VariantStepOnlyMatchesSameArm", func(t *testing.T) {
		step := &models.CampaignStep{Variant: variantB}
		assert.True(t, step.AppliesTo(true, variantB))
		assert.False(t, step.AppliesTo(true, variantA))
		assert.False(t, step.AppliesTo(true, nil))
	})

	t.Run("VariantIgnoredOutsideABTest", func(t *testing.T) {
		step := &models.CampaignStep{Variant: variantB}
		assert.True(t, step.AppliesTo(false, nil))
	})
}
