package recon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog(id string, rules ...Rule) Catalog {
	return Catalog{
		ID:    id,
		Name:  "Test catalog " + id,
		Kind:  KindInternal,
		Rules: func() []Rule { return rules },
	}
}

func TestRegisterCatalog_LookupAndOrder(t *testing.T) {
	RegisterCatalog(testCatalog("test_reg_a", totalVsSectorsRule(OpEq, 1.0)))
	RegisterCatalog(testCatalog("test_reg_b"))

	got, ok := LookupCatalog("test_reg_a")
	require.True(t, ok)
	assert.Equal(t, "test_reg_a", got.ID)

	_, ok = LookupCatalog("test_reg_missing")
	assert.False(t, ok)

	var seen []string
	for _, c := range Catalogs() {
		if c.ID == "test_reg_a" || c.ID == "test_reg_b" {
			seen = append(seen, c.ID)
		}
	}
	assert.Equal(t, []string{"test_reg_a", "test_reg_b"}, seen, "registration order preserved")
}

func TestRegisterCatalog_DuplicatePanics(t *testing.T) {
	RegisterCatalog(testCatalog("test_reg_dup"))
	assert.Panics(t, func() {
		RegisterCatalog(testCatalog("test_reg_dup"))
	})
}

func TestRegisterCatalog_InvalidPanics(t *testing.T) {
	assert.Panics(t, func() {
		RegisterCatalog(Catalog{ID: "", Rules: func() []Rule { return nil }})
	})
	assert.Panics(t, func() {
		RegisterCatalog(Catalog{ID: "test_reg_no_rules"})
	})
}

func TestSelectRules(t *testing.T) {
	r1 := totalVsSectorsRule(OpEq, 2.0)
	r1.ID = "SEL01"
	r2 := totalVsSectorsRule(OpLte, 4.0)
	r2.ID = "SEL02"
	RegisterCatalog(testCatalog("test_sel", r1, r2))

	t.Run("all rules", func(t *testing.T) {
		rules, err := SelectRules([]string{"test_sel"}, nil, 0)
		require.NoError(t, err)
		require.Len(t, rules, 2)
		assert.Equal(t, 2.0, rules[0].Tolerance, "scale <= 0 means unscaled")
	})

	t.Run("disable list", func(t *testing.T) {
		rules, err := SelectRules([]string{"test_sel"}, []string{"SEL01", "UNKNOWN"}, 1)
		require.NoError(t, err)
		require.Len(t, rules, 1)
		assert.Equal(t, "SEL02", rules[0].ID)
	})

	t.Run("tolerance scaling", func(t *testing.T) {
		rules, err := SelectRules([]string{"test_sel"}, nil, 2.5)
		require.NoError(t, err)
		assert.Equal(t, 5.0, rules[0].Tolerance)
		assert.Equal(t, 10.0, rules[1].Tolerance)
	})

	t.Run("unknown catalog", func(t *testing.T) {
		_, err := SelectRules([]string{"nope"}, nil, 1)
		assert.ErrorIs(t, err, ErrRuleConfig)
	})
}
