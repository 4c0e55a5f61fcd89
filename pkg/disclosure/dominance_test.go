package disclosure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statglass/ibsrecon/pkg/frame"
)

func contributorFrame(t *testing.T, rows ...[4]any) *frame.Frame {
	t.Helper()

	f, err := frame.New([]string{"REP_CTY", "CP_SECTOR", "BANK_ID"})
	require.NoError(t, err)
	for _, r := range rows {
		require.NoError(t, f.Append(
			[]string{r[0].(string), r[1].(string), r[2].(string)},
			r[3].(float64),
		))
	}
	return f
}

func TestApply_FlagsDominantContributor(t *testing.T) {
	// Two banks in the same market: 90 and 10. The 90% share is
	// identifying, the 10% share is publishable.
	df := contributorFrame(t,
		[4]any{"CA", "B", "BANK_A", 90.0},
		[4]any{"CA", "B", "BANK_B", 10.0},
	)

	out, err := Apply(df, "VALUE", []string{"REP_CTY", "CP_SECTOR"}, "BANK_ID")
	require.NoError(t, err)

	require.Equal(t, 2, out.Len())
	assert.Equal(t, StatusConfidential, out.Cell(0, StatusColumn))
	assert.Equal(t, StatusFree, out.Cell(1, StatusColumn))
	assert.False(t, df.HasColumn(StatusColumn), "input is not mutated")
}

func TestApply_SharesAcrossGroupsAreIndependent(t *testing.T) {
	df := contributorFrame(t,
		[4]any{"CA", "B", "BANK_A", 90.0},
		[4]any{"CA", "B", "BANK_B", 10.0},
		[4]any{"GB", "B", "BANK_C", 50.0},
		[4]any{"GB", "B", "BANK_D", 50.0},
	)

	out, err := Apply(df, "VALUE", []string{"REP_CTY", "CP_SECTOR"}, "BANK_ID")
	require.NoError(t, err)

	assert.Equal(t, StatusConfidential, out.Cell(0, StatusColumn))
	assert.Equal(t, StatusFree, out.Cell(1, StatusColumn))
	assert.Equal(t, StatusFree, out.Cell(2, StatusColumn), "50% share is below the threshold")
	assert.Equal(t, StatusFree, out.Cell(3, StatusColumn))
}

func TestApply_ZeroGroupTotalIsPublishable(t *testing.T) {
	df := contributorFrame(t,
		[4]any{"CA", "B", "BANK_A", 0.0},
		[4]any{"CA", "B", "BANK_B", 0.0},
	)

	out, err := Apply(df, "VALUE", []string{"REP_CTY", "CP_SECTOR"}, "BANK_ID")
	require.NoError(t, err)

	assert.Equal(t, StatusFree, out.Cell(0, StatusColumn))
	assert.Equal(t, StatusFree, out.Cell(1, StatusColumn))
}

func TestApply_ThresholdIsStrict(t *testing.T) {
	// Exactly at the threshold is non-dominant.
	df := contributorFrame(t,
		[4]any{"CA", "B", "BANK_A", 60.0},
		[4]any{"CA", "B", "BANK_B", 40.0},
	)

	out, err := Apply(df, "VALUE", []string{"REP_CTY", "CP_SECTOR"}, "BANK_ID")
	require.NoError(t, err)
	assert.Equal(t, StatusFree, out.Cell(0, StatusColumn))

	// Lowering the threshold below the share flips it.
	out, err = Apply(df, "VALUE", []string{"REP_CTY", "CP_SECTOR"}, "BANK_ID", WithThreshold(0.5))
	require.NoError(t, err)
	assert.Equal(t, StatusConfidential, out.Cell(0, StatusColumn))
}

func TestApply_ColumnValidation(t *testing.T) {
	df := contributorFrame(t, [4]any{"CA", "B", "BANK_A", 1.0})

	_, err := Apply(df, "AMOUNT", []string{"REP_CTY"}, "BANK_ID")
	assert.ErrorContains(t, err, "AMOUNT")

	_, err = Apply(df, "VALUE", []string{"REP_CTY"}, "ENTITY")
	assert.ErrorContains(t, err, "ENTITY")

	_, err = Apply(df, "VALUE", []string{"MARKET"}, "BANK_ID")
	assert.ErrorContains(t, err, "MARKET")
}
