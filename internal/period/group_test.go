package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	name string
	at   time.Time
}

func stamp(i item) time.Time { return i.at }

func day(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func sample() []item {
	return []item{
		{"a", day(2024, 3, 2, 12)},
		{"b", day(2024, 3, 2, 1)},
		{"c", day(2024, 2, 28, 9)},
		{"d", day(2023, 12, 31, 23)},
		{"e", day(2024, 3, 1, 7)},
	}
}

func names(items []item) []string {
	out := make([]string, 0, len(items))
	for _, i := range items {
		out = append(out, i.name)
	}
	return out
}

func TestGroupByPreservesOrder(t *testing.T) {
	groups, err := GroupBy(sample(), stamp, Month)
	require.NoError(t, err)
	require.Len(t, groups, 3)

	assert.Equal(t, "2024-03", groups[0].Key)
	assert.Equal(t, []string{"a", "b", "e"}, names(groups[0].Items))
	assert.Equal(t, "2024-02", groups[1].Key)
	assert.Equal(t, []string{"c"}, names(groups[1].Items))
	assert.Equal(t, "2023-12", groups[2].Key)
}

func TestGroupByDayAndYear(t *testing.T) {
	days, err := GroupBy(sample(), stamp, Day)
	require.NoError(t, err)
	assert.Len(t, days, 4)
	assert.Equal(t, []string{"a", "b"}, names(days[0].Items))

	years, err := GroupByName(sample(), stamp, "year")
	require.NoError(t, err)
	require.Len(t, years, 2)
	assert.Equal(t, "2024", years[0].Key)
	assert.Equal(t, "2023", years[1].Key)
}

func TestGroupByUnknownUnit(t *testing.T) {
	calls := 0
	counting := func(i item) time.Time {
		calls++
		return i.at
	}

	_, err := GroupByName(sample(), counting, "century")
	require.ErrorIs(t, err, ErrInvalidPeriod)
	_, err = GroupBy(sample(), counting, Unit(-1))
	require.ErrorIs(t, err, ErrInvalidPeriod)
	assert.Zero(t, calls, "no item may be inspected")
}

func TestGroupByEmpty(t *testing.T) {
	groups, err := GroupBy[item](nil, stamp, Day)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestBuildTree(t *testing.T) {
	root := BuildTree(sample(), stamp)
	require.False(t, root.IsLeaf())
	assert.Equal(t, 5, root.Leaves())
	require.Len(t, root.Children, 2)

	y2024 := root.Children[0]
	assert.Equal(t, "2024", y2024.Label)
	assert.Equal(t, Year, y2024.Level)
	require.Len(t, y2024.Children, 2)

	march := y2024.Children[0]
	assert.Equal(t, "2024-03", march.Label)
	require.Len(t, march.Children, 2)
	assert.Equal(t, "2024-03-02", march.Children[0].Label)

	leaves := march.Children[0].Children
	require.Len(t, leaves, 2)
	assert.True(t, leaves[0].IsLeaf())
	assert.Equal(t, "a", leaves[0].Item.name)
}

func TestWalkDepths(t *testing.T) {
	root := BuildTree(sample(), stamp)

	var leafDepths []int
	branches := 0
	Walk(root, func(depth int, n *Node[item]) {
		if n.IsLeaf() {
			leafDepths = append(leafDepths, depth)
			return
		}
		branches++
	})

	assert.Equal(t, []int{4, 4, 4, 4, 4}, leafDepths)
	// root + 2 years + 3 months + 4 days
	assert.Equal(t, 10, branches)
}
