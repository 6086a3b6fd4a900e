package typeutils

import (
	"math"
	"testing"

	"github.com/datazip-inc/tap-hubspot/types"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlattenRecord(t *testing.T) {
	record := types.Record{
		"id": 1,
		"counters": map[string]any{
			"open": 3,
			"nested": map[string]any{
				"deep": true,
			},
		},
		"statuses": []any{map[string]any{"id": 7}},
	}

	testCases := []struct {
		name     string
		depth    int
		expected types.Record
	}{
		{
			name:  "depth zero serializes objects",
			depth: 0,
			expected: types.Record{
				"id":       1,
				"counters": `{"nested":{"deep":true},"open":3}`,
				"statuses": `[{"id":7}]`,
			},
		},
		{
			name:  "depth one lifts first level",
			depth: 1,
			expected: types.Record{
				"id":               1,
				"counters__open":   3,
				"counters__nested": `{"deep":true}`,
				"statuses":         `[{"id":7}]`,
			},
		},
		{
			name:  "depth two lifts everything",
			depth: 2,
			expected: types.Record{
				"id":                     1,
				"counters__open":         3,
				"counters__nested__deep": true,
				"statuses":               `[{"id":7}]`,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			flattened, err := NewFlattener(tc.depth).Flatten(record)
			require.NoError(t, err)
			if diff := cmp.Diff(tc.expected, flattened); diff != "" {
				t.Errorf("flattened record mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFlattenSchema(t *testing.T) {
	schema := types.PropertiesList(
		types.NewProperty("id", types.IntegerType(), "").Required(),
		types.NewProperty("counters", types.ObjectType(
			types.NewProperty("open", types.IntegerType(), "opens").Required(),
		), ""),
		types.NewProperty("statuses", types.ArrayType(types.IntegerType()), ""),
	)

	flattened := NewFlattener(1).FlattenSchema(schema)

	assert.ElementsMatch(t, []string{"id", "counters__open", "statuses"}, flattened.PropertyNames())
	assert.Equal(t, []types.DataType{types.Int64}, flattened.Properties["id"].Type)
	// parent object is nullable so lifted children become nullable
	assert.Equal(t, []types.DataType{types.Int64, types.Null}, flattened.Properties["counters__open"].Type)
	assert.Equal(t, []types.DataType{types.String, types.Null}, flattened.Properties["statuses"].Type)
	assert.Equal(t, []string{"id"}, flattened.Required)
}

func TestReformatInt64(t *testing.T) {
	value, err := ReformatInt64(" -1 ")
	require.NoError(t, err)
	assert.Equal(t, int64(-1), value)

	value, err = ReformatInt64(float64(1700000000000))
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000000), value)

	_, err = ReformatInt64(1.5)
	assert.Error(t, err)
	_, err = ReformatInt64("1.5")
	assert.Error(t, err)
	_, err = ReformatInt64(true)
	assert.Error(t, err)

	for _, overflow := range []float64{1e19, -1e19, math.Pow(2, 63)} {
		_, err = ReformatInt64(overflow)
		assert.ErrorContains(t, err, "overflows int64", "%v", overflow)
	}
	value, err = ReformatInt64(float64(math.MinInt64))
	require.NoError(t, err)
	assert.Equal(t, int64(math.MinInt64), value)
}

func TestMaximumOnDataType(t *testing.T) {
	maximum, err := MaximumOnDataType[any](types.Int64, float64(10), int64(20))
	require.NoError(t, err)
	assert.Equal(t, int64(20), maximum)

	maximum, err = MaximumOnDataType[any](types.Int64, "30", int64(20))
	require.NoError(t, err)
	assert.Equal(t, "30", maximum)

	_, err = MaximumOnDataType[any](types.Bool, true, false)
	assert.Error(t, err)
}
