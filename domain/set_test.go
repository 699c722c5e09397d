package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIDSet_Add_And_Remove_Report_Changes(t *testing.T) {
	req := require.New(t)
	set := NewIDSet()

	req.True(set.Add("a"))
	req.False(set.Add("a"))
	req.True(set.Has("a"))

	req.True(set.Remove("a"))
	req.False(set.Remove("a"))
	req.False(set.Has("a"))
}

func TestIDSet_Values_Are_Sorted(t *testing.T) {
	req := require.New(t)
	set := NewIDSet("c", "a", "b")
	req.Equal([]string{"a", "b", "c"}, set.Values())
}

func TestIDSet_Clone_Is_Independent(t *testing.T) {
	req := require.New(t)
	set := NewIDSet("a", "b")
	clone := set.Clone()

	clone.Add("c")
	req.False(set.Has("c"))
	req.True(clone.Has("c"))
}

func TestIDSet_JSON_Roundtrip_As_Array(t *testing.T) {
	req := require.New(t)
	set := NewIDSet("b", "a")

	data, err := json.Marshal(set)
	req.NoError(err)
	req.JSONEq(`["a","b"]`, string(data))

	var decoded IDSet
	req.NoError(json.Unmarshal(data, &decoded))
	req.Equal(set, decoded)
}
