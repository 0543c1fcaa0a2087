package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueFromAnyDispatch(t *testing.T) {
	assert.Equal(t, KindBool, ValueFromAny(true).Kind)
	assert.Equal(t, KindInt, ValueFromAny(int32(-5)).Kind)
	assert.Equal(t, KindUint, ValueFromAny(uint16(5)).Kind)
	assert.Equal(t, KindFloat, ValueFromAny(float32(1.5)).Kind)
	assert.Equal(t, KindString, ValueFromAny("text").Kind)
	assert.Equal(t, KindTime, ValueFromAny(time.Now()).Kind)
	assert.Equal(t, KindBytes, ValueFromAny([]byte{1, 2}).Kind)
	assert.Equal(t, KindUnknown, ValueFromAny(struct{}{}).Kind, "незнакомый тип не должен паниковать")
}

func TestReadErrorValue(t *testing.T) {
	v := ReadErrorValue(errors.New("BadNodeIdUnknown"))
	assert.Equal(t, KindString, v.Kind)
	assert.Contains(t, v.String(), "read error")
	assert.Contains(t, v.String(), "BadNodeIdUnknown")
}

func TestValueMarshalJSON(t *testing.T) {
	data, err := json.Marshal(ValueFromAny(int64(42)))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, string(KindInt), decoded["type"])
	assert.Equal(t, float64(42), decoded["value"])
}
