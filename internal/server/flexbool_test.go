package server

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexBool(t *testing.T) {
	tests := map[string]bool{
		`true`:    true,
		`false`:   false,
		`null`:    false,
		`"true"`:  true,
		`"1"`:     true,
		`"no"`:    true,
		`"false"`: false,
		`"0"`:     false,
		`""`:      false,
		`1`:       true,
		`-2.5`:    true,
		`0`:       false,
		`0.0`:     false,
		`[]`:      true,
		`{}`:      true,
	}

	for raw, want := range tests {
		t.Run(raw, func(t *testing.T) {
			var body struct {
				V flexBool `json:"v"`
			}
			require.NoError(t, json.Unmarshal([]byte(`{"v":`+raw+`}`), &body))
			assert.Equal(t, want, bool(body.V))
		})
	}
}

func TestFlexBool_Absent(t *testing.T) {
	var body struct {
		V flexBool `json:"v"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{}`), &body))
	assert.False(t, bool(body.V))
}
