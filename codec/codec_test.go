package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shape struct {
	D int `json:"d"`
	N int `json:"n"`
}

func TestUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    shape
		wantErr bool
	}{
		{"exact", `{"d":4,"n":2}`, shape{D: 4, N: 2}, false},
		{"whitespace", "\n {\"n\":2}\n\n", shape{N: 2}, false},
		{"unknown field", `{"d":4,"x":1}`, shape{}, true},
		{"trailing document", `{"d":4} {"d":5}`, shape{}, true},
		{"wrong type", `{"d":"4"}`, shape{}, true},
		{"truncated", `{"d":4`, shape{}, true},
	}

	for _, c := range []Codec{JSON{}, GoJSON{}} {
		for _, tt := range tests {
			t.Run(c.Name()+"/"+tt.name, func(t *testing.T) {
				var got shape
				err := c.Unmarshal([]byte(tt.data), &got)
				if tt.wantErr {
					assert.Error(t, err)
					return
				}
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			})
		}
	}
}

func TestCodecsInteroperate(t *testing.T) {
	in := shape{D: 4, N: 2}

	data, err := GoJSON{}.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":4,"n":2}`, string(data))

	var out shape
	require.NoError(t, JSON{}.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestIndent(t *testing.T) {
	data, err := Indent(Default, shape{D: 1})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"d\": 1,\n  \"n\": 0\n}\n", string(data))
}
