package iojson

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteWith(t *testing.T) {
	var out, errOut bytes.Buffer

	require.NoError(t, WriteWith(&out, &errOut, map[string]int{"needs_action": 2}))

	assert.JSONEq(t, `{"needs_action": 2}`, out.String())
	assert.Empty(t, errOut.String())
}

func TestWriteWith_MarshalFailure(t *testing.T) {
	var out, errOut bytes.Buffer

	require.NoError(t, WriteWith(&out, &errOut, map[string]any{"ch": make(chan int)}))

	assert.Empty(t, out.String())
	var e map[string]any
	require.NoError(t, json.Unmarshal(errOut.Bytes(), &e))
	assert.Contains(t, e["message"], "error marshaling")
}
