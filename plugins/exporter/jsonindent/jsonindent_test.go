package jsonindent

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"annotatorx/pkg/contract"
)

func TestEncodeIndented(t *testing.T) {
	set := contract.AnnotationSet{Version: 1, Items: []contract.AnnotationItem{{
		ID:      contract.IntID(1),
		Payload: map[string]contract.Value{"text": contract.String("<b> & 世界"), "label": contract.String("NEUTRAL")},
		Meta:    map[string]contract.Value{"source": contract.String(contract.DefaultSource), "seed": contract.Int(42)},
	}}}
	var buf bytes.Buffer
	require.NoError(t, New(nil).Encode(context.Background(), set, &buf))

	want := `{
  "version": 1,
  "items": [
    {
      "id": 1,
      "payload": {
        "label": "NEUTRAL",
        "text": "<b> & 世界"
      },
      "meta": {
        "seed": 42,
        "source": "annotatorx.simple_labeler"
      }
    }
  ]
}
`
	assert.Equal(t, want, buf.String())

	back, err := contract.Validate(buf.Bytes())
	require.NoError(t, err)
	assert.True(t, set.Equal(back))
}

func TestEncodeEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(&Options{Indent: "\t"}).Encode(context.Background(), contract.AnnotationSet{Version: 1}, &buf))
	assert.Equal(t, "{\n\t\"version\": 1,\n\t\"items\": []\n}\n", buf.String())
	assert.Equal(t, ".json", New(nil).Ext())
}
