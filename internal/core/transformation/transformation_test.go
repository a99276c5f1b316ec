package transformation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// State Tests
// =============================================================================

func TestState_Key_IgnoresInsertionOrder(t *testing.T) {
	a := State{"mode": "raw", "lang": "en"}
	b := State{"lang": "en", "mode": "raw"}

	assert.Equal(t, a.Key(), b.Key())
	assert.True(t, a.Equal(b))
}

func TestState_Key_NumbersCompareByValue(t *testing.T) {
	a := State{"count": 1}
	b := State{"count": 1.0}

	assert.Equal(t, a.Key(), b.Key())
}

func TestState_Key_NestedValues(t *testing.T) {
	a := State{"opts": map[string]any{"x": 1, "y": []any{"a", "b"}}}
	b := State{"opts": map[string]any{"y": []any{"a", "b"}, "x": 1}}
	c := State{"opts": map[string]any{"y": []any{"b", "a"}, "x": 1}}

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
}

func TestState_Key_Nil(t *testing.T) {
	var s State
	assert.Equal(t, "{}", s.Key())
	assert.True(t, s.Equal(State{}))
}

func TestState_With_DoesNotMutate(t *testing.T) {
	orig := State{"mode": "raw"}
	next := orig.With("mode", "processed")

	assert.Equal(t, "raw", orig["mode"])
	assert.Equal(t, "processed", next["mode"])
}

func TestState_Keys_Sorted(t *testing.T) {
	s := State{"b": 1, "a": 2, "c": 3}
	assert.Equal(t, []string{"a", "b", "c"}, s.Keys())
}

func TestState_Satisfies(t *testing.T) {
	tests := []struct {
		name    string
		current State
		target  State
		want    bool
	}{
		{"exact match", State{"mode": "raw"}, State{"mode": "raw"}, true},
		{"extra keys ignored", State{"mode": "raw", "lang": "en"}, State{"mode": "raw"}, true},
		{"value differs", State{"mode": "raw"}, State{"mode": "processed"}, false},
		{"key missing", State{"lang": "en"}, State{"mode": "raw"}, false},
		{"empty target", State{"mode": "raw"}, State{}, true},
		{"numeric equality", State{"n": 2}, State{"n": 2.0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.current.Satisfies(tt.target))
		})
	}
}

// =============================================================================
// Parse Tests
// =============================================================================

func TestParse_JSON(t *testing.T) {
	doc := `{"input": {"mode": "raw", "count": 3}, "output": {"mode": "processed"}}`

	tr, err := Parse([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, "raw", tr.Input["mode"])
	assert.Equal(t, 3, tr.Input["count"])
	assert.Equal(t, "processed", tr.Output["mode"])
}

func TestParse_YAML(t *testing.T) {
	doc := `
input:
  mode: raw
  region: eu-central-1
output:
  mode: processed
`
	tr, err := Parse([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, "eu-central-1", tr.Region())
	assert.Equal(t, State{"mode": "processed"}, tr.Output)
}

func TestParse_Empty(t *testing.T) {
	_, err := Parse([]byte("  \n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestParse_MissingOutput(t *testing.T) {
	_, err := Parse([]byte(`{"input": {"mode": "raw"}}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingOutput)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "output", parseErr.Field)
}

func TestParse_MissingInput(t *testing.T) {
	_, err := Parse([]byte(`{"output": {"mode": "raw"}}`))
	assert.ErrorIs(t, err, ErrMissingInput)
}

func TestParse_InvalidDocument(t *testing.T) {
	_, err := Parse([]byte(`{"input": "raw", "output": {}}`))
	assert.ErrorIs(t, err, ErrInvalidDocument)
}

func TestTransformation_Region_Missing(t *testing.T) {
	tr := New(State{"mode": "raw"}, State{})
	assert.Equal(t, "", tr.Region())
}

// =============================================================================
// Engine Input Tests
// =============================================================================

func TestTransformation_EngineInput(t *testing.T) {
	tr, err := Parse([]byte(`{"input": {"file": "a.mp4", "bucket": "media"}, "output": {"language": "de"}, "debug": true}`))
	require.NoError(t, err)

	got := tr.EngineInput()
	assert.Equal(t, map[string]any{
		"inputFile":      "a.mp4",
		"inputBucket":    "media",
		"outputLanguage": "de",
		"debug":          true,
	}, got)
}

func TestFlattenDocument_OneLevelOnly(t *testing.T) {
	doc := map[string]any{
		"input": map[string]any{
			"opts": map[string]any{"deep": 1},
		},
	}

	got := FlattenDocument(doc)
	assert.Equal(t, map[string]any{"deep": 1}, got["inputOpts"])
}

func TestPortName(t *testing.T) {
	assert.Equal(t, "inputFile", PortName("input", "file"))
	assert.Equal(t, "outputMode", PortName("output", "mode"))
	assert.Equal(t, "inputÄrger", PortName("input", "ärger"))
	assert.Equal(t, "input", PortName("input", ""))
}
