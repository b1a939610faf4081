package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadValidatorLenient(t *testing.T) {
	pv, err := NewPayloadValidator(false, nil)
	require.NoError(t, err)

	// Missing required fields is only logged in lenient mode.
	assert.NoError(t, pv.Validate([]byte(`{}`)))
	assert.NoError(t, pv.Validate([]byte(`{"file_size": "not a number"}`)))
	// Unparseable bodies are classified by Normalize, not here.
	assert.NoError(t, pv.Validate([]byte(`garbage`)))
}

func TestPayloadValidatorStrict(t *testing.T) {
	pv, err := NewPayloadValidator(true, nil)
	require.NoError(t, err)

	assert.Error(t, pv.Validate([]byte(`{}`)))

	valid := []byte(`{"raw_urdu_text": "متن", "fir_structured_data": null}`)
	assert.NoError(t, pv.Validate(valid))

	withObject := []byte(`{"raw_urdu_text": "متن", "fir_structured_data": {"fir_number": "9"}}`)
	assert.NoError(t, pv.Validate(withObject))
}
