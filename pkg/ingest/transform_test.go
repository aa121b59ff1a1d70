package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devandress/Estacion-metereologica/pkg/models"
)

func TestTransformFlatFields(t *testing.T) {
	raw := map[string]interface{}{
		"temp": 21.5,
		"hum":  60.0,
	}
	mapping := models.FieldMapping{
		"temperature": "temp",
		"humidity":    "hum",
	}

	normalized := Transform(raw, mapping)

	assert.Equal(t, 21.5, normalized["temperature"])
	assert.Equal(t, 60.0, normalized["humidity"])
}

func TestTransformNestedPaths(t *testing.T) {
	raw := map[string]interface{}{
		"main": map[string]interface{}{
			"temp":     18.2,
			"humidity": 72.0,
		},
		"wind": map[string]interface{}{
			"speed": 3.4,
		},
	}
	mapping := models.FieldMapping{
		"temperature":   "main.temp",
		"humidity":      "main.humidity",
		"wind_speed_ms": "wind.speed",
	}

	normalized := Transform(raw, mapping)

	assert.Equal(t, 18.2, normalized["temperature"])
	assert.Equal(t, 72.0, normalized["humidity"])
	assert.Equal(t, 3.4, normalized["wind_speed_ms"])
}

func TestTransformOmitsMissingPaths(t *testing.T) {
	raw := map[string]interface{}{
		"main": map[string]interface{}{"temp": 18.2},
	}
	mapping := models.FieldMapping{
		"temperature":   "main.temp",
		"humidity":      "main.humidity",
		"wind_speed_ms": "wind.speed",
	}

	normalized := Transform(raw, mapping)

	assert.Equal(t, 18.2, normalized["temperature"])
	assert.NotContains(t, normalized, "humidity")
	assert.NotContains(t, normalized, "wind_speed_ms")
}

func TestTransformNonObjectSegment(t *testing.T) {
	raw := map[string]interface{}{
		"main": "not an object",
	}
	mapping := models.FieldMapping{"temperature": "main.temp"}

	normalized := Transform(raw, mapping)

	assert.Empty(t, normalized)
}

func TestTransformDoesNotModifyInputs(t *testing.T) {
	raw := map[string]interface{}{"temp": 1.0}
	mapping := models.FieldMapping{"temperature": "temp"}

	Transform(raw, mapping)

	assert.Equal(t, map[string]interface{}{"temp": 1.0}, raw)
	assert.Equal(t, models.FieldMapping{"temperature": "temp"}, mapping)
}

func TestNumericField(t *testing.T) {
	data := map[string]interface{}{
		"float":   21.5,
		"int":     7,
		"string":  " 3.25 ",
		"garbage": "warm",
		"null":    nil,
	}

	v, ok := numericField(data, "float")
	require.True(t, ok)
	assert.Equal(t, 21.5, v)

	v, ok = numericField(data, "int")
	require.True(t, ok)
	assert.Equal(t, 7.0, v)

	v, ok = numericField(data, "string")
	require.True(t, ok)
	assert.Equal(t, 3.25, v)

	_, ok = numericField(data, "garbage")
	assert.False(t, ok)

	_, ok = numericField(data, "null")
	assert.False(t, ok)

	_, ok = numericField(data, "absent")
	assert.False(t, ok)
}
