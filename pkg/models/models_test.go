package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestValidateStationCreate(t *testing.T) {
	valid := StationCreate{
		Name:      "rooftop",
		Location:  "Madrid",
		Latitude:  40.4,
		Longitude: -3.7,
	}
	assert.NoError(t, Validate(valid))

	missingName := valid
	missingName.Name = ""
	assert.Error(t, Validate(missingName))

	badLatitude := valid
	badLatitude.Latitude = 91
	assert.Error(t, Validate(badLatitude))

	badLongitude := valid
	badLongitude.Longitude = -200
	assert.Error(t, Validate(badLongitude))
}

func TestValidateReadingCreate(t *testing.T) {
	valid := ReadingCreate{Temperature: f(21.5), Humidity: f(60)}
	assert.NoError(t, Validate(valid))

	assert.Error(t, Validate(ReadingCreate{Humidity: f(60)}), "temperature is required")
	assert.Error(t, Validate(ReadingCreate{Temperature: f(21.5)}), "humidity is required")
	assert.Error(t, Validate(ReadingCreate{Temperature: f(21.5), Humidity: f(101)}))

	negativeWind := valid
	negativeWind.WindSpeedMS = f(-1)
	assert.Error(t, Validate(negativeWind))

	badDirection := valid
	badDirection.WindDirectionDegrees = f(400)
	assert.Error(t, Validate(badDirection))
}

func TestReadingCreateToReading(t *testing.T) {
	stationID := uuid.New()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// missing timestamp defaults to now
	create := ReadingCreate{Temperature: f(21.5), Humidity: f(60)}
	reading := create.ToReading(stationID, now)
	assert.Equal(t, stationID, reading.StationID)
	assert.Equal(t, now, reading.TakenAt)
	assert.Equal(t, 21.5, reading.Temperature)

	// explicit timestamp wins
	at := now.Add(-time.Hour)
	create.Timestamp = &at
	reading = create.ToReading(stationID, now)
	assert.Equal(t, at, reading.TakenAt)
}

func TestValidateExternalSourceCreate(t *testing.T) {
	valid := ExternalSourceCreate{
		Name:       "owm",
		SourceType: SourceTypeOpenWeatherMap,
	}
	assert.NoError(t, Validate(valid))

	badType := valid
	badType.SourceType = "carrier-pigeon"
	assert.Error(t, Validate(badType))

	badURL := valid
	url := "not a url"
	badURL.APIURL = &url
	assert.Error(t, Validate(badURL))
}

func TestValidateShareLinkCreate(t *testing.T) {
	valid := ShareLinkCreate{StationID: uuid.New()}
	require.NoError(t, Validate(valid))

	assert.Error(t, Validate(ShareLinkCreate{}), "station_id is required")

	zeroDays := valid
	days := 0
	zeroDays.ExpiresInDays = &days
	assert.Error(t, Validate(zeroDays))

	zeroAccesses := valid
	max := 0
	zeroAccesses.MaxAccesses = &max
	assert.Error(t, Validate(zeroAccesses))
}
