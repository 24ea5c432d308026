package utils

import (
	"net/url"
	"strings"
	"testing"

	"metrix-portal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeterContactLink(t *testing.T) {
	link := MeterContactLink(&models.MeterData{
		Serial:   "SN-1",
		Account:  "ACC-1",
		Address:  "Abay, 12",
		Reading:  120.5,
		Status:   models.MeterOnline,
		Coverage: models.CoverageGood,
	})

	require.True(t, strings.HasPrefix(link, "https://wa.me/"+supportPhone+"?text="))

	parsed, err := url.Parse(link)
	require.NoError(t, err)
	text := parsed.Query().Get("text")
	assert.Contains(t, text, "Serial number: SN-1")
	assert.Contains(t, text, "Current reading: 120.500 m3")
	assert.Contains(t, text, "Status: online")
}

func TestNotFoundContactLink_Defaults(t *testing.T) {
	link := NotFoundContactLink("", "")

	parsed, err := url.Parse(link)
	require.NoError(t, err)
	text := parsed.Query().Get("text")
	assert.Contains(t, text, "I searched for: ---")
	assert.Contains(t, text, "My number: not provided")
}

func TestNotFoundContactLink_EscapesQuery(t *testing.T) {
	link := NotFoundContactLink("SN 1&2", "87071234567")

	assert.NotContains(t, link, "SN 1&2", "raw value must be escaped")

	parsed, err := url.Parse(link)
	require.NoError(t, err)
	assert.Contains(t, parsed.Query().Get("text"), "SN 1&2")
}
