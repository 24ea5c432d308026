package utils

import (
	"fmt"
	"net/url"
	"strings"

	"metrix-portal/internal/models"
)

// supportPhone is the operations WhatsApp line shown on dead-end screens.
const supportPhone = "77776291638"

// MeterContactLink builds a prefilled WhatsApp link for a resolved meter,
// so a visitor can hand the full meter context to support in one tap.
func MeterContactLink(meter *models.MeterData) string {
	statusText := "offline"
	if meter.Status == models.MeterOnline {
		statusText = "online"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Serial number: %s\n", meter.Serial)
	fmt.Fprintf(&b, "Account: %s\n", meter.Account)
	fmt.Fprintf(&b, "Address: %s\n", meter.Address)
	fmt.Fprintf(&b, "Current reading: %.3f m3\n", meter.Reading)
	fmt.Fprintf(&b, "Updated: %s\n", meter.LastUpdate)
	fmt.Fprintf(&b, "Status: %s\n", statusText)
	fmt.Fprintf(&b, "Signal: %s\n", meter.Coverage)
	b.WriteString("My question / problem: ")

	return waLink(b.String())
}

// NotFoundContactLink builds the WhatsApp link for the "meter not found"
// dead end.
func NotFoundContactLink(searchValue, userPhone string) string {
	if searchValue == "" {
		searchValue = "---"
	}
	if userPhone == "" {
		userPhone = "not provided"
	}

	message := fmt.Sprintf(
		"Hello!\nI cannot find my meter in the system.\nI searched for: %s\nMy number: %s\nPlease help me figure this out.",
		searchValue, userPhone,
	)
	return waLink(message)
}

func waLink(message string) string {
	return fmt.Sprintf("https://wa.me/%s?text=%s", supportPhone, url.QueryEscape(message))
}
