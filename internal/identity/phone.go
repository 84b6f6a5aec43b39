package identity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// ErrInvalidPhone is returned when a number cannot be resolved to a region and timezone.
var ErrInvalidPhone = errors.New("invalid phone number")

const unknownTimezone = "Etc/Unknown"

// ParsePhone resolves an international number, with or without the leading
// "+", into its parts and the first IANA timezone libphonenumber maps it to.
func ParsePhone(raw string) (PhoneNumber, string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return PhoneNumber{}, "", ErrInvalidPhone
	}
	if !strings.HasPrefix(raw, "+") {
		raw = "+" + raw
	}

	num, err := phonenumbers.Parse(raw, "")
	if err != nil {
		return PhoneNumber{}, "", fmt.Errorf("%w: %v", ErrInvalidPhone, err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return PhoneNumber{}, "", ErrInvalidPhone
	}

	region := phonenumbers.GetRegionCodeForNumber(num)
	national := phonenumbers.GetNationalSignificantNumber(num)
	if region == "" || region == "ZZ" || national == "" {
		return PhoneNumber{}, "", ErrInvalidPhone
	}

	zones, err := phonenumbers.GetTimezonesForNumber(num)
	if err != nil {
		return PhoneNumber{}, "", fmt.Errorf("%w: %v", ErrInvalidPhone, err)
	}
	timezone := ""
	for _, zone := range zones {
		if zone != "" && zone != unknownTimezone {
			timezone = zone
			break
		}
	}
	if timezone == "" {
		return PhoneNumber{}, "", ErrInvalidPhone
	}

	return PhoneNumber{
		CountryCode: fmt.Sprintf("+%d", num.GetCountryCode()),
		ISOCode:     region,
		Number:      national,
	}, timezone, nil
}
