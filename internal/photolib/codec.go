package photolib

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"howett.net/plist"
)

// Timestamps are stored as floating-point seconds since 2001-01-01T00:00:00Z,
// not the Unix epoch. The offset between the two epochs is fixed.
const epochOffset = 978307200

// TimeFromLibrarySeconds converts a stored timestamp to a time.Time.
// Sub-second precision is preserved.
func TimeFromLibrarySeconds(sec float64) time.Time {
	unix := sec + epochOffset
	s, frac := math.Modf(unix)
	return time.Unix(int64(s), int64(frac*1e9)).UTC()
}

// LibrarySecondsFromTime is the inverse of TimeFromLibrarySeconds.
// Seconds and nanoseconds are combined separately; UnixNano would
// overflow for dates past 2262.
func LibrarySecondsFromTime(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9 - epochOffset
}

// locationSentinel marks "no location" when stored on either coordinate.
const locationSentinel = -180.0

// DecodeLocation filters a stored coordinate pair. The sentinel value on
// either coordinate, and values outside valid latitude/longitude ranges,
// decode to nil. Out-of-range values are absent, never errors.
func DecodeLocation(lat, lon float64) *Location {
	if lat == locationSentinel || lon == locationSentinel {
		return nil
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil
	}
	return &Location{Latitude: lat, Longitude: lon}
}

// Positions of the named fields within the reverse-geocode place-name
// list. Indices beyond the stored list's length yield empty fields.
const (
	placeCountry = iota
	placeRegion
	placeCity
	placeSubLocality
	placeStreet
	placePointOfInterest
)

// reverseGeocodePayload matches the property-list shape of the stored
// reverse-geocode blob.
type reverseGeocodePayload struct {
	PlaceNames []string `plist:"placeNames"`
}

// DecodeReverseGeocode decodes a reverse-geocode blob into named fields.
// The blob is a property list holding an ordered place-name list, either
// at the top level or under the placeNames key.
func DecodeReverseGeocode(data []byte) (*PlaceInfo, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty reverse-geocode blob", ErrDecodeFailure)
	}

	var names []string
	if _, err := plist.Unmarshal(data, &names); err != nil {
		var payload reverseGeocodePayload
		if _, err := plist.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("%w: reverse-geocode property list: %v", ErrDecodeFailure, err)
		}
		names = payload.PlaceNames
	}

	at := func(i int) string {
		if i < len(names) {
			return names[i]
		}
		return ""
	}
	return &PlaceInfo{
		Country:         at(placeCountry),
		Region:          at(placeRegion),
		City:            at(placeCity),
		SubLocality:     at(placeSubLocality),
		Street:          at(placeStreet),
		PointOfInterest: at(placePointOfInterest),
	}, nil
}

// DecodeAdjustment decodes an adjustment/edit blob. The payload is a
// property list that may have gone through a lossless compression pass;
// direct decoding is attempted first, then inflate-then-decode. Both
// failing is a soft DecodeFailure: callers treat the asset's edit
// metadata as unavailable rather than aborting.
func DecodeAdjustment(data []byte) (map[string]interface{}, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty adjustment blob", ErrDecodeFailure)
	}

	var payload map[string]interface{}
	if _, err := plist.Unmarshal(data, &payload); err == nil {
		return payload, nil
	}

	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: adjustment blob is neither a property list nor compressed", ErrDecodeFailure)
	}
	defer zr.Close()
	inflated, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: inflating adjustment blob: %v", ErrDecodeFailure, err)
	}
	if _, err := plist.Unmarshal(inflated, &payload); err != nil {
		return nil, fmt.Errorf("%w: inflated adjustment blob: %v", ErrDecodeFailure, err)
	}
	return payload, nil
}

// DecodeFingerprint normalizes an asset fingerprint. Generations disagree
// on the encoding (an encoded string versus a plain integer), so the
// decoder dispatches on the declared type of the stored value rather
// than guessing from its shape.
func DecodeFingerprint(v interface{}) (string, error) {
	switch fp := v.(type) {
	case string:
		return fp, nil
	case []byte:
		return string(fp), nil
	case int64:
		return strconv.FormatInt(fp, 10), nil
	case float64:
		return strconv.FormatInt(int64(fp), 10), nil
	case nil:
		return "", fmt.Errorf("%w: no fingerprint stored", ErrDecodeFailure)
	default:
		return "", fmt.Errorf("%w: unsupported fingerprint type %T", ErrDecodeFailure, v)
	}
}
