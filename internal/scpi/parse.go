package scpi

import (
	"regexp"
	"strconv"
	"strings"
)

// dBm = dBµV - 107 for a 50 Ohm system.
const dBuVToDBmOffset = 107.0

var floatPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// DBuVToDBm converts a level reading from dBµV to dBm.
func DBuVToDBm(dbuv float64) float64 {
	return dbuv - dBuVToDBmOffset
}

// FirstFloat extracts the first signed decimal numeral from an instrument
// response, ignoring the surrounding text.
func FirstFloat(s string) (float64, bool) {
	m := floatPattern.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParsePosition decodes a GPS data response in the receiver's native format,
// e.g. "GPS,1,1239090583,220,4,N,48,7,40.33,E,11,36,47.42,...". Latitude and
// longitude travel as degrees/minutes/seconds preceded by a hemisphere letter.
// Any missing or malformed token yields ok=false, never a partial result.
func ParsePosition(s string) (lat, lon float64, ok bool) {
	if s == "" {
		return 0, 0, false
	}

	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	iNS := indexOf(parts, 0, "N", "S")
	if iNS < 0 || iNS+3 >= len(parts) {
		return 0, 0, false
	}
	lat, ok = dmsToDecimal(parts[iNS+1], parts[iNS+2], parts[iNS+3])
	if !ok {
		return 0, 0, false
	}

	iEW := indexOf(parts, iNS+4, "E", "W")
	if iEW < 0 || iEW+3 >= len(parts) {
		return 0, 0, false
	}
	lon, ok = dmsToDecimal(parts[iEW+1], parts[iEW+2], parts[iEW+3])
	if !ok {
		return 0, 0, false
	}

	if parts[iNS] == "S" {
		lat = -lat
	}
	if parts[iEW] == "W" {
		lon = -lon
	}
	return lat, lon, true
}

func indexOf(parts []string, from int, tokens ...string) int {
	for i := from; i < len(parts); i++ {
		for _, t := range tokens {
			if parts[i] == t {
				return i
			}
		}
	}
	return -1
}

func dmsToDecimal(d, m, s string) (float64, bool) {
	deg, err := strconv.ParseFloat(d, 64)
	if err != nil {
		return 0, false
	}
	mins, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return deg + mins/60.0 + secs/3600.0, true
}
