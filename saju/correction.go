package saju

import (
	"math"
	"sort"
)

// StandardMeridian is the longitude KST is defined on.
const StandardMeridian = 135.0

// DefaultLocation is used when a correction is requested without a place.
const DefaultLocation = "서울"

// SolarTimeOffset returns the minutes to add to KST wall-clock time to get
// local mean solar time at a longitude (degrees east): 4 minutes per degree.
func SolarTimeOffset(longitude float64) int {
	return int(math.Round((longitude - StandardMeridian) * 4))
}

// Pre-computed offsets for common birth places.
var locationOffsets = map[string]int{
	"서울":  -32,
	"부산":  -24,
	"대구":  -26,
	"인천":  -33,
	"광주":  -32,
	"대전":  -30,
	"울산":  -23,
	"수원":  -32,
	"창원":  -25,
	"고양":  -33,
	"용인":  -31,
	"성남":  -31,
	"청주":  -30,
	"전주":  -31,
	"안산":  -33,
	"천안":  -31,
	"포항":  -23,
	"의정부": -32,
	"원주":  -28,
	"춘천":  -29,
}

// LocationOffset looks up a named location.
func LocationOffset(name string) (int, error) {
	if off, ok := locationOffsets[name]; ok {
		return off, nil
	}
	return 0, &NotFoundError{Kind: "location", Key: name}
}

// Locations lists the named locations, sorted.
func Locations() []string {
	out := make([]string, 0, len(locationOffsets))
	for k := range locationOffsets {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
