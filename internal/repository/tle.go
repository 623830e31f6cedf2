package repository

import (
	"fmt"
	"math"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/fakhrymubarak/iss-finder/internal/model"
)

const tleLineLength = 69

// validateTLE checks line numbers, length and the modulo-10 checksum of both lines.
// go-satellite slices the lines by column and does not report malformed input.
func validateTLE(line1, line2 string) error {
	for i, line := range []string{line1, line2} {
		if len(line) != tleLineLength {
			return fmt.Errorf("%w: line %d has %d characters", ErrInvalidTLE, i+1, len(line))
		}
		if !strings.HasPrefix(line, fmt.Sprintf("%d ", i+1)) {
			return fmt.Errorf("%w: line %d has wrong line number", ErrInvalidTLE, i+1)
		}
		if stored, computed := int(line[tleLineLength-1]-'0'), tleChecksum(line); stored != computed {
			return fmt.Errorf("%w: line %d checksum digit %d, computed %d", ErrInvalidTLE, i+1, stored, computed)
		}
	}
	return nil
}

func tleChecksum(line string) int {
	sum := 0
	for _, c := range line[:tleLineLength-1] {
		switch {
		case c >= '0' && c <= '9':
			sum += int(c - '0')
		case c == '-':
			sum++
		}
	}
	return sum % 10
}

// propagateTLE returns the sub-satellite point at t using SGP4.
func propagateTLE(line1, line2 string, t time.Time) (*model.ISSPosition, error) {
	if err := validateTLE(line1, line2); err != nil {
		return nil, err
	}
	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS72)

	t = t.UTC()
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	posECI, _ := satellite.Propagate(sat, year, int(month), day, hour, min, sec)
	jd := satellite.JDay(year, int(month), day, hour, min, sec)
	gmst := satellite.ThetaG_JD(jd)
	_, _, lla := satellite.ECIToLLA(posECI, gmst)

	if math.IsNaN(lla.Latitude) || math.IsNaN(lla.Longitude) {
		return nil, fmt.Errorf("%w: propagation diverged", ErrInvalidTLE)
	}

	return &model.ISSPosition{
		Latitude:  lla.Latitude * 180 / math.Pi,
		Longitude: normalizeLongitude(lla.Longitude * 180 / math.Pi),
		Timestamp: t,
		Source:    model.SourceTLE,
	}, nil
}

// normalizeLongitude maps degrees into [-180, 180).
func normalizeLongitude(deg float64) float64 {
	deg = math.Mod(deg+180, 360)
	if deg < 0 {
		deg += 360
	}
	return deg - 180
}
