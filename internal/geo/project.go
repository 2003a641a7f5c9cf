package geo

import "math"

// WGS-84 ellipsoid constants.
const (
	wgs84A = 6378137.0           // semi-major axis in meters
	wgs84F = 1 / 298.257223563   // flattening
	utmK0  = 0.9996              // UTM scale factor at the central meridian
	utmE0  = 500000.0            // false easting
	utmN0S = 10000000.0          // false northing on the southern hemisphere
)

// Projector converts WGS-84 latitude/longitude into metric easting and
// northing within a fixed UTM zone. The default zone matches the survey
// area the DEM origins are delivered in (EPSG:32633, zone 33 north).
type Projector struct {
	Zone     int
	Southern bool
}

// DefaultProjector is the zone-33-north projector used when no explicit
// zone is configured.
var DefaultProjector = Projector{Zone: 33}

// centralMeridian returns the central meridian of the zone in radians.
func (p Projector) centralMeridian() float64 {
	return float64(p.Zone*6-183) * math.Pi / 180
}

// Project converts a latitude/longitude pair (degrees) to UTM easting and
// northing in meters using the standard truncated Krueger series. The
// approximation holds to millimeters well beyond one zone width from the
// central meridian, which covers any single flight.
func (p Projector) Project(latDeg, lonDeg float64) (easting, northing float64) {
	lat := latDeg * math.Pi / 180
	lon := lonDeg * math.Pi / 180

	e2 := wgs84F * (2 - wgs84F)
	ep2 := e2 / (1 - e2)

	sinLat, cosLat := math.Sin(lat), math.Cos(lat)
	tanLat := sinLat / cosLat

	n := wgs84A / math.Sqrt(1-e2*sinLat*sinLat)
	t := tanLat * tanLat
	c := ep2 * cosLat * cosLat
	a := cosLat * (lon - p.centralMeridian())

	// meridian arc length from the equator
	m := wgs84A * ((1-e2/4-3*e2*e2/64-5*e2*e2*e2/256)*lat -
		(3*e2/8+3*e2*e2/32+45*e2*e2*e2/1024)*math.Sin(2*lat) +
		(15*e2*e2/256+45*e2*e2*e2/1024)*math.Sin(4*lat) -
		(35*e2*e2*e2/3072)*math.Sin(6*lat))

	easting = utmE0 + utmK0*n*(a+
		(1-t+c)*a*a*a/6+
		(5-18*t+t*t+72*c-58*ep2)*a*a*a*a*a/120)

	northing = utmK0 * (m + n*tanLat*(a*a/2+
		(5-t+9*c+4*c*c)*a*a*a*a/24+
		(61-58*t+t*t+600*c-330*ep2)*a*a*a*a*a*a/720))
	if p.Southern {
		northing += utmN0S
	}
	return easting, northing
}
