package geocuritiba

import "math"

// GeoCuritiba serves geometries in SIRGAS 2000 / UTM zone 22S
// (EPSG 31982). SIRGAS 2000 and WGS84 differ by centimeters, far below
// lot scale, so the conversion treats them as identical ellipsoids.
const (
	wkidUTM22S = 31982

	ellipsoidA    = 6378137.0
	ellipsoidF    = 1 / 298.257222101
	scaleFactor   = 0.9996
	falseEasting  = 500000.0
	falseNorthing = 10000000.0
	// Central meridian of UTM zone 22.
	centralMeridianDeg = -51.0
)

// utmFromLatLon projects a WGS84 coordinate into UTM 22S.
func utmFromLatLon(lat, lon float64) (easting, northing float64) {
	e2 := ellipsoidF * (2 - ellipsoidF)
	ep2 := e2 / (1 - e2)

	phi := lat * math.Pi / 180
	lam := lon * math.Pi / 180
	lam0 := centralMeridianDeg * math.Pi / 180

	sinPhi := math.Sin(phi)
	cosPhi := math.Cos(phi)

	n := ellipsoidA / math.Sqrt(1-e2*sinPhi*sinPhi)
	t := math.Tan(phi) * math.Tan(phi)
	c := ep2 * cosPhi * cosPhi
	a := (lam - lam0) * cosPhi

	m := ellipsoidA * ((1-e2/4-3*e2*e2/64-5*e2*e2*e2/256)*phi -
		(3*e2/8+3*e2*e2/32+45*e2*e2*e2/1024)*math.Sin(2*phi) +
		(15*e2*e2/256+45*e2*e2*e2/1024)*math.Sin(4*phi) -
		(35*e2*e2*e2/3072)*math.Sin(6*phi))

	easting = scaleFactor*n*(a+(1-t+c)*a*a*a/6+
		(5-18*t+t*t+72*c-58*ep2)*a*a*a*a*a/120) + falseEasting

	northing = scaleFactor * (m + n*math.Tan(phi)*(a*a/2+
		(5-t+9*c+4*c*c)*a*a*a*a/24+
		(61-58*t+t*t+600*c-330*ep2)*a*a*a*a*a*a/720))
	if lat < 0 {
		northing += falseNorthing
	}
	return easting, northing
}

// latLonFromUTM inverts utmFromLatLon for southern-hemisphere points.
func latLonFromUTM(easting, northing float64) (lat, lon float64) {
	e2 := ellipsoidF * (2 - ellipsoidF)
	ep2 := e2 / (1 - e2)
	e1 := (1 - math.Sqrt(1-e2)) / (1 + math.Sqrt(1-e2))

	m := (northing - falseNorthing) / scaleFactor
	mu := m / (ellipsoidA * (1 - e2/4 - 3*e2*e2/64 - 5*e2*e2*e2/256))

	phi1 := mu + (3*e1/2-27*e1*e1*e1/32)*math.Sin(2*mu) +
		(21*e1*e1/16-55*e1*e1*e1*e1/32)*math.Sin(4*mu) +
		(151*e1*e1*e1/96)*math.Sin(6*mu) +
		(1097*e1*e1*e1*e1/512)*math.Sin(8*mu)

	sinPhi1 := math.Sin(phi1)
	cosPhi1 := math.Cos(phi1)
	tanPhi1 := math.Tan(phi1)

	c1 := ep2 * cosPhi1 * cosPhi1
	t1 := tanPhi1 * tanPhi1
	n1 := ellipsoidA / math.Sqrt(1-e2*sinPhi1*sinPhi1)
	r1 := ellipsoidA * (1 - e2) / math.Pow(1-e2*sinPhi1*sinPhi1, 1.5)
	d := (easting - falseEasting) / (n1 * scaleFactor)

	phi := phi1 - (n1*tanPhi1/r1)*(d*d/2-
		(5+3*t1+10*c1-4*c1*c1-9*ep2)*d*d*d*d/24+
		(61+90*t1+298*c1+45*t1*t1-252*ep2-3*c1*c1)*d*d*d*d*d*d/720)

	lam := (d - (1+2*t1+c1)*d*d*d/6 +
		(5-2*c1+28*t1-3*c1*c1+8*ep2+24*t1*t1)*d*d*d*d*d/120) / cosPhi1

	lat = phi * 180 / math.Pi
	lon = centralMeridianDeg + lam*180/math.Pi
	return lat, lon
}
