package spatial

// Base32 encoding for geohash
const base32 = "0123456789bcdefghjkmnpqrstuvwxyz"

// RegionGeohashPrecision is the precision stored on visited regions (~150m cells)
const RegionGeohashPrecision = 7

// EncodeGeohash encodes latitude and longitude into a geohash string
// precision: number of characters in the geohash (1-12)
func EncodeGeohash(lat, lon float64, precision int) string {
	if precision < 1 {
		precision = 1
	}
	if precision > 12 {
		precision = 12
	}

	latRange := [2]float64{-90.0, 90.0}
	lonRange := [2]float64{-180.0, 180.0}

	geohash := make([]byte, 0, precision)
	bits := 0
	even := true
	ch := 0

	for len(geohash) < precision {
		if even {
			mid := (lonRange[0] + lonRange[1]) / 2
			if lon >= mid {
				ch |= 1 << (4 - bits)
				lonRange[0] = mid
			} else {
				lonRange[1] = mid
			}
		} else {
			mid := (latRange[0] + latRange[1]) / 2
			if lat >= mid {
				ch |= 1 << (4 - bits)
				latRange[0] = mid
			} else {
				latRange[1] = mid
			}
		}
		even = !even

		bits++
		if bits == 5 {
			geohash = append(geohash, base32[ch])
			bits = 0
			ch = 0
		}
	}

	return string(geohash)
}

// DecodeGeohash decodes a geohash string into the center of its cell
func DecodeGeohash(geohash string) (lat, lon float64) {
	latRange := [2]float64{-90.0, 90.0}
	lonRange := [2]float64{-180.0, 180.0}

	isLon := true
	for i := 0; i < len(geohash); i++ {
		idx := indexOfBase32(geohash[i])
		if idx == -1 {
			continue
		}

		for mask := 16; mask > 0; mask >>= 1 {
			if isLon {
				mid := (lonRange[0] + lonRange[1]) / 2
				if idx&mask != 0 {
					lonRange[0] = mid
				} else {
					lonRange[1] = mid
				}
			} else {
				mid := (latRange[0] + latRange[1]) / 2
				if idx&mask != 0 {
					latRange[0] = mid
				} else {
					latRange[1] = mid
				}
			}
			isLon = !isLon
		}
	}

	return (latRange[0] + latRange[1]) / 2, (lonRange[0] + lonRange[1]) / 2
}

func indexOfBase32(ch byte) int {
	for i := 0; i < len(base32); i++ {
		if base32[i] == ch {
			return i
		}
	}
	return -1
}
