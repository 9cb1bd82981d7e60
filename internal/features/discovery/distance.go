// Package discovery ищет ближайших к запросу активных водителей.
// distance.go — расстояние по большому кругу между двумя точками.
package discovery

import "math"

// Средний радиус Земли в милях.
const earthRadiusMiles = 3958.7613

// DistanceMiles возвращает расстояние между точками по формуле гаверсинусов.
// Симметрична, для одной и той же точки возвращает 0.
func DistanceMiles(lat1, lon1, lat2, lon2 float64) float64 {
	if lat1 == lat2 && lon1 == lon2 {
		return 0
	}

	φ1 := lat1 * math.Pi / 180
	φ2 := lat2 * math.Pi / 180
	dφ := (lat2 - lat1) * math.Pi / 180
	dλ := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dφ/2)*math.Sin(dφ/2) + math.Cos(φ1)*math.Cos(φ2)*math.Sin(dλ/2)*math.Sin(dλ/2)
	// Погрешность округления может дать a чуть больше 1
	a = math.Min(1, a)

	return 2 * earthRadiusMiles * math.Asin(math.Sqrt(a))
}
