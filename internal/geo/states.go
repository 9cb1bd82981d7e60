package geo

import "strings"

// USStates — штаты, доступные в ручном выборе локации.
var USStates = map[string]string{
	"NY": "New York",
	"CA": "California",
	"IL": "Illinois",
	"FL": "Florida",
	"TX": "Texas",
	"PA": "Pennsylvania",
	"OH": "Ohio",
	"GA": "Georgia",
	"NC": "North Carolina",
	"MI": "Michigan",
}

// StateOrder — порядок штатов в меню.
var StateOrder = []string{"NY", "CA", "IL", "FL", "TX", "PA", "OH", "GA", "NC", "MI"}

// USCities — крупные города штатов для ручного выбора.
var USCities = map[string][]string{
	"NY": {"New York City", "Buffalo", "Rochester", "Yonkers", "Syracuse"},
	"CA": {"Los Angeles", "San Diego", "San Jose", "San Francisco", "Fresno"},
	"IL": {"Chicago", "Aurora", "Naperville", "Joliet", "Rockford"},
	"FL": {"Jacksonville", "Miami", "Tampa", "Orlando", "St. Petersburg"},
	"TX": {"Houston", "San Antonio", "Dallas", "Austin", "Fort Worth"},
	"PA": {"Philadelphia", "Pittsburgh", "Allentown", "Erie", "Reading"},
	"OH": {"Columbus", "Cleveland", "Cincinnati", "Toledo", "Akron"},
	"GA": {"Atlanta", "Columbus", "Augusta-Richmond", "Macon", "Savannah"},
	"NC": {"Charlotte", "Raleigh", "Greensboro", "Durham", "Winston-Salem"},
	"MI": {"Detroit", "Grand Rapids", "Warren", "Sterling Heights", "Ann Arbor"},
}

// StateAliases возвращает все известные написания штата: код и полное имя.
// Неизвестный штат возвращается как есть.
func StateAliases(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if name, ok := USStates[strings.ToUpper(s)]; ok {
		return []string{strings.ToUpper(s), name}
	}
	for code, name := range USStates {
		if strings.EqualFold(name, s) {
			return []string{code, name}
		}
	}
	return []string{s}
}
