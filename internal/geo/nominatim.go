package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// Nominatim — клиент OpenStreetMap Nominatim.
// Поиск ограничен странами countryCodes ("us" по умолчанию).
type Nominatim struct {
	baseURL      string
	userAgent    string
	countryCodes string
	countries    map[string]struct{}
	timeout      time.Duration
	client       *http.Client
}

// NewNominatim создаёт клиент. timeout ограничивает каждый запрос отдельно
// от контекста вызывающего.
func NewNominatim(baseURL, userAgent, countryCodes string, timeout time.Duration) *Nominatim {
	return &Nominatim{
		baseURL:      strings.TrimRight(baseURL, "/"),
		userAgent:    userAgent,
		countryCodes: countryCodes,
		countries:    parseCountryCodes(countryCodes),
		timeout:      timeout,
		client:       &http.Client{},
	}
}

// Ответ Nominatim (format=jsonv2, addressdetails=1).
type nominatimPlace struct {
	Lat     string           `json:"lat"`
	Lon     string           `json:"lon"`
	Address nominatimAddress `json:"address"`
}

type nominatimAddress struct {
	State   string `json:"state"`
	City    string `json:"city"`
	Town    string `json:"town"`
	Village string `json:"village"`
	County  string `json:"county"`
	Country string `json:"country_code"`
}

func (a nominatimAddress) locality() string {
	for _, v := range []string{a.City, a.Town, a.Village, a.County} {
		if v != "" {
			return v
		}
	}
	return ""
}

// ResolveText ищет место по тексту. Результат без штата считается ненайденным.
func (n *Nominatim) ResolveText(ctx context.Context, phrase string) (Place, bool) {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return Place{}, false
	}

	q := url.Values{}
	q.Set("q", phrase)
	q.Set("format", "jsonv2")
	q.Set("addressdetails", "1")
	q.Set("limit", "1")
	if n.countryCodes != "" {
		q.Set("countrycodes", n.countryCodes)
	}

	var places []nominatimPlace
	if err := n.get(ctx, "/search", q, &places); err != nil {
		log.WithError(err).WithField("query", phrase).Warn("Ошибка геокодирования")
		return Place{}, false
	}
	if len(places) == 0 {
		return Place{}, false
	}

	p := places[0]
	if p.Address.State == "" {
		return Place{}, false
	}
	lat, lon, err := parseCoords(p.Lat, p.Lon)
	if err != nil {
		log.WithError(err).WithField("query", phrase).Warn("Некорректные координаты от геокодера")
		return Place{}, false
	}

	return Place{State: p.Address.State, City: p.Address.locality(), Latitude: lat, Longitude: lon}, true
}

// ResolveCoordinates — обратное геокодирование. Координаты в ответе
// всегда исходные, геокодер даёт только названия. /reverse не фильтрует
// по стране, поэтому точка вне countryCodes считается ненайденной.
func (n *Nominatim) ResolveCoordinates(ctx context.Context, lat, lon float64) (Place, bool) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("format", "jsonv2")
	q.Set("addressdetails", "1")

	var p nominatimPlace
	if err := n.get(ctx, "/reverse", q, &p); err != nil {
		log.WithError(err).WithFields(log.Fields{"lat": lat, "lon": lon}).Warn("Ошибка обратного геокодирования")
		return Place{}, false
	}
	if p.Address.State == "" && p.Address.locality() == "" {
		return Place{}, false
	}
	if !n.allowedCountry(p.Address.Country) {
		log.WithFields(log.Fields{"lat": lat, "lon": lon, "country": p.Address.Country}).
			Info("Точка за пределами разрешённых стран")
		return Place{}, false
	}

	return Place{State: p.Address.State, City: p.Address.locality(), Latitude: lat, Longitude: lon}, true
}

// allowedCountry: пустой список стран пропускает всё.
func (n *Nominatim) allowedCountry(code string) bool {
	if len(n.countries) == 0 {
		return true
	}
	_, ok := n.countries[strings.ToLower(strings.TrimSpace(code))]
	return ok
}

// parseCountryCodes разбирает "us,ca" в множество кодов в нижнем регистре.
func parseCountryCodes(raw string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, c := range strings.Split(raw, ",") {
		if c = strings.ToLower(strings.TrimSpace(c)); c != "" {
			set[c] = struct{}{}
		}
	}
	return set
}

func (n *Nominatim) get(ctx context.Context, path string, q url.Values, out any) error {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка запроса %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("геокодер ответил %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ошибка разбора ответа: %w", err)
	}
	return nil
}

func parseCoords(lat, lon string) (float64, float64, error) {
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("lat %q: %w", lat, err)
	}
	lo, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("lon %q: %w", lon, err)
	}
	return la, lo, nil
}
