package discovery

import (
	"math"
	"strings"

	"serotonyl.ru/teamhub-bot/internal/features/drivers"
)

// MaxResults — сколько ближайших водителей показываем в режиме расстояний.
const MaxResults = 10

// Mode — стратегия поиска, выбирается по успеху геокодирования.
type Mode string

const (
	ModeProximity Mode = "proximity"
	ModeText      Mode = "text"
)

// Outcome — исход поиска. Пустой справочник, "место не найдено"
// и обычный результат различаются, чтобы оператор видел разницу.
type Outcome string

const (
	OutcomeEmptyDirectory Outcome = "empty_directory" // активных водителей нет вообще
	OutcomeRanked         Outcome = "ranked"          // отсортировано по расстоянию
	OutcomeMatched        Outcome = "matched"         // совпадения по названию
	OutcomeNotFound       Outcome = "not_found"       // место не распознано и совпадений нет
)

// Query — запрос поиска: штат и/или город.
type Query struct {
	State string
	City  string
}

// ParseArgs разбирает аргументы команды /find: первый — штат, остальные — город.
func ParseArgs(args []string) Query {
	if len(args) == 0 {
		return Query{}
	}
	return Query{
		State: strings.ToUpper(strings.TrimSpace(args[0])),
		City:  strings.TrimSpace(strings.Join(args[1:], " ")),
	}
}

// Phrase — строка для геокодера: "город, штат", либо то, что задано.
func (q Query) Phrase() string {
	state := strings.TrimSpace(q.State)
	city := strings.TrimSpace(q.City)
	switch {
	case city != "" && state != "":
		return city + ", " + state
	case state != "":
		return state
	default:
		return city
	}
}

// Entry — один водитель в выдаче.
type Entry struct {
	Driver   *drivers.Driver
	Distance float64 // мили; +Inf — координат нет, в текстовом режиме не считается
	Stars    float64
	Score    float64
	Seen     string // "15m ago" / "3h ago"
}

// HasDistance — расстояние известно и имеет смысл показывать.
func (e Entry) HasDistance() bool {
	return !math.IsInf(e.Distance, 1) && !math.IsNaN(e.Distance)
}

// Result — итог поиска.
type Result struct {
	Mode    Mode
	Outcome Outcome
	Phrase  string
	Entries []Entry
}
