package rating

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/teamhub-bot/internal/common"
)

var testNow = time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)

func daysAgo(days int) time.Time {
	return testNow.Add(-time.Duration(days) * 24 * time.Hour)
}

func eval(passed bool, days int) Evaluation {
	return Evaluation{DriverID: 42, Passed: passed, CreatedAt: daysAgo(days)}
}

func TestWeight(t *testing.T) {
	tests := []struct {
		age  int
		want float64
	}{
		{0, 1.0}, {30, 1.0}, {31, 0.5}, {90, 0.5}, {91, 0.2}, {1000, 0.2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Weight(tt.age), "age %d", tt.age)
	}
}

func TestRecompute_EmptyHistory(t *testing.T) {
	score, err := Recompute(nil, testNow)
	require.NoError(t, err)

	assert.Equal(t, 0.75, score.Value)
	assert.Equal(t, 0.0, score.Confidence)
	require.NotNil(t, score.UpdatedAt)
	assert.Equal(t, testNow, *score.UpdatedAt)
	assert.Equal(t, NeutralScore().Value, score.Value)
}

func TestRecompute_MixedAges(t *testing.T) {
	history := []Evaluation{eval(true, 10), eval(true, 40), eval(false, 100)}

	score, err := Recompute(history, testNow)
	require.NoError(t, err)

	// (1.5 + 15) / (1.7 + 20)
	assert.InDelta(t, 16.5/21.7, score.Value, 1e-12)
	assert.InDelta(t, 0.7604, score.Value, 1e-4)
	assert.InDelta(t, 1-math.Exp(-3.0/7.0), score.Confidence, 1e-12)
	assert.InDelta(t, 0.3486, score.Confidence, 1e-4)
}

func TestRecompute_OrderIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	history := make([]Evaluation, 0, 50)
	for i := 0; i < 50; i++ {
		history = append(history, eval(rng.Intn(3) != 0, rng.Intn(200)))
	}

	want, err := Recompute(history, testNow)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		shuffled := append([]Evaluation(nil), history...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got, err := Recompute(shuffled, testNow)
		require.NoError(t, err)
		assert.Equal(t, want.Value, got.Value)
		assert.Equal(t, want.Confidence, got.Confidence)
	}
}

func TestRecompute_Idempotent(t *testing.T) {
	history := []Evaluation{eval(true, 1), eval(false, 45), eval(true, 400)}

	first, err := Recompute(history, testNow)
	require.NoError(t, err)
	second, err := Recompute(history, testNow)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRecompute_AllPassMonotonic(t *testing.T) {
	prev := 0.0
	for n := 1; n <= 200; n++ {
		history := make([]Evaluation, n)
		for i := range history {
			history[i] = eval(true, i%30)
		}
		score, err := Recompute(history, testNow)
		require.NoError(t, err)

		assert.Greater(t, score.Value, prev, "n=%d", n)
		assert.Less(t, score.Value, 1.0, "n=%d", n)
		prev = score.Value
	}
}

func TestRecompute_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		history []Evaluation
		wantErr error
	}{
		{
			name:    "future evaluation",
			history: []Evaluation{eval(true, 1), {DriverID: 42, Passed: true, CreatedAt: testNow.Add(time.Hour)}},
			wantErr: common.ErrFutureEvaluation,
		},
		{
			name:    "zero timestamp",
			history: []Evaluation{{DriverID: 42, Passed: true}},
			wantErr: common.ErrInvalidEvaluation,
		},
		{
			name:    "missing subject",
			history: []Evaluation{{Passed: false, CreatedAt: daysAgo(2)}},
			wantErr: common.ErrInvalidEvaluation,
		},
		{
			name:    "mixed subjects",
			history: []Evaluation{eval(true, 1), {DriverID: 7, Passed: true, CreatedAt: daysAgo(1)}},
			wantErr: common.ErrInvalidEvaluation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Recompute(tt.history, testNow)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestRecompute_SmallClockSkewAllowed(t *testing.T) {
	history := []Evaluation{{DriverID: 42, Passed: true, CreatedAt: testNow.Add(10 * time.Second)}}

	score, err := Recompute(history, testNow)
	require.NoError(t, err)
	assert.InDelta(t, 16.0/21.0, score.Value, 1e-12)
}

func TestRecompute_BeyondClockSkewRejected(t *testing.T) {
	history := []Evaluation{{DriverID: 42, Passed: true, CreatedAt: testNow.Add(clockSkew + time.Second)}}

	_, err := Recompute(history, testNow)
	assert.ErrorIs(t, err, common.ErrFutureEvaluation)
}

func TestConfidence(t *testing.T) {
	assert.Equal(t, 0.0, Confidence(0))
	assert.InDelta(t, 1-math.Exp(-3.0/7), Confidence(3), 1e-12)
	assert.InDelta(t, 0.3486, Confidence(3), 1e-4)
	assert.InDelta(t, 1-math.Exp(-15.0/7), Confidence(15), 1e-12)
	assert.InDelta(t, 0.8827, Confidence(15), 1e-4)

	for _, n := range []int{260, 300, 1000, 1 << 20} {
		assert.Less(t, Confidence(n), 1.0, "n=%d", n)
	}
	assert.Greater(t, Confidence(1000), 0.999)
}

func TestStarsAndCategory(t *testing.T) {
	assert.Equal(t, 4.0, Stars(0.75))
	assert.Equal(t, 5.0, Stars(1))
	assert.Equal(t, 1.0, Stars(0))
	assert.Equal(t, "4.0 ⭐️", FormatStars(0.75))

	assert.Equal(t, CategoryExcellent, CategoryOf(0.85))
	assert.Equal(t, CategoryNormal, CategoryOf(0.8499))
	assert.Equal(t, CategoryNormal, CategoryOf(0.65))
	assert.Equal(t, CategoryIssues, CategoryOf(0.6499))
	assert.Equal(t, "Normal 🟡", CategoryNormal.Badge())
}
