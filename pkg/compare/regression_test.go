package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegressions_AchievedTPS(t *testing.T) {
	tests := []struct {
		name    string
		base    float64
		cand    float64
		flagged bool
	}{
		{name: "15% drop", base: 1000, cand: 850, flagged: true},
		{name: "exactly 10% drop", base: 1000, cand: 900, flagged: true},
		{name: "5% drop", base: 1000, cand: 950, flagged: false},
		{name: "improvement", base: 1000, cand: 1200, flagged: false},
		{name: "zero baseline", base: 0, cand: 100, flagged: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := newRecord("base", withTPS(tt.base))
			cand := newRecord("cand", withTPS(tt.cand))

			note := RegressionNote(base, cand, "")

			if tt.flagged {
				assert.Contains(t, note, "achieved")
			} else {
				assert.NotContains(t, note, "achieved")
			}
		})
	}
}

func TestRegressions_NoteText(t *testing.T) {
	base := newRecord("base", withTPS(1000))
	cand := newRecord("cand", withTPS(850))

	assert.Equal(t, "⚠️ achieved -15.0%", RegressionNote(base, cand, ""))
}

func TestRegressions_DropRate(t *testing.T) {
	tests := []struct {
		name    string
		base    float64
		cand    float64
		flagged bool
	}{
		{name: "6pp increase", base: 0.01, cand: 0.07, flagged: true},
		{name: "4pp increase", base: 0.01, cand: 0.05, flagged: false},
		{name: "decrease", base: 0.2, cand: 0.05, flagged: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := newRecord("base", withTPS(100), withDropRate(tt.base))
			cand := newRecord("cand", withTPS(100), withDropRate(tt.cand))

			regs := Regressions(base, cand, "")

			if tt.flagged {
				require.Len(t, regs, 1)
				assert.Equal(t, RegressionDropRate, regs[0].Kind)
				assert.Contains(t, regs[0].String(), "drop +")
			} else {
				assert.Empty(t, regs)
			}
		})
	}
}

func TestRegressions_StatP90(t *testing.T) {
	base := newRecord("base", withTPS(100), withP90("rpc", 100))

	t.Run("increase over threshold", func(t *testing.T) {
		cand := newRecord("cand", withTPS(100), withP90("rpc", 125))

		regs := Regressions(base, cand, "rpc")
		require.Len(t, regs, 1)
		assert.Equal(t, RegressionStatP90, regs[0].Kind)
		assert.Equal(t, "rpc p90 +25.0%", regs[0].String())
	})

	t.Run("small increase", func(t *testing.T) {
		cand := newRecord("cand", withTPS(100), withP90("rpc", 105))
		assert.Empty(t, Regressions(base, cand, "rpc"))
	})

	t.Run("no stat selected", func(t *testing.T) {
		cand := newRecord("cand", withTPS(100), withP90("rpc", 200))
		assert.Empty(t, Regressions(base, cand, ""))
	})

	t.Run("missing on candidate", func(t *testing.T) {
		cand := newRecord("cand", withTPS(100))
		assert.Empty(t, Regressions(base, cand, "rpc"))
	})

	t.Run("zero baseline", func(t *testing.T) {
		zero := newRecord("base", withTPS(100), withP90("rpc", 0))
		cand := newRecord("cand", withTPS(100), withP90("rpc", 50))
		assert.Empty(t, Regressions(zero, cand, "rpc"))
	})
}

func TestRegressions_Combined(t *testing.T) {
	base := newRecord("base", withTPS(1000), withDropRate(0), withP90("rpc", 10))
	cand := newRecord("cand", withTPS(800), withDropRate(0.1), withP90("rpc", 20))

	assert.Equal(t,
		"⚠️ achieved -20.0%, drop +10.0pp, rpc p90 +100.0%",
		RegressionNote(base, cand, "rpc"),
	)
}

func TestRegressionNote_NoneIsEmpty(t *testing.T) {
	base := newRecord("base", withTPS(1000))

	assert.Empty(t, RegressionNote(base, base, "rpc"))
	assert.Empty(t, FormatRegressions(nil))
}
