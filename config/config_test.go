package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, []string{"en"}, cfg.Languages)
	assert.Equal(t, Coefficients{Relevance: 20, DueDate: 4, Priority: 1, Status: 1}, cfg.Coefficients)
	assert.Equal(t, 5, cfg.ExpansionsPerLanguage)
	assert.Equal(t, 0.7, cfg.VaguenessThreshold)
	assert.Equal(t, 0.7, cfg.ConfidenceThreshold)
	assert.Equal(t, 20, cfg.MaxDirectResults)
	assert.Equal(t, 100, cfg.MaxSummaryResults)
	assert.Equal(t, []Criterion{ByDueDate, ByPriority, ByStatus, ByCreated, ByAlphabetical}, cfg.TieBreak)
	assert.Equal(t, 8*time.Second, cfg.AITimeout)
	assert.NoError(t, cfg.Validate())
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		assert.Equal(t, DefaultConfig(), NewConfig())
	})

	t.Run("with options", func(t *testing.T) {
		cfg := NewConfig(
			WithLanguages("en", "zh"),
			WithCoefficients(Coefficients{Relevance: 10, DueDate: 2, Priority: 3, Status: 0.5}),
			WithExpansionsPerLanguage(3),
			WithVaguenessThreshold(0.6),
			WithConfidenceThreshold(0.5),
			WithResultCaps(5, 50),
			WithTieBreak(ByPriority, ByDueDate),
			WithAITimeout(time.Second),
			WithAIDisabled(),
		)

		assert.Equal(t, []string{"en", "zh"}, cfg.Languages)
		assert.Equal(t, 10.0, cfg.Coefficients.Relevance)
		assert.Equal(t, 3, cfg.ExpansionsPerLanguage)
		assert.Equal(t, 6, cfg.MaxExpansionsPerKeyword())
		assert.Equal(t, 0.6, cfg.VaguenessThreshold)
		assert.Equal(t, 0.5, cfg.ConfidenceThreshold)
		assert.Equal(t, 5, cfg.MaxDirectResults)
		assert.Equal(t, 50, cfg.MaxSummaryResults)
		assert.Equal(t, []Criterion{ByPriority, ByDueDate}, cfg.TieBreak)
		assert.Equal(t, time.Second, cfg.AITimeout)
		assert.True(t, cfg.DisableAI)
		assert.NoError(t, cfg.Validate())
	})
}

func TestClone(t *testing.T) {
	cfg := NewConfig(WithLanguages("en", "de"))
	c := cfg.Clone()
	c.Languages[0] = "fr"
	c.TieBreak[0] = ByStatus
	assert.Equal(t, "en", cfg.Languages[0])
	assert.Equal(t, ByDueDate, cfg.TieBreak[0])
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"no languages", func(c *Config) { c.Languages = nil }, "at least one language"},
		{"duplicate language", func(c *Config) { c.Languages = []string{"en", "EN"} }, "listed twice"},
		{"zero coefficient", func(c *Config) { c.Coefficients.Priority = 0 }, "coefficient priority"},
		{"negative coefficient", func(c *Config) { c.Coefficients.Relevance = -1 }, "coefficient relevance"},
		{"infinite coefficient", func(c *Config) { c.Coefficients.DueDate = math.Inf(1) }, "coefficient dueDate"},
		{"nan coefficient", func(c *Config) { c.Coefficients.Status = math.NaN() }, "coefficient status"},
		{"negative expansions", func(c *Config) { c.ExpansionsPerLanguage = -1 }, "expansionsPerLanguage"},
		{"vagueness zero", func(c *Config) { c.VaguenessThreshold = 0 }, "vaguenessThreshold"},
		{"confidence above one", func(c *Config) { c.ConfidenceThreshold = 1.2 }, "confidenceThreshold"},
		{"direct cap", func(c *Config) { c.MaxDirectResults = 0 }, "maxDirectResults"},
		{"summary cap", func(c *Config) { c.MaxSummaryResults = -3 }, "maxSummaryResults"},
		{"ai timeout", func(c *Config) { c.AITimeout = 0 }, "aiTimeout"},
		{"relevance tie-break", func(c *Config) { c.TieBreak = []Criterion{ByRelevance} }, "relevance is not a valid"},
		{"unknown tie-break", func(c *Config) { c.TieBreak = []Criterion{"color"} }, "unknown tie-break"},
		{"duplicate tie-break", func(c *Config) { c.TieBreak = []Criterion{ByPriority, ByPriority} }, "listed twice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("disabled ai needs no timeout", func(t *testing.T) {
		cfg := NewConfig(WithAIDisabled(), WithAITimeout(0))
		assert.NoError(t, cfg.Validate())
	})

	t.Run("reports every problem", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Coefficients = Coefficients{}
		var verr *ValidationError
		require.ErrorAs(t, cfg.Validate(), &verr)
		assert.Len(t, verr.Problems, 4)
	})
}

func TestRepair(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Languages = []string{"EN", "en", " zh "}
	cfg.Coefficients.Priority = -2
	cfg.VaguenessThreshold = 3
	cfg.MaxDirectResults = 0
	cfg.TieBreak = []Criterion{ByRelevance, ByPriority, ByPriority, ByDueDate}

	fixed, changes := cfg.Repair()
	require.NoError(t, fixed.Validate())

	assert.Equal(t, []string{"en", "zh"}, fixed.Languages)
	assert.Equal(t, 1.0, fixed.Coefficients.Priority)
	assert.Equal(t, 0.7, fixed.VaguenessThreshold)
	assert.Equal(t, 20, fixed.MaxDirectResults)
	assert.Equal(t, []Criterion{ByPriority, ByDueDate}, fixed.TieBreak)

	fields := map[string]int{}
	for _, c := range changes {
		fields[c.Field]++
	}
	assert.Equal(t, 1, fields["languages"])
	assert.Equal(t, 1, fields["coefficients.priority"])
	assert.Equal(t, 1, fields["vaguenessThreshold"])
	assert.Equal(t, 1, fields["maxDirectResults"])
	assert.Equal(t, 2, fields["tieBreak"])

	assert.Equal(t, -2.0, cfg.Coefficients.Priority, "receiver is not modified")

	t.Run("valid config is unchanged", func(t *testing.T) {
		fixed, changes := DefaultConfig().Repair()
		assert.Empty(t, changes)
		assert.Equal(t, DefaultConfig(), fixed)
	})
}

func TestParseCriterion(t *testing.T) {
	tests := map[string]Criterion{
		"dueDate":      ByDueDate,
		"due_date":     ByDueDate,
		"Priority":     ByPriority,
		"status":       ByStatus,
		"created":      ByCreated,
		"alpha":        ByAlphabetical,
		"relevance":    ByRelevance,
		"mystery key":  Criterion("mystery-key"),
		"alphabetical": ByAlphabetical,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseCriterion(in), in)
	}
}

func TestLoad(t *testing.T) {
	doc := `
languages: [en, zh]
coefficients:
  relevance: 10
expansionsPerLanguage: 2
confidenceThreshold: 0.5
tieBreak: [priority, dueDate, alpha]
aiTimeout: 3s
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"en", "zh"}, cfg.Languages)
	assert.Equal(t, 10.0, cfg.Coefficients.Relevance)
	assert.Equal(t, 4.0, cfg.Coefficients.DueDate, "unset fields keep defaults")
	assert.Equal(t, 2, cfg.ExpansionsPerLanguage)
	assert.Equal(t, 0.5, cfg.ConfidenceThreshold)
	assert.Equal(t, 0.7, cfg.VaguenessThreshold)
	assert.Equal(t, []Criterion{ByPriority, ByDueDate, ByAlphabetical}, cfg.TieBreak)
	assert.Equal(t, 3*time.Second, cfg.AITimeout)
	assert.NoError(t, cfg.Validate())

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := Parse([]byte("languages: [en\n"))
		assert.Error(t, err)
	})
}
