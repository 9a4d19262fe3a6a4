package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/opmeter/internal/app"
	"github.com/vk/opmeter/internal/stat"
)

func TestParse(t *testing.T) {
	t.Run("positional and flag paths", func(t *testing.T) {
		var out bytes.Buffer
		cfg, exit, err := Parse([]string{"-g", "a.hcl", "-facets", "cal, ittp", "-rebase", "2.1", "b", "c"}, &out)
		require.NoError(t, err)
		require.False(t, exit)

		assert.Equal(t, []string{"a.hcl", "b", "c"}, cfg.GraphPaths)
		assert.Equal(t, []stat.Kind{stat.KindCal, stat.KindIttp}, cfg.Facets)
		assert.Equal(t, "2.1", cfg.Rebase)
		assert.Equal(t, "text", cfg.LogFormat)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, app.Overrides{}, cfg.Overrides)
	})

	t.Run("explicit overrides", func(t *testing.T) {
		cfg, _, err := Parse([]string{"-fold=false", "-repeat", "3", "-graph", "x.hcl"}, &bytes.Buffer{})
		require.NoError(t, err)

		require.NotNil(t, cfg.Overrides.FoldRepeat)
		assert.False(t, *cfg.Overrides.FoldRepeat)
		require.NotNil(t, cfg.Overrides.BenchmarkRepeat)
		assert.Equal(t, 3, *cfg.Overrides.BenchmarkRepeat)
		assert.Nil(t, cfg.Overrides.Warmup)
	})

	t.Run("no path prints usage", func(t *testing.T) {
		var out bytes.Buffer
		cfg, exit, err := Parse(nil, &out)
		require.NoError(t, err)
		assert.True(t, exit)
		assert.Nil(t, cfg)
		assert.Contains(t, out.String(), "Usage:")
	})

	t.Run("help", func(t *testing.T) {
		_, exit, err := Parse([]string{"-h"}, &bytes.Buffer{})
		require.NoError(t, err)
		assert.True(t, exit)
	})
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name string
		args []string
		want string
	}{
		{"unknown flag", []string{"-nope", "x"}, "flag provided but not defined"},
		{"log format", []string{"-log-format", "xml", "x"}, "invalid log-format"},
		{"log level", []string{"-log-level", "loud", "x"}, "invalid log-level"},
		{"facet", []string{"-facets", "param,speed", "x"}, "unknown statistic facet"},
		{"repeat", []string{"-repeat", "0", "x"}, "benchmark repeat must be >= 1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Parse(tc.args, &bytes.Buffer{})
			var exitErr *ExitError
			require.True(t, errors.As(err, &exitErr), "expected ExitError, got %v", err)
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.want)
		})
	}
}
