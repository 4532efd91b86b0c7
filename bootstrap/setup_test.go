package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/va6996/tsetools/config"
)

func TestSetup_WithoutModel(t *testing.T) {
	cfg := &config.Config{
		TSETMC: config.TSETMCConfig{BaseURL: "http://127.0.0.1:1/api"},
		AI:     config.AIConfig{Plugin: "none"},
	}

	app, err := Setup(context.Background(), cfg)
	require.NoError(t, err)

	assert.Nil(t, app.Model)
	assert.False(t, app.Analyst.Enabled())
	assert.True(t, app.Registry.Has("search_stock"))
	assert.True(t, app.Registry.Has("get_stock_info"))
	assert.True(t, app.Registry.Has("get_stock_history"))
}

func TestSetup_GeminiWithoutKey(t *testing.T) {
	cfg := &config.Config{AI: config.AIConfig{Plugin: "gemini"}}

	_, err := Setup(context.Background(), cfg)
	assert.Error(t, err)
}
