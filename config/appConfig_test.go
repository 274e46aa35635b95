package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gowalmart_seller/config"
)

func TestLoadConfig(t *testing.T) {
	tests := map[string]struct {
		content string

		want    config.WalmartConfig
		wantErr bool
	}{
		"flat json connector config": {
			content: `{"client_id": "id", "client_secret": "secret", "start_date": "2023-01-01"}`,
			want:    config.WalmartConfig{ClientID: "id", ClientSecret: "secret", StartDate: "2023-01-01"},
		},
		"nested yaml application config": {
			content: "walmart:\n  client_id: id\n  client_secret: secret\n  start_date: 2023-01-01\n  end_date: 2023-02-01\n  page_size: 50\n",
			want: config.WalmartConfig{
				ClientID: "id", ClientSecret: "secret",
				StartDate: "2023-01-01", EndDate: "2023-02-01", PageSize: 50,
			},
		},

		"malformed file errors": {content: "{not yaml", wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0o600), "Setup: write config")

			got, err := config.LoadConfig(path)
			if tc.wantErr {
				require.ErrorIs(t, err, config.ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got.Walmart)
			require.NotEmpty(t, got.Postgres.Host, "postgres defaults are filled in")
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := config.WalmartConfig{ClientID: "id", ClientSecret: "secret", StartDate: "2023-01-25"}

	tests := map[string]struct {
		mutate func(c *config.WalmartConfig)

		wantErr bool
	}{
		"valid without end date":  {},
		"valid with end date":     {mutate: func(c *config.WalmartConfig) { c.EndDate = "2023-03-01" }},
		"end date equal to start": {mutate: func(c *config.WalmartConfig) { c.EndDate = c.StartDate }},

		"missing client id":        {mutate: func(c *config.WalmartConfig) { c.ClientID = " " }, wantErr: true},
		"missing client secret":    {mutate: func(c *config.WalmartConfig) { c.ClientSecret = "" }, wantErr: true},
		"missing start date":       {mutate: func(c *config.WalmartConfig) { c.StartDate = "" }, wantErr: true},
		"datetime is not a date":   {mutate: func(c *config.WalmartConfig) { c.StartDate = "2023-01-25T00:00:00Z" }, wantErr: true},
		"impossible calendar date": {mutate: func(c *config.WalmartConfig) { c.StartDate = "2023-02-30" }, wantErr: true},
		"end before start":         {mutate: func(c *config.WalmartConfig) { c.EndDate = "2022-12-31" }, wantErr: true},
		"negative page size":       {mutate: func(c *config.WalmartConfig) { c.PageSize = -1 }, wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			c := valid
			if tc.mutate != nil {
				tc.mutate(&c)
			}
			err := c.Validate()
			if tc.wantErr {
				require.ErrorIs(t, err, config.ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestDatesAndDefaults(t *testing.T) {
	t.Parallel()

	c := config.WalmartConfig{StartDate: "2023-01-25", ApiURL: "http://localhost:1234/v3"}

	require.Equal(t, time.Date(2023, 1, 25, 0, 0, 0, 0, time.UTC), c.Start())
	_, ok := c.End()
	require.False(t, ok, "end date is optional")
	require.Equal(t, "http://localhost:1234/v3/", c.BaseURL())
	require.Equal(t, config.DefaultRequestsPerMinute, c.RateLimit())

	c.EndDate = "2023-02-01"
	end, ok := c.End()
	require.True(t, ok)
	require.Equal(t, time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC), end)
	require.Equal(t, config.DefaultApiURL, config.WalmartConfig{}.BaseURL())
}

func TestPostgresConnectionString(t *testing.T) {
	t.Parallel()

	pc := config.PostgresConfig{Host: "db", Port: "5433", User: "u", Password: "p", DBName: "walmart"}
	require.Equal(t, "host=db port=5433 user=u password=p dbname=walmart sslmode=disable", pc.GetConnectionString())
}
