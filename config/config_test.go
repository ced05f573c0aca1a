package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/egaotan/honorary-quote-fee/program"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, LedgerPath, cfg.Ledger)
	assert.Equal(t, program.HonoraryQuoteFee, cfg.Program)
	assert.Equal(t, program.CpAmm, cfg.CpAmmProgram)
	assert.Equal(t, DefaultSchedule, cfg.Keeper.Schedule)
	assert.Equal(t, DefaultPageSize, cfg.Keeper.PageSize)
	assert.Equal(t, DefaultRetries, cfg.Keeper.Retries)
	assert.Equal(t, DefaultListen, cfg.Listen)
	assert.Equal(t, "", cfg.LogDir())

	assert.EqualError(t, cfg.Validate(), "accounts.pool is required")
}

func TestLoad_SaveAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := &Config{
		WorkSpace: "/var/quotefee",
		Rpc:       "http://file",
		DBPasswd:  "file",
		Authority: solana.NewWallet().PublicKey(),
		Accounts: Accounts{
			Pool:      solana.NewWallet().PublicKey(),
			QuoteMint: solana.NewWallet().PublicKey(),
			Streams:   []solana.PublicKey{solana.NewWallet().PublicKey()},
		},
		Policy: Policy{InvestorFeeShareBps: 5_000, Y0: 1_000_000},
		Keeper: Keeper{PageSize: 4},
	}
	require.NoError(t, cfg.Save(path))

	t.Setenv("QUOTEFEE_RPC", "http://env")
	t.Setenv("QUOTEFEE_DB_PASSWD", "secret")
	t.Setenv("QUOTEFEE_DING_URL", "http://ding")
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://env", loaded.Rpc)
	assert.Equal(t, "secret", loaded.DBPasswd)
	assert.Equal(t, "http://ding", loaded.DingUrl)
	assert.Equal(t, cfg.Accounts, loaded.Accounts)
	assert.Equal(t, cfg.Policy, loaded.Policy)
	assert.Equal(t, 4, loaded.Keeper.PageSize)
	assert.Equal(t, "/var/quotefee/logs/", loaded.LogDir())
	assert.NoError(t, loaded.Validate())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Authority: solana.NewWallet().PublicKey(),
			Accounts: Accounts{
				Pool:      solana.NewWallet().PublicKey(),
				QuoteMint: solana.NewWallet().PublicKey(),
			},
			Policy: Policy{InvestorFeeShareBps: 10_000, Y0: 1},
			Keeper: Keeper{PageSize: 1},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"quote mint", func(c *Config) { c.Accounts.QuoteMint = solana.PublicKey{} }, "accounts.quote_mint is required"},
		{"authority", func(c *Config) { c.Authority = solana.PublicKey{} }, "authority is required"},
		{"share", func(c *Config) { c.Policy.InvestorFeeShareBps = 10_001 }, "policy.investor_fee_share_bps must be <= 10000"},
		{"y0", func(c *Config) { c.Policy.Y0 = 0 }, "policy.y0 must be positive"},
		{"page size", func(c *Config) { c.Keeper.PageSize = 0 }, "keeper.page_size must be positive"},
		{"retries", func(c *Config) { c.Keeper.Retries = -1 }, "keeper.retries must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.EqualError(t, c.Validate(), tt.want)
		})
	}
}

func TestLoad_BadJson(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0644))
	_, err := Load(path)
	assert.ErrorContains(t, err, "parse config")
}
