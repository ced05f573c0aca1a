package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/egaotan/honorary-quote-fee/program"
	"github.com/gagliardetto/solana-go"
)

var (
	LedgerPath = "./ledger/quotefee.db"
	LogPath    = "logs"
	ChainLog   = "chain"
	KeeperLog  = "keeper"
	ServerLog  = "server"
	StoreLog   = "store"
	NotifyLog  = "notify"
	BackendLog = "backend"
)

const (
	DefaultSchedule = "0 5 0 * * *"
	DefaultPageSize = 8
	DefaultRetries  = 3
	DefaultListen   = ":8080"
)

// Accounts are the externally created accounts a policy is wired to.
type Accounts struct {
	Pool               solana.PublicKey   `json:"pool"`
	QuoteMint          solana.PublicKey   `json:"quote_mint"`
	BaseMint           solana.PublicKey   `json:"base_mint"`
	QuoteVault         solana.PublicKey   `json:"quote_vault"`
	BaseVault          solana.PublicKey   `json:"base_vault"`
	CreatorQuoteAta    solana.PublicKey   `json:"creator_quote_ata"`
	Position           solana.PublicKey   `json:"position"`
	PositionNftMint    solana.PublicKey   `json:"position_nft_mint"`
	PositionNftAccount solana.PublicKey   `json:"position_nft_account"`
	QuoteTreasury      solana.PublicKey   `json:"quote_treasury"`
	BaseFeeCheck       solana.PublicKey   `json:"base_fee_check"`
	Streams            []solana.PublicKey `json:"streams"`
}

type Policy struct {
	InvestorFeeShareBps uint16 `json:"investor_fee_share_bps"`
	Y0                  uint64 `json:"y0"`
	DailyCapQuote       uint64 `json:"daily_cap_quote"`
	MinPayoutLamports   uint64 `json:"min_payout_lamports"`
}

type Keeper struct {
	Schedule string `json:"schedule"`
	PageSize int    `json:"page_size"`
	Retries  int    `json:"retries"`
}

type Config struct {
	WorkSpace    string           `json:"workspace"`
	Ledger       string           `json:"ledger"`
	Rpc          string           `json:"rpc"`
	Program      solana.PublicKey `json:"program"`
	CpAmmProgram solana.PublicKey `json:"cp_amm_program"`
	Payer        solana.PublicKey `json:"payer"`
	Authority    solana.PublicKey `json:"authority"`
	Cranker      solana.PublicKey `json:"cranker"`
	Accounts     Accounts         `json:"accounts"`
	Policy       Policy           `json:"policy"`
	Keeper       Keeper           `json:"keeper"`
	Listen       string           `json:"listen"`
	DingUrl      string           `json:"ding-url"`
	QuoteSymbol  string           `json:"quote_symbol"`
	DBUrl        string           `json:"db_url"`
	DBScheme     string           `json:"db_scheme"`
	DBUser       string           `json:"db_user"`
	DBPasswd     string           `json:"db_passwd"`
}

// Load reads the json config at path, then applies environment overrides and
// defaults. A missing file yields a config of defaults only.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if v := os.Getenv("QUOTEFEE_RPC"); v != "" {
		cfg.Rpc = v
	}
	if v := os.Getenv("QUOTEFEE_DB_PASSWD"); v != "" {
		cfg.DBPasswd = v
	}
	if v := os.Getenv("QUOTEFEE_DING_URL"); v != "" {
		cfg.DingUrl = v
	}
	if v := os.Getenv("QUOTEFEE_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Keeper.PageSize = n
		}
	}

	if cfg.Ledger == "" {
		cfg.Ledger = LedgerPath
	}
	if cfg.Program.IsZero() {
		cfg.Program = program.HonoraryQuoteFee
	}
	if cfg.CpAmmProgram.IsZero() {
		cfg.CpAmmProgram = program.CpAmm
	}
	if cfg.Keeper.Schedule == "" {
		cfg.Keeper.Schedule = DefaultSchedule
	}
	if cfg.Keeper.PageSize == 0 {
		cfg.Keeper.PageSize = DefaultPageSize
	}
	if cfg.Keeper.Retries == 0 {
		cfg.Keeper.Retries = DefaultRetries
	}
	if cfg.Listen == "" {
		cfg.Listen = DefaultListen
	}
	if cfg.QuoteSymbol == "" {
		cfg.QuoteSymbol = "USDC"
	}
	return cfg, nil
}

// Save writes cfg back as indented json.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Accounts.Pool.IsZero() {
		return fmt.Errorf("accounts.pool is required")
	}
	if c.Accounts.QuoteMint.IsZero() {
		return fmt.Errorf("accounts.quote_mint is required")
	}
	if c.Authority.IsZero() {
		return fmt.Errorf("authority is required")
	}
	if c.Policy.InvestorFeeShareBps > 10_000 {
		return fmt.Errorf("policy.investor_fee_share_bps must be <= 10000")
	}
	if c.Policy.Y0 == 0 {
		return fmt.Errorf("policy.y0 must be positive")
	}
	if c.Keeper.PageSize <= 0 {
		return fmt.Errorf("keeper.page_size must be positive")
	}
	if c.Keeper.Retries < 0 {
		return fmt.Errorf("keeper.retries must not be negative")
	}
	return nil
}

// LogDir is where component logs go; empty means stdout.
func (c *Config) LogDir() string {
	if c.WorkSpace == "" {
		return ""
	}
	return filepath.Join(c.WorkSpace, LogPath) + string(filepath.Separator)
}
