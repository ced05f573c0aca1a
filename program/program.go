package program

import "github.com/gagliardetto/solana-go"

var (
	HonoraryQuoteFee = solana.MustPublicKeyFromBase58("XtMjQgjK3LtpuYqBcZXZoxiQknwGu5xzPBsFkR3ZFR4")
	CpAmm            = solana.MustPublicKeyFromBase58("cpamdpZCGKUy5JxQXB4dcpGPiikHawvSWAd6mEn1sGG")
	CpAmmAuthority   = solana.MustPublicKeyFromBase58("HLnpSz9h2S4hiLQ43rnSD9XkcUThA7B8hQMKmDaiTLcC")
	CpAmmEvent       = solana.MustPublicKeyFromBase58("3rmHSu74h1ZcmAisVcWerTCiRDQbUrBKmcwptYGjHfet")
	Streamflow       = solana.MustPublicKeyFromBase58("strmRqUCoQUgGUan5YhzUZa6KqdzwX5L6FpUxfmKg5m")
	Token            = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	System           = solana.MustPublicKeyFromBase58("11111111111111111111111111111111")
	SysRent          = solana.MustPublicKeyFromBase58("SysvarRent111111111111111111111111111111111")
)

