package types

// TxResponse describes a transaction the ledger reported as committed.
type TxResponse struct {
	TxHash string
	// Nonce the transaction was signed with.
	Nonce uint64
	// SuccessValue is the raw return value of the last call, if any.
	SuccessValue []byte
	Logs         []string
}
