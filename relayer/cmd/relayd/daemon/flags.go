package daemon

const (
	homeFlag            = "home"
	forceFlag           = "force"
	signerAccountFlag   = "signer-account"
	contractAccountFlag = "contract-account"
	rpcAddrFlag         = "rpc-addr"
	generateKeyFlag     = "generate-key"
	paramsFileFlag      = "params"
	lastSlotFlag        = "last-slot"
	fileFlag            = "file"
	startSlotFlag       = "start-slot"
	endSlotFlag         = "end-slot"
	periodFlag          = "period"
	expectedRootFlag    = "expected-header-root"
)
