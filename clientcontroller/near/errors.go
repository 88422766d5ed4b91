package near

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	errorsmod "cosmossdk.io/errors"
	ethrpc "github.com/ethereum/go-ethereum/rpc"

	"github.com/eth2near/relayer/types"
)

// JSON-RPC protocol level error codes, these mean the request never reached
// the ledger.
var protocolErrorCodes = map[int]struct{}{
	-32700: {}, // parse error
	-32600: {}, // invalid request
	-32601: {}, // method not found
	-32603: {}, // internal error
}

// classifyError maps an RPC failure onto the relayer error codes. Anything
// that is not a JSON-RPC error response is a transport failure.
func classifyError(method string, err error) error {
	var rpcErr ethrpc.Error
	if !errors.As(err, &rpcErr) {
		return errorsmod.Wrapf(types.ErrRPC, "%s: %v", method, err)
	}

	detail := rpcErr.Error()
	var dataErr ethrpc.DataError
	if errors.As(err, &dataErr) && dataErr.ErrorData() != nil {
		if bz, mErr := json.Marshal(dataErr.ErrorData()); mErr == nil {
			detail = fmt.Sprintf("%s: %s", detail, bz)
		}
	}

	switch {
	case strings.Contains(detail, "InvalidNonce"):
		return errorsmod.Wrapf(types.ErrNonceConflict, "%s: %s", method, detail)
	case strings.Contains(detail, "Timeout"), strings.Contains(detail, "TIMEOUT"):
		return errorsmod.Wrapf(types.ErrRPC, "%s: %s", method, detail)
	}

	if _, ok := protocolErrorCodes[rpcErr.ErrorCode()]; ok {
		return errorsmod.Wrapf(types.ErrRPC, "%s: %s", method, detail)
	}

	return errorsmod.Wrapf(types.ErrChainRejection, "%s: %s", method, detail)
}
