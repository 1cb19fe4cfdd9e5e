package models

import "errors"

// ErrorCode is the tagged-outcome vocabulary shared by the risk engine,
// the matching engine and the gateway. It is never used as a panic
// value across module boundaries — callers receive it inside a Result.
type ErrorCode string

const (
	ErrNone ErrorCode = ""

	// Validation
	ErrMissingField       ErrorCode = "MISSING_FIELD"
	ErrInvalidSide        ErrorCode = "INVALID_SIDE"
	ErrInvalidOrderType   ErrorCode = "INVALID_ORDER_TYPE"
	ErrLimitPriceRequired ErrorCode = "LIMIT_PRICE_REQUIRED"
	ErrInvalidLotSize     ErrorCode = "INVALID_LOT_SIZE"
	ErrSymbolNotSupported ErrorCode = "SYMBOL_NOT_SUPPORTED"
	ErrContractMetaNotFound ErrorCode = "CONTRACT_META_NOT_FOUND"
	ErrMarketClosed       ErrorCode = "MARKET_CLOSED"

	// Risk
	ErrAccountNotFound   ErrorCode = "ACCOUNT_NOT_FOUND"
	ErrAccountInactive   ErrorCode = "ACCOUNT_INACTIVE"
	ErrMaxLotSize        ErrorCode = "MAX_LOT_SIZE"
	ErrMaxLoss           ErrorCode = "MAX_LOSS"
	ErrTrailingDrawdown  ErrorCode = "TRAILING_DRAWDOWN"
	ErrDailyLossLimit    ErrorCode = "DAILY_LOSS_LIMIT"
	ErrMaxIntradayLoss   ErrorCode = "MAX_INTRADAY_LOSS"

	// Operational
	ErrNoLivePrice     ErrorCode = "NO_LIVE_PRICE"
	ErrDuplicateOrder  ErrorCode = "DUPLICATE_ORDER"
	ErrRiskEngineError ErrorCode = "RISK_ENGINE_ERROR"
)

// ErrInvalidInstrument is an infrastructure-level boot error, not part
// of the request-scoped ErrorCode taxonomy.
var ErrInvalidInstrument = errors.New("models: instrument fails validation invariants")

// Result is the tagged outcome returned by business-logic paths
// instead of an error thrown across a module boundary.
type Result struct {
	OK    bool
	Code  ErrorCode
	Err   error
}

// Ok builds a successful Result.
func Ok() Result { return Result{OK: true} }

// Fail builds a failed Result carrying a tagged code.
func Fail(code ErrorCode) Result { return Result{OK: false, Code: code} }

// FailErr builds a failed Result wrapping an infrastructure error
// alongside its tagged code (RISK_ENGINE_ERROR, typically).
func FailErr(code ErrorCode, err error) Result { return Result{OK: false, Code: code, Err: err} }
