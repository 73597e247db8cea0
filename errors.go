package experiment

// Text codes attached to engine errors. Callers match on these rather than
// on message strings.
const (
	ErrCodeEmptyValues       = "EXPANSION_EMPTY_VALUES"
	ErrCodeEmptyConfigs      = "STRATEGY_EMPTY_CONFIGS"
	ErrCodeNotFound          = "EXPERIMENT_NOT_FOUND"
	ErrCodeAlreadyRegistered = "EXPERIMENT_ALREADY_REGISTERED"
	ErrCodeNilFunction       = "NIL_EXPERIMENT_FUNC"
	ErrCodeBindFailed        = "CONFIG_BIND_FAILED"
	ErrCodeBadBindPath       = "CONFIG_BIND_PATH_INVALID"
	ErrCodeInvalidInput      = "INVALID_INPUT"
)
