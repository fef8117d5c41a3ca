package constants

import (
	"github.com/go-playground/validator/v10"
)

type ContextKey string

const (
	AppKey       ContextKey = "app"
	TxKey        ContextKey = "tx"
	PoolKey      ContextKey = "pool"
	LoggerKey    ContextKey = "logger"
	ParamsKey    ContextKey = "params"
	ActorKey     ContextKey = "actor"
	RequestStart ContextKey = "request_start"
)

var Validate = validator.New(validator.WithRequiredStructEnabled())
