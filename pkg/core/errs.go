package core

import "errors"

var (
	ErrSymbolNotFound   = errors.New("symbol not found")
	ErrAmbiguousSymbol  = errors.New("query matches more than one symbol")
	ErrPriceUnavailable = errors.New("no price available for symbol")
	ErrInvalidPrice     = errors.New("invalid price")
	ErrUserNotFound     = errors.New("user not found")
	ErrFeedFetchFailed  = errors.New("feed fetch failed")
)
