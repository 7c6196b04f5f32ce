package gen

import (
	"fmt"
	"go/token"
)

// ConfigError is a rewrite-time configuration error: the directive and the
// function it annotates can never produce a working wrapper. It carries the
// source position of the offending construct and renders in the familiar
// file:line:col form so editors can jump to it.
type ConfigError struct {
	Pos token.Position
	Msg string
}

func (e *ConfigError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
	}
	return e.Msg
}

func configErrorf(pos token.Position, format string, args ...any) *ConfigError {
	return &ConfigError{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}
