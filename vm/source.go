package vm

import (
	"fmt"

	"go.uber.org/zap/zapcore"
)

// Source is where an instruction came from. It is only used in fault
// messages and traces.
type Source struct {
	File string
	Line uint32
}

func NewSource(file string, line uint32) Source {
	return Source{File: file, Line: line}
}

func (s Source) String() string {
	return fmt.Sprintf("%s:%d", s.File, s.Line)
}

func (s Source) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("file", s.File)
	enc.AddUint32("line", s.Line)
	return nil
}
