package core

import (
	"errors"
	"fmt"
)

const traceDepth = 64

// Trace keeps the most recent pipeline steps as formatted lines for
// the monitor. It is a simple bounded FIFO.
type Trace struct {
	items   []string
	size    int
	maxSize int
}

// NewTrace creates an empty trace of the given depth.
func NewTrace(maxSize int) *Trace {
	t := &Trace{}
	t.maxSize = maxSize
	return t
}

// Record formats and appends a step result, dropping the oldest line
// when full.
func (t *Trace) Record(res StepResult) {
	if !res.Ran {
		return
	}
	line := fmt.Sprintf("%08X  %s", res.PC, Disassemble(res.Instr, res.Bytes))
	if res.HasEA {
		line += fmt.Sprintf("  ea=%08X", res.EA)
	}
	if res.Fault != nil {
		line += "  ! " + res.Fault.Error()
	}
	t.push(line)
}

func (t *Trace) push(item string) {
	if t.size == t.maxSize {
		t.pop()
	}
	t.items = append(t.items, item)
	t.size++
}

func (t *Trace) pop() (string, error) {
	if t.size == 0 {
		return "", errors.New("trace is empty")
	}
	front := t.items[0]
	t.items = t.items[1:]
	t.size--
	return front, nil
}

// Lines returns the buffered lines, oldest first.
func (t *Trace) Lines() []string {
	out := make([]string, len(t.items))
	copy(out, t.items)
	return out
}

// IsEmpty checks if the trace holds no lines.
func (t *Trace) IsEmpty() bool {
	return t.size == 0
}
