package vcd

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

type eventKind int

const (
	evDeclaration eventKind = iota
	evTimescale
	evTimestamp
	evChange
)

type event struct {
	kind   eventKind
	decl   Declaration
	text   string
	time   uint64
	symbol string
	value  Value
}

// lexer splits a trace into header and body events. Tokens are whitespace
// separated, so several changes on one line and keyword blocks spanning
// lines are both handled.
type lexer struct {
	sc   *bufio.Scanner
	time uint64
}

const maxTokenSize = 1 << 20

func newLexer(r io.Reader) *lexer {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxTokenSize)
	sc.Split(bufio.ScanWords)
	return &lexer{sc: sc}
}

// err returns the first read error, if any.
func (l *lexer) err() error { return l.sc.Err() }

// next returns the next event, or false at end of input.
func (l *lexer) next() (event, bool) {
	for l.sc.Scan() {
		tok := l.sc.Text()
		switch c := tok[0]; {
		case c == '$':
			if ev, ok := l.keyword(tok); ok {
				return ev, true
			}
		case c == '#':
			// A marker whose number does not parse still separates batches.
			if t, err := strconv.ParseUint(tok[1:], 10, 64); err == nil {
				l.time = t
			}
			return event{kind: evTimestamp, time: l.time}, true
		case c == 'b' || c == 'B':
			if !l.sc.Scan() {
				return event{}, false
			}
			return event{kind: evChange, symbol: l.sc.Text(), value: ParseVector(tok[1:])}, true
		case c == 'r' || c == 'R':
			// Real-valued changes are not modelled.
			if !l.sc.Scan() {
				return event{}, false
			}
			return event{kind: evChange, symbol: l.sc.Text(), value: Unknown}, true
		default:
			v, ok := ParseScalar(c)
			if !ok || len(tok) < 2 {
				continue
			}
			return event{kind: evChange, symbol: tok[1:], value: v}, true
		}
	}
	return event{}, false
}

func (l *lexer) keyword(tok string) (event, bool) {
	switch tok {
	case "$var":
		d, ok := parseDeclaration(l.block())
		if !ok {
			return event{}, false
		}
		return event{kind: evDeclaration, decl: d}, true
	case "$timescale":
		return event{kind: evTimescale, text: strings.Join(l.block(), " ")}, true
	case "$dumpvars", "$dumpall", "$dumpon", "$dumpoff", "$end":
		// Sections whose bodies are ordinary value changes.
		return event{}, false
	default:
		l.block()
		return event{}, false
	}
}

// block consumes tokens up to and including the next "$end".
func (l *lexer) block() []string {
	var fields []string
	for l.sc.Scan() {
		tok := l.sc.Text()
		if tok == "$end" {
			break
		}
		fields = append(fields, tok)
	}
	return fields
}

// parseDeclaration reads "<kind> <width> <symbol> <reference> [range]".
func parseDeclaration(fields []string) (Declaration, bool) {
	if len(fields) < 4 {
		return Declaration{}, false
	}
	width, err := strconv.Atoi(fields[1])
	if err != nil || width < 0 {
		return Declaration{}, false
	}
	return Declaration{
		Kind:   fields[0],
		Width:  width,
		Symbol: fields[2],
		Name:   StripRange(fields[3]),
	}, true
}
