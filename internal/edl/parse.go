// Package edl parses the text a Pro Tools session exports through "Export
// Session Info as Text" into a Session.
//
// The export has no schema. Sections open with letter-spaced banners, end
// with a run of two blank lines, and the boundary between a track's fields
// and its event table is known only from line counts. A Parser recovers that
// structure in one pass, one line at a time, and stops at the first line it
// cannot account for.
package edl

import (
	"bufio"
	"io"
	"iter"
	"log/slog"
	"strings"
)

const maxLineSize = 4 * 1024 * 1024

type Options struct {
	// Logger receives debug records for skipped lines. Nil discards them.
	Logger *slog.Logger
	// Strict turns lines no rule accounts for into UnexpectedLine errors
	// instead of skipping them.
	Strict bool
}

// Parser consumes decoded lines in order. A Parser is not safe for concurrent
// use; parse separate files with separate parsers.
type Parser struct {
	opts Options
	log  *slog.Logger
	st   state
	asm  *assembler
	err  error
	done bool
}

func NewParser(opts Options) *Parser {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Parser{opts: opts, log: log, asm: newAssembler(log)}
}

// Feed processes the next line. After the first error every later call
// returns the same error.
func (p *Parser) Feed(line string) error {
	if p.done {
		return ErrFinished
	}
	if p.err != nil {
		return p.err
	}

	lineNo := p.st.filePos + 1
	raw := rowLine(line)
	trimmed := strings.TrimSpace(raw)
	var cells []string
	if trimmed != "" {
		cells = splitCells(raw)
	}

	d, ok := p.st.classify(trimmed, len(cells))
	p.st.filePos++
	if !ok {
		if p.opts.Strict {
			return p.fail(&ParseError{Kind: UnexpectedLine}, lineNo, raw, p.st.section)
		}
		p.asm.session.SkippedLines++
		p.log.Debug("skipping unclassified line",
			"line", lineNo, "section", p.st.section.String(), "cells", len(cells))
		return nil
	}
	if d.reset {
		p.asm.flushTrack()
	}
	if d.skip {
		return nil
	}

	pos := p.st.advance()
	var err error
	switch d.section {
	case SectionHeader, SectionTrackListing:
		err = p.asm.field(d.section, raw, lineNo)
	default:
		header := pos == 1
		if d.section == SectionTrackEvent {
			header = pos == p.st.trackHeaderSize()+1
		}
		err = p.asm.row(d.section, cells, header, lineNo)
	}
	if err != nil {
		return p.fail(err, lineNo, raw, d.section)
	}
	return nil
}

// Finish closes any open track and returns the session. No session is
// returned once Feed has failed.
func (p *Parser) Finish() (*Session, error) {
	if p.err != nil {
		return nil, p.err
	}
	if p.done {
		return nil, ErrFinished
	}
	p.done = true
	p.asm.flushTrack()
	s := p.asm.session
	return &s, nil
}

func (p *Parser) fail(err error, lineNo int, raw string, sec Section) error {
	if pe, ok := err.(*ParseError); ok {
		pe.Line = lineNo
		pe.Text = raw
		if pe.Section == SectionNone {
			pe.Section = sec
		}
	}
	p.err = err
	return err
}

// Parse runs a fresh Parser over lines.
func Parse(lines iter.Seq[string], opts Options) (*Session, error) {
	p := NewParser(opts)
	for line := range lines {
		if err := p.Feed(line); err != nil {
			return nil, err
		}
	}
	return p.Finish()
}

// ParseReader parses already decoded text read from r.
func ParseReader(r io.Reader, opts Options) (*Session, error) {
	p := NewParser(opts)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		if err := p.Feed(scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return p.Finish()
}
