// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpp

import (
	"bytes"
	"fmt"
	"log/slog"
	"text/scanner"
	"time"

	"cogentcore.org/refactor/base/errors"
	"cogentcore.org/refactor/text/textpos"
)

// vaArgs is the parameter name of the variable arguments of a macro
// declared with a bare ellipsis.
const vaArgs = "__VA_ARGS__"

// DefaultMaxIncludeDepth is the default value of
// [Preprocessor.MaxIncludeDepth].
const DefaultMaxIncludeDepth = 200

// Preprocessor runs the directives of C source files against an
// [Environment], expands macros in the text, and reports what it does
// to a [Client].
type Preprocessor struct {

	// Env is the macro environment.
	Env *Environment

	// Client receives the events. It must not be nil; use [NopClient]
	// to ignore them.
	Client Client

	// Now returns the time used for __DATE__ and __TIME__.
	// It defaults to [time.Now].
	Now func() time.Time

	// MaxIncludeDepth is the maximum nesting of files being preprocessed.
	MaxIncludeDepth int

	// files is the stack of files being preprocessed.
	files []*fileState

	// once holds the files that contained #pragma once.
	once map[string]bool

	// err is the error that aborts the current run.
	err error
}

// NewPreprocessor returns a new [Preprocessor] for the given
// environment and client.
func NewPreprocessor(env *Environment, client Client) *Preprocessor {
	return &Preprocessor{Env: env, Client: client, Now: time.Now, MaxIncludeDepth: DefaultMaxIncludeDepth}
}

// Depth returns the number of files currently being preprocessed,
// which is 0 outside of [Preprocessor.Run].
func (pp *Preprocessor) Depth() int {
	return len(pp.files)
}

// Abort makes the runs in progress stop and return the given error
// as soon as possible. It is meant to be called by a [Client] from
// SourceNeeded when the included file cannot be processed.
func (pp *Preprocessor) Abort(err error) {
	if pp.err == nil && err != nil {
		pp.err = err
	}
}

// Run preprocesses the given source text as the given file, and returns
// the resulting text. Directive lines and skipped lines are replaced by
// empty lines so that line numbers are kept, and the output of nested
// runs started from SourceNeeded is inserted in place of the #include.
// Run may be called again from the client while it is running.
func (pp *Preprocessor) Run(fileName string, src []byte) ([]byte, error) {
	if pp.once[fileName] {
		slog.Debug("cpp: skipping #pragma once file", "file", fileName)
		return nil, nil
	}
	if pp.MaxIncludeDepth > 0 && len(pp.files) >= pp.MaxIncludeDepth {
		return nil, errors.Errorf("%s: #include nested more than %d levels", fileName, pp.MaxIncludeDepth)
	}
	toks, lexErrs := lex(src)
	for _, err := range lexErrs {
		slog.Debug("cpp: lex", "file", fileName, "err", err)
	}
	fs := &fileState{name: fileName, src: src, index: textpos.NewIndex(src), toks: toks}
	pp.files = append(pp.files, fs)
	prevFile, prevLine := pp.Env.CurrentFile, pp.Env.CurrentLine
	pp.Env.CurrentFile = fileName

	err := pp.process(fs)

	pp.files = pp.files[:len(pp.files)-1]
	pp.Env.CurrentFile, pp.Env.CurrentLine = prevFile, prevLine
	if err == nil {
		err = pp.err
	}
	if len(pp.files) == 0 {
		pp.err = nil
	}
	if err != nil {
		return nil, err
	}
	if len(pp.files) > 0 {
		pp.files[len(pp.files)-1].out.Write(fs.out.Bytes())
	}
	return fs.out.Bytes(), nil
}

// process runs all of the tokens of the given file.
func (pp *Preprocessor) process(fs *fileState) error {
	for fs.pos < len(fs.toks) {
		if pp.err != nil {
			return pp.err
		}
		t := fs.toks[fs.pos]
		pp.Env.CurrentLine = t.Line
		switch {
		case t.Kind == kindPunct && t.Text == "#" && fs.atLineStart(fs.pos):
			if err := pp.directive(fs); err != nil {
				if fs.skipping() {
					pp.Client.StopSkippingBlocks(fs.index.UTF16Offset(fs.done))
				}
				return err
			}
		case t.Kind == kindNewline:
			fs.pos++
		default:
			fs.guardToken()
			if t.Kind == scanner.Ident && !fs.skipping() {
				if err := pp.identifier(fs); err != nil {
					return err
				}
				continue
			}
			fs.pos++
		}
	}
	if len(fs.conds) > 0 {
		if fs.skipping() {
			fs.blankTo(len(fs.src))
			pp.Client.StopSkippingBlocks(fs.index.UTF16Offset(len(fs.src)))
		}
		return errors.Errorf("%s:%d: unterminated conditional directive", fs.name, fs.conds[len(fs.conds)-1].line)
	}
	fs.copyTo(len(fs.src))
	if fs.guard == guardEndif {
		pp.Client.MarkAsIncludeGuard(fs.guardName)
	}
	return nil
}

// identifier handles an identifier in the text, expanding it
// if it names a macro.
func (pp *Preprocessor) identifier(fs *fileState) error {
	t := fs.toks[fs.pos]
	u16 := fs.index.UTF16Offset(t.Offset)
	m := pp.Env.Resolve(t.Text)
	if m == nil {
		if IsBuiltinMacro(t.Text) {
			bt := pp.builtin(t.Text)
			bm := &Macro{Name: t.Text, Builtin: true, Tokens: []Token{bt}}
			pp.Client.StartExpandingMacro(t.Offset, u16, t.Line, bm, nil)
			fs.copyTo(t.Offset)
			fs.out.WriteString(bt.Text)
			fs.done = t.Offset + len(t.Text)
			pp.Client.StopExpandingMacro(fs.done, bm)
		}
		fs.pos++
		return nil
	}
	pp.Client.NotifyMacroReference(t.Offset, u16, t.Line, m)

	end := fs.pos + 1
	var args [][]Token
	var actuals []MacroArgumentReference
	if m.FunctionLike {
		open := fs.nextNonNewline(fs.pos + 1)
		if open >= len(fs.toks) || fs.toks[open].Kind != kindPunct || fs.toks[open].Text != "(" {
			fs.pos++
			return nil
		}
		var seps []Token
		var cls int
		args, seps, cls = collectArgs(fs.toks, open)
		if cls < 0 {
			return fs.errorf(t, "unterminated argument list invoking macro %q", m.Name)
		}
		actuals = fs.argumentReferences(args, seps)
		end = cls + 1
		pp.notifyArgumentReferences(fs, args)
	}
	last := fs.toks[end-1]
	stop := last.Offset + len(last.Text)

	pp.Client.StartExpandingMacro(t.Offset, u16, t.Line, m, actuals)
	exp, err := pp.expandMacro(m, args, nil)
	if err != nil {
		pp.Client.StopExpandingMacro(stop, m)
		return fs.errorf(t, "%w", err)
	}
	fs.copyTo(t.Offset)
	fs.out.WriteString(joinTokens(exp))
	// keep the line count of an invocation spanning lines
	fs.out.Write(bytes.Repeat([]byte{'\n'}, bytes.Count(fs.src[t.Offset:stop], []byte{'\n'})))
	fs.done = stop
	pp.Client.StopExpandingMacro(stop, m)
	fs.pos = end
	return nil
}

// notifyArgumentReferences reports the macro names written in the
// arguments of an invocation.
func (pp *Preprocessor) notifyArgumentReferences(fs *fileState, args [][]Token) {
	for _, arg := range args {
		for _, t := range arg {
			if t.Kind != scanner.Ident || t.Offset < 0 {
				continue
			}
			if m := pp.Env.Resolve(t.Text); m != nil {
				pp.Client.NotifyMacroReference(t.Offset, fs.index.UTF16Offset(t.Offset), t.Line, m)
			}
		}
	}
}

// directive handles the directive line starting at the current # token.
func (pp *Preprocessor) directive(fs *fileState) error {
	hash := fs.toks[fs.pos]
	fs.pos++
	var line []Token
	for fs.pos < len(fs.toks) && fs.toks[fs.pos].Kind != kindNewline {
		line = append(line, fs.toks[fs.pos])
		fs.pos++
	}
	lineStart := fs.index.LineStart(hash.Line)
	end := len(fs.src)
	if fs.pos < len(fs.toks) {
		end = fs.toks[fs.pos].Offset
	}
	wasSkipping := fs.skipping()
	if wasSkipping {
		fs.blankTo(lineStart)
	} else {
		fs.copyTo(lineStart)
	}
	fs.blankTo(end)
	if len(line) == 0 {
		return nil
	}
	name, args := line[0].Text, line[1:]
	fs.guardDirective(name, args)

	switch name {
	case "if", "ifdef", "ifndef", "elif", "else", "endif":
		err := pp.conditional(fs, name, line[0], args)
		skipping := fs.skipping()
		switch {
		case !wasSkipping && skipping:
			pp.Client.StartSkippingBlocks(fs.index.UTF16Offset(min(end+1, len(fs.src))))
		case wasSkipping && !skipping:
			pp.Client.StopSkippingBlocks(fs.index.UTF16Offset(lineStart))
		}
		return err
	}
	if wasSkipping {
		return nil
	}
	slog.Debug("cpp: directive", "file", fs.name, "line", hash.Line, "name", name)
	switch name {
	case "define":
		return pp.define(fs, line[0], args)
	case "undef":
		if len(args) == 0 || args[0].Kind != scanner.Ident {
			return fs.errorf(line[0], "macro names must be identifiers")
		}
		if m := pp.Env.Resolve(args[0].Text); m != nil {
			pp.Client.NotifyMacroReference(args[0].Offset, fs.index.UTF16Offset(args[0].Offset), args[0].Line, m)
		}
		pp.Env.Remove(args[0].Text)
	case "include", "include_next", "import":
		return pp.include(fs, name, line[0], args)
	case "error":
		return fs.errorf(line[0], "#error %s", joinTokens(args))
	case "warning":
		slog.Warn(fmt.Sprintf("%s:%d: #warning %s", fs.name, hash.Line, joinTokens(args)))
	case "pragma":
		if len(args) > 0 && args[0].Text == "once" {
			if pp.once == nil {
				pp.once = map[string]bool{}
			}
			pp.once[fs.name] = true
		}
	case "line", "ident", "sccs", "assert", "unassert":
	default:
		return fs.errorf(line[0], "invalid preprocessing directive #%s", name)
	}
	return nil
}

// check reports the definition check of the given name token
// and returns whether the name is bound.
func (pp *Preprocessor) check(fs *fileState, t Token) bool {
	u16 := fs.index.UTF16Offset(t.Offset)
	if m := pp.Env.Resolve(t.Text); m != nil {
		pp.Client.PassedMacroDefinitionCheck(t.Offset, u16, t.Line, m)
		return true
	}
	pp.Client.FailedMacroDefinitionCheck(t.Offset, u16, t.Text)
	return false
}

// conditional handles the conditional directives.
func (pp *Preprocessor) conditional(fs *fileState, name string, dir Token, args []Token) error {
	switch name {
	case "ifdef", "ifndef":
		c := cond{outer: fs.skipping(), line: dir.Line}
		if !c.outer {
			if len(args) == 0 || args[0].Kind != scanner.Ident {
				return fs.errorf(dir, "#%s with no macro name", name)
			}
			c.active = pp.check(fs, args[0]) == (name == "ifdef")
			c.taken = c.active
		}
		fs.conds = append(fs.conds, c)
	case "if":
		c := cond{outer: fs.skipping(), line: dir.Line}
		if !c.outer {
			// a failed expression pushes nothing, so no block is skipped
			v, err := pp.condition(fs, dir, args)
			if err != nil {
				return err
			}
			c.active, c.taken = v, v
		}
		fs.conds = append(fs.conds, c)
	case "elif":
		if len(fs.conds) == 0 {
			return fs.errorf(dir, "#elif without #if")
		}
		c := &fs.conds[len(fs.conds)-1]
		if c.sawElse {
			return fs.errorf(dir, "#elif after #else")
		}
		c.active = false
		if c.outer || c.taken {
			return nil
		}
		v, err := pp.condition(fs, dir, args)
		if err != nil {
			return err
		}
		c.active, c.taken = v, v
	case "else":
		if len(fs.conds) == 0 {
			return fs.errorf(dir, "#else without #if")
		}
		c := &fs.conds[len(fs.conds)-1]
		if c.sawElse {
			return fs.errorf(dir, "#else after #else")
		}
		c.sawElse = true
		c.active = !c.outer && !c.taken
		c.taken = true
	case "endif":
		if len(fs.conds) == 0 {
			return fs.errorf(dir, "#endif without #if")
		}
		fs.conds = fs.conds[:len(fs.conds)-1]
	}
	return nil
}

// condition evaluates the expression of an #if or #elif directive.
func (pp *Preprocessor) condition(fs *fileState, dir Token, args []Token) (bool, error) {
	if len(args) == 0 {
		return false, fs.errorf(dir, "#%s with no expression", dir.Text)
	}
	for i, t := range args {
		if t.Kind != scanner.Ident || t.Text == "defined" || definedOperand(args, i) {
			continue
		}
		if m := pp.Env.Resolve(t.Text); m != nil {
			pp.Client.NotifyMacroReference(t.Offset, fs.index.UTF16Offset(t.Offset), t.Line, m)
		}
	}
	toks, err := pp.expandList(args, nil)
	if err != nil {
		return false, fs.errorf(dir, "%w", err)
	}
	var expr []Token
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if t.Kind != scanner.Ident {
			expr = append(expr, t)
			continue
		}
		if t.Text != "defined" {
			v := "0"
			if t.Text == "true" {
				v = "1"
			}
			expr = append(expr, Token{Kind: scanner.Int, Text: v, Space: t.Space, Offset: -1})
			continue
		}
		j := i + 1
		paren := j < len(toks) && toks[j].Text == "("
		if paren {
			j++
		}
		if j >= len(toks) || toks[j].Kind != scanner.Ident {
			return false, fs.errorf(dir, "operator \"defined\" requires an identifier")
		}
		name := toks[j]
		if name.Offset < 0 {
			name.Offset, name.Line = dir.Offset, dir.Line
		}
		v := "0"
		if pp.check(fs, name) {
			v = "1"
		}
		if paren {
			j++
			if j >= len(toks) || toks[j].Text != ")" {
				return false, fs.errorf(dir, "missing ')' after \"defined\"")
			}
		}
		expr = append(expr, Token{Kind: scanner.Int, Text: v, Space: t.Space, Offset: -1})
		i = j
	}
	v, err := evalExpr(expr)
	if err != nil {
		return false, fs.errorf(dir, "%w", err)
	}
	return v != 0, nil
}

// definedOperand returns whether args[i] is the operand of defined.
func definedOperand(args []Token, i int) bool {
	switch {
	case i >= 1 && args[i-1].Text == "defined":
		return true
	case i >= 2 && args[i-1].Text == "(" && args[i-2].Text == "defined":
		return true
	}
	return false
}

// define handles a #define directive.
func (pp *Preprocessor) define(fs *fileState, dir Token, args []Token) error {
	if len(args) == 0 || args[0].Kind != scanner.Ident {
		return fs.errorf(dir, "macro names must be identifiers")
	}
	nt := args[0]
	if nt.Text == "defined" {
		return fs.errorf(nt, "\"defined\" cannot be used as a macro name")
	}
	m := Macro{Name: nt.Text, FileName: fs.name, Line: nt.Line, Offset: nt.Offset, UTF16Offset: fs.index.UTF16Offset(nt.Offset)}
	body := args[1:]
	if len(body) > 0 && body[0].Kind == kindPunct && body[0].Text == "(" && !body[0].Space {
		m.FunctionLike = true
		n, err := parseParams(&m, body)
		if err != nil {
			return fs.errorf(nt, "%w", err)
		}
		body = body[n:]
	}
	m.Tokens = make([]Token, len(body))
	copy(m.Tokens, body)
	if len(m.Tokens) > 0 {
		m.Tokens[0].Space = false
	}
	if old := pp.Env.Resolve(m.Name); old != nil {
		u16 := fs.index.UTF16Offset(nt.Offset)
		if old.SameDefinition(&m) {
			pp.Client.PassedMacroDefinitionCheck(nt.Offset, u16, nt.Line, old)
		} else {
			slog.Debug("cpp: macro redefined", "name", m.Name, "file", fs.name, "line", nt.Line, "previous", fmt.Sprintf("%s:%d", old.FileName, old.Line))
			pp.Client.FailedMacroDefinitionCheck(nt.Offset, u16, m.Name)
		}
	}
	pp.Client.MacroAdded(pp.Env.Bind(m))
	return nil
}

// parseParams parses the parameter list at the start of toks into m,
// and returns the number of tokens used.
func parseParams(m *Macro, toks []Token) (int, error) {
	i := 1
	if i < len(toks) && toks[i].Text == ")" {
		return i + 1, nil
	}
	for i < len(toks) {
		t := toks[i]
		switch {
		case t.Text == "...":
			m.Params = append(m.Params, vaArgs)
			m.Variadic = true
			i++
		case t.Kind == scanner.Ident:
			if t.Text == vaArgs || m.paramIndex(t.Text) >= 0 {
				return 0, fmt.Errorf("invalid parameter %q in macro %s", t.Text, m.Name)
			}
			m.Params = append(m.Params, t.Text)
			i++
			if i < len(toks) && toks[i].Text == "..." {
				m.Variadic = true
				i++
			}
		default:
			return 0, fmt.Errorf("expected parameter name in macro %s, found %q", m.Name, t.Text)
		}
		if i >= len(toks) {
			break
		}
		switch {
		case toks[i].Text == ")":
			return i + 1, nil
		case toks[i].Text == "," && !m.Variadic:
			i++
		default:
			return 0, fmt.Errorf("expected ',' or ')' in parameter list of macro %s, found %q", m.Name, toks[i].Text)
		}
	}
	return 0, fmt.Errorf("missing ')' in parameter list of macro %s", m.Name)
}

// include handles an #include directive.
func (pp *Preprocessor) include(fs *fileState, name string, dir Token, args []Token) error {
	toks := args
	if len(toks) > 0 && toks[0].Kind == scanner.Ident {
		var err error
		if toks, err = pp.expandList(args, nil); err != nil {
			return fs.errorf(dir, "%w", err)
		}
	}
	file, mode, err := fs.headerName(toks)
	if err != nil {
		return fs.errorf(dir, "#%s %w", name, err)
	}
	if name == "include_next" {
		mode = IncludeNext
	}
	pp.Client.SourceNeeded(dir.Line, file, mode, nil)
	return pp.err
}

// builtin returns the value of the given builtin macro.
func (pp *Preprocessor) builtin(name string) Token {
	now := time.Now
	if pp.Now != nil {
		now = pp.Now
	}
	switch name {
	case "__LINE__":
		return Token{Kind: scanner.Int, Text: fmt.Sprint(pp.Env.CurrentLine), Offset: -1}
	case "__FILE__":
		return Token{Kind: scanner.String, Text: fmt.Sprintf("%q", pp.Env.CurrentFile), Offset: -1}
	case "__DATE__":
		return Token{Kind: scanner.String, Text: `"` + now().Format("Jan _2 2006") + `"`, Offset: -1}
	case "__TIME__":
		return Token{Kind: scanner.String, Text: `"` + now().Format("15:04:05") + `"`, Offset: -1}
	}
	panic("cpp: not a builtin macro: " + name)
}
