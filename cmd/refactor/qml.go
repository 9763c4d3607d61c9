// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"io"
	"log/slog"
	"os"
	"strings"

	"cogentcore.org/refactor/base/errors"
	"cogentcore.org/refactor/base/iox"
	"cogentcore.org/refactor/base/iox/yamlx"
	"cogentcore.org/refactor/base/logx"
	"cogentcore.org/refactor/qml"
	"cogentcore.org/refactor/qml/rewriter"
	"cogentcore.org/refactor/text/changeset"
	"github.com/pmezard/go-difflib/difflib"
)

// qmlEdits are the edits requested on the command line,
// applied in this order.
type qmlEdits struct {
	sets          stringList
	setObjects    stringList
	appends       stringList
	removes       stringList
	addObjects    stringList
	imports       stringList
	removeImports stringList
}

func runQML(args []string, w io.Writer) error {
	fs := flag.NewFlagSet("qml", flag.ContinueOnError)
	c := addCommon(fs)
	var ed qmlEdits
	fs.Var(&ed.sets, "set", "set a script binding: name=value (repeatable)")
	fs.Var(&ed.setObjects, "set-object", "set an object binding: name=Type { ... } (repeatable)")
	fs.Var(&ed.appends, "append", "append an object to an array binding: name=Type { ... } (repeatable)")
	fs.Var(&ed.removes, "remove", "remove the bindings of a name (repeatable)")
	fs.Var(&ed.addObjects, "add-object", "add a child object: Type { ... } (repeatable)")
	fs.Var(&ed.imports, "import", `add an import: "QtQuick 2.15" or "QtQuick 2.15 as Q" (repeatable)`)
	fs.Var(&ed.removeImports, "remove-import", "remove the imports of a module or path (repeatable)")
	object := fs.String("object", "", "edit the first object of this type instead of the root object")
	diff := fs.Bool("diff", false, "print a unified diff instead of the result")
	color := fs.Bool("color", false, "syntax highlight the result or color the diff")
	format := fs.String("format", "text", "output format: text, or yaml for the list of edits")
	write := fs.Bool("w", false, "write the result back to the file instead of printing it")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("qml: expected exactly one input file")
	}
	cfg, err := c.setup()
	if err != nil {
		return err
	}

	file := fs.Arg(0)
	src, err := iox.ReadSource(file)
	if err != nil {
		return err
	}
	prog, err := qml.Parse(file, src)
	if err != nil {
		return err
	}
	cs := &changeset.ChangeSet{}
	if err := ed.apply(prog, cs, *object, rewriter.PropertyOrder(cfg.PropertyOrder)); err != nil {
		return err
	}
	if err := cs.Err(); err != nil {
		return err
	}
	res, err := cs.Apply(prog.Source)
	if err != nil {
		return err
	}
	if _, err := qml.Parse(file, []byte(res)); err != nil {
		return errors.Errorf("qml: the edited document does not parse: %w", err)
	}
	slog.Info("edited", "file", file, "edits", len(cs.Operations()))

	switch {
	case *format == "yaml":
		return yamlx.Write(operationViews(cs.Operations()), w)
	case *diff:
		ud := difflib.UnifiedDiff{
			A:        difflib.SplitLines(prog.Source),
			FromFile: file,
			B:        difflib.SplitLines(res),
			ToFile:   file,
			Context:  3,
		}
		text, err := difflib.GetUnifiedDiffString(ud)
		if err != nil {
			return err
		}
		return writeDiff(w, text, *color)
	case *write:
		if res == prog.Source {
			logx.PrintlnInfo("unchanged", file)
			return nil
		}
		st, err := os.Stat(file)
		if err != nil {
			return errors.Wrap(err)
		}
		if err := os.WriteFile(file, []byte(res), st.Mode().Perm()); err != nil {
			return errors.Wrap(err)
		}
		logx.Printf(slog.LevelInfo, "wrote %s (%d edits)\n", file, len(cs.Operations()))
		return nil
	}
	return writeSource(w, res, "qml", *color)
}

// apply records the edits on the given change set.
func (ed *qmlEdits) apply(prog *qml.Program, cs *changeset.ChangeSet, object string, order rewriter.PropertyOrder) error {
	init := prog.Root.Initializer
	if object != "" {
		objs := prog.FindObjects(object)
		if len(objs) == 0 {
			return errors.Errorf("qml: no object of type %q", object)
		}
		init = qml.Initializer(objs[0])
	}
	rw := rewriter.New(prog.Source, cs, order)

	for _, s := range ed.sets {
		if err := setBinding(rw, init, s, rewriter.ScriptBinding); err != nil {
			return err
		}
	}
	for _, s := range ed.setObjects {
		if err := setBinding(rw, init, s, rewriter.ObjectBinding); err != nil {
			return err
		}
	}
	for _, s := range ed.appends {
		name, value, err := splitAssignment(s)
		if err != nil {
			return err
		}
		if ab, ok := qml.LookupBinding(init, name).(*qml.ArrayBinding); ok {
			rw.AppendToArrayBinding(ab, value)
			continue
		}
		rw.AddBinding(init, name, value, rewriter.ArrayBinding)
	}
	for _, name := range ed.removes {
		if qml.LookupBinding(init, name) == nil {
			warnUnknown(init, name)
			continue
		}
		rw.RemoveBindingByName(init, name)
	}
	for _, content := range ed.addObjects {
		rw.AddObject(init, content)
	}
	for _, s := range ed.imports {
		target, version, alias, err := parseImport(s)
		if err != nil {
			return err
		}
		if _, err := rw.AddImport(prog, target, version, alias); err != nil {
			return err
		}
	}
	for _, target := range ed.removeImports {
		if !rw.RemoveImport(prog, target) {
			slog.Warn("no import to remove", "target", target)
		}
	}
	return nil
}

// setBinding changes the binding of s, name=value, or adds it if
// there is none.
func setBinding(rw *rewriter.Rewriter, init *qml.ObjectInitializer, s string, kind rewriter.BindingType) error {
	name, value, err := splitAssignment(s)
	if err != nil {
		return err
	}
	if qml.LookupBinding(init, name) != nil {
		rw.ChangeBinding(init, name, value, kind)
		return nil
	}
	if suggestion := qml.Suggest(name, qml.BindingNames(init)); suggestion != "" {
		slog.Warn("adding a new binding", "name", name, "didYouMean", suggestion)
	}
	rw.AddBinding(init, name, value, kind)
	return nil
}

func warnUnknown(init *qml.ObjectInitializer, name string) {
	if suggestion := qml.Suggest(name, qml.BindingNames(init)); suggestion != "" {
		slog.Warn("no binding to remove", "name", name, "didYouMean", suggestion)
		return
	}
	slog.Warn("no binding to remove", "name", name)
}

func splitAssignment(s string) (name, value string, err error) {
	name, value, ok := strings.Cut(s, "=")
	name, value = strings.TrimSpace(name), strings.TrimSpace(value)
	if !ok || name == "" || value == "" {
		return "", "", errors.Errorf("qml: expected name=value, not %q", s)
	}
	return name, value, nil
}

// parseImport parses an import given as target [version] [as alias].
func parseImport(s string) (target, version, alias string, err error) {
	fields := strings.Fields(s)
	if n := len(fields); n >= 2 && fields[n-2] == "as" {
		alias = fields[n-1]
		fields = fields[:n-2]
	}
	switch len(fields) {
	case 2:
		version = fields[1]
		fallthrough
	case 1:
		target = strings.Trim(fields[0], `"`)
		return target, version, alias, nil
	}
	return "", "", "", errors.Errorf("qml: expected an import of the form module [version] [as alias], not %q", s)
}

// operationView is the YAML form of a [changeset.Operation].
type operationView struct {
	Kind   string `yaml:"kind"`
	Pos    int    `yaml:"pos"`
	Length int    `yaml:"length,omitempty"`
	Text   string `yaml:"text,omitempty"`
}

func operationViews(ops []changeset.Operation) []operationView {
	views := make([]operationView, len(ops))
	for i, op := range ops {
		views[i] = operationView{Kind: op.Kind.String(), Pos: op.Pos, Length: op.Length, Text: op.Text}
	}
	return views
}
