package shell

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"src.gsh.sh/pkg/bind"
	"src.gsh.sh/pkg/diag"
	"src.gsh.sh/pkg/fsutil"
	"src.gsh.sh/pkg/grammar"
	"src.gsh.sh/pkg/parse"
	"src.gsh.sh/pkg/token"
)

// Ports are the standard streams of a command.
type Ports struct {
	In       io.Reader
	Out, Err io.Writer
}

// Call is what a Runner gets when its command runs.
type Call struct {
	Shell *Shell
	// The parse result of the deepest command named on the line.
	Result *parse.Result
	Ports
}

// Runner is implemented by command targets that do something when the
// command runs. Values have been bound into the target when Run is called.
type Runner interface {
	Run(c *Call) error
}

// Eval executes a line. Commands that fail have their errors written to
// ports.Err as they happen. The returned error is the status of the last
// pipeline that ran: nil if it succeeded.
func (sh *Shell) Eval(line string, ports Ports) error {
	pipelines, err := compile(sh.Operators, line)
	if err != nil {
		diag.Show(ports.Err, err, line)
		return err
	}
	var status error
	for i, p := range pipelines {
		if i > 0 {
			switch pipelines[i-1].next {
			case token.And:
				if status != nil {
					continue
				}
			case token.Or:
				if status == nil {
					continue
				}
			}
		}
		if p.next == token.Amp {
			fmt.Fprintln(ports.Err, "Warning: background jobs are not supported; running in the foreground")
		}
		status = sh.runPipeline(p, ports, line)
	}
	return status
}

// A command and its redirections.
type stage struct {
	words  []token.Token
	redirs []redir
	// Whether the error output goes to the next stage too.
	pipeErr bool
}

type redir struct {
	op     token.Operator
	target token.Token
}

// Stages connected by pipes, and the operator after them.
type pipeline struct {
	stages []*stage
	next   token.Operator
}

// Splits a line into pipelines. Token ranges are positions in the line.
// Blank text between operators is kept, so "2>&1 > f" still redirects to f.
func compile(ops *token.Table, line string) ([]*pipeline, error) {
	matches, err := ops.Operators(line)
	if err != nil {
		return nil, err
	}
	var pipelines []*pipeline
	p := &pipeline{}
	st := &stage{}
	// The redirection waiting for its target.
	var pending *token.OperatorSpec

	// Handles the text from position from up to an operator.
	handle := func(from int, text string, op token.OperatorSpec, r diag.Ranging) error {
		words, err := token.Tokenize(text)
		if err != nil {
			var e *diag.Error
			if errors.As(err, &e) {
				e.Ranging = e.Ranging.Shift(from)
			}
			return err
		}
		for i := range words {
			words[i].Ranging = words[i].Ranging.Shift(from)
		}
		if pending != nil {
			if len(words) == 0 {
				return diag.Errorf(diag.TokenizeError, pending.Literal,
					"missing target after %s", pending.Literal).WithRange(r)
			}
			st.redirs = append(st.redirs, redir{pending.Op, words[0]})
			words = words[1:]
			pending = nil
		}
		st.words = append(st.words, words...)

		switch {
		case op.Op == token.None:
		case op.TakesArgument:
			pending = &op
		case op.IsConfiguration:
			st.redirs = append(st.redirs, redir{op: op.Op})
		case op.Op == token.Pipe || op.Op == token.PipeOutAndErr:
			st.pipeErr = op.Op == token.PipeOutAndErr
			p.stages = append(p.stages, st)
			st = &stage{}
		default:
			p.stages = append(p.stages, st)
			p.next = op.Op
			pipelines = append(pipelines, p)
			p, st = &pipeline{}, &stage{}
		}
		return nil
	}

	start := 0
	for _, m := range matches {
		if err := handle(start, line[start:m.From], m.OperatorSpec, m.Ranging); err != nil {
			return nil, err
		}
		start = m.To
	}
	if err := handle(start, line[start:], token.OperatorSpec{}, diag.PointRanging(len(line))); err != nil {
		return nil, err
	}
	if len(st.words) > 0 || len(st.redirs) > 0 || len(p.stages) > 0 {
		p.stages = append(p.stages, st)
		pipelines = append(pipelines, p)
	}
	for _, p := range pipelines {
		for _, st := range p.stages {
			if len(st.words) == 0 {
				return nil, errors.New("missing command")
			}
		}
	}
	return pipelines, nil
}

// Runs the stages of a pipeline one after the other, each reading the
// output of the previous one. Errors of all stages are shown; the status is
// that of the last stage.
func (sh *Shell) runPipeline(p *pipeline, ports Ports, line string) error {
	in := ports.In
	var status error
	for i, st := range p.stages {
		stagePorts := Ports{In: in, Out: ports.Out, Err: ports.Err}
		var buf *bytes.Buffer
		if i < len(p.stages)-1 {
			buf = &bytes.Buffer{}
			stagePorts.Out = buf
			if st.pipeErr {
				stagePorts.Err = buf
			}
		}
		status = sh.runStage(st, stagePorts, line)
		if status != nil {
			diag.Show(ports.Err, status, line)
		}
		if buf != nil {
			in = buf
		}
	}
	return status
}

func (sh *Shell) runStage(st *stage, ports Ports, line string) error {
	ports, closeFiles, err := sh.redirect(st.redirs, ports)
	if err != nil {
		return err
	}
	defer closeFiles()
	return sh.runCommand(sh.expandAlias(st.words), ports)
}

// Applies redirections in order, so that "> f 2>&1" sends both outputs to f
// while "2>&1 > f" sends errors to the original output.
func (sh *Shell) redirect(redirs []redir, ports Ports) (Ports, func(), error) {
	var files []io.Closer
	closeFiles := func() {
		for _, f := range files {
			f.Close()
		}
	}
	for _, r := range redirs {
		if r.op == token.OverwriteOutAndErr {
			ports.Err = ports.Out
			continue
		}
		path, err := fsutil.Resolve(sh.Dirs, r.target.Value)
		if err != nil {
			closeFiles()
			return ports, nil, err
		}
		var flag int
		switch r.op {
		case token.OverwriteOut, token.OverwriteErr:
			flag = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
		case token.AppendOut, token.AppendErr:
			flag = os.O_WRONLY | os.O_CREATE | os.O_APPEND
		case token.OverwriteIn:
			flag = os.O_RDONLY
		default:
			closeFiles()
			return ports, nil, fmt.Errorf("unsupported redirection %v", r.op)
		}
		f, err := sh.Fs.OpenFile(path, flag, 0644)
		if err != nil {
			closeFiles()
			return ports, nil, err
		}
		files = append(files, f)
		switch r.op {
		case token.OverwriteOut, token.AppendOut:
			ports.Out = f
		case token.OverwriteErr, token.AppendErr:
			ports.Err = f
		case token.OverwriteIn:
			ports.In = f
		}
	}
	return ports, closeFiles, nil
}

// Replaces a leading user alias with the words of its value. The words take
// the position of the alias in the line.
func (sh *Shell) expandAlias(words []token.Token) []token.Token {
	value, ok := sh.Registry.LookupAlias(words[0].Value)
	if !ok {
		return words
	}
	expanded, err := token.Tokenize(value)
	if err != nil || len(expanded) == 0 {
		logger.Warn().Err(err).Str("alias", words[0].Value).Msg("cannot expand alias")
		return words
	}
	for i := range expanded {
		expanded[i].Ranging = words[0].Ranging
	}
	return append(expanded, words[1:]...)
}

// Resolves, parses, binds and runs a command, notifying its result handler.
func (sh *Shell) runCommand(words []token.Token, ports Ports) error {
	m, err := sh.Registry.Resolve(words[0].Value)
	if err != nil {
		return withRange(err, words[0])
	}
	res := parse.Parse(m, words[1:], parse.Config{})
	m = res.Model
	if res.Overridden() {
		_, err := io.WriteString(ports.Out, m.Help())
		return err
	}
	handler := resultHandler(m)
	if err := sh.Binder.BindAll(res, bind.Validate); err != nil {
		if handler != nil {
			if errors.Is(err, diag.ErrValidation) {
				handler.ValidationFailure(err)
			} else {
				handler.Failure(err)
			}
		}
		return err
	}
	err = sh.execute(m, res, ports)
	if handler != nil {
		if err != nil {
			handler.Failure(err)
		} else {
			handler.Success()
		}
	}
	return err
}

func (sh *Shell) execute(m *grammar.Model, res *parse.Result, ports Ports) error {
	if sh.Grammars.Has(m) {
		return sh.Grammars.Run(ports.Out, m)
	}
	if r, ok := m.Target().(Runner); ok {
		return r.Run(&Call{Shell: sh, Result: res, Ports: ports})
	}
	if m.IsGroup() {
		io.WriteString(ports.Err, m.Help())
		return fmt.Errorf("%s: a sub-command is required", m.Path())
	}
	return fmt.Errorf("%s: nothing to run", m.Path())
}

// The result handler of m or its closest ancestor having one.
func resultHandler(m *grammar.Model) grammar.ResultHandler {
	for ; m != nil; m = m.Parent() {
		if h := m.ResultHandler(); h != nil {
			return h
		}
	}
	return nil
}

func withRange(err error, r diag.Ranger) error {
	var e *diag.Error
	if errors.As(err, &e) && e.Ranging == (diag.Ranging{}) {
		e.WithRange(r)
	}
	return err
}
