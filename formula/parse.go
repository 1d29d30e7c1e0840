/*package formula compiles arithmetic formulas into postfix instruction stacks
and evaluates those stacks against per-particle arrays.

A formula such as "sqrt(vx^2 + vy^2 + vz^2)" is parsed once into a Stack.
Operator precedence, from loosest to tightest, is: + and -, then * and /,
then unary negation, then ^ (right associative, ** is accepted as a
synonym). Identifiers followed by parentheses are functions; all other
identifiers are variables, except for the constants PI and E.
*/
package formula

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

var (
	// ErrMalformed is wrapped by every error caused by a formula which
	// cannot be parsed or whose stack does not balance.
	ErrMalformed = errors.New("malformed formula")
	// ErrUnknownVariable is wrapped by errors returned from a Resolver
	// when a formula references a name it cannot supply.
	ErrUnknownVariable = errors.New("unknown variable")
)

// SyntaxError describes where and why a formula failed to parse.
type SyntaxError struct {
	Formula string
	Pos     int
	Msg     string
}

func (err *SyntaxError) Error() string {
	return fmt.Sprintf(
		"Could not parse formula '%s' at character %d: %s.",
		err.Formula, err.Pos, err.Msg,
	)
}

func (err *SyntaxError) Unwrap() error { return ErrMalformed }

// Op identifies the kind of a Token.
type Op int

const (
	Number Op = iota
	Variable
	Binary
	Negate
	Call
)

// Token is a single instruction in a Stack.
type Token struct {
	Op    Op
	Text  string  // Operator, function, variable, or constant name.
	Value float64 // Only used by Number tokens.
	Args  int     // Only used by Call tokens.
}

func (tok Token) String() string {
	switch tok.Op {
	case Number:
		if tok.Text != "" {
			return tok.Text
		}
		return strconv.FormatFloat(tok.Value, 'g', -1, 64)
	case Negate:
		return "neg"
	case Call:
		return fmt.Sprintf("%s/%d", tok.Text, tok.Args)
	}
	return tok.Text
}

// Stack is a formula in postfix order.
type Stack []Token

// Clone returns a copy of s which shares no memory with it.
func (s Stack) Clone() Stack {
	out := make(Stack, len(s))
	copy(out, s)
	return out
}

// Variables returns the names of the variables referenced by s in order of
// first appearance.
func (s Stack) Variables() []string {
	seen := map[string]bool{}
	names := []string{}
	for _, tok := range s {
		if tok.Op == Variable && !seen[tok.Text] {
			seen[tok.Text] = true
			names = append(names, tok.Text)
		}
	}
	return names
}

func (s Stack) String() string {
	strs := make([]string, len(s))
	for i := range s {
		strs[i] = s[i].String()
	}
	return strings.Join(strs, " ")
}

var constants = map[string]float64{
	"PI": math.Pi,
	"E":  math.E,
}

type lexeme struct {
	text string
	pos  int
	num  bool
}

// lex splits a formula into lexemes. It only fails on characters which can
// never appear in a formula.
func lex(formula string) ([]lexeme, error) {
	out := []lexeme{}
	rs := []rune(formula)

	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case unicode.IsDigit(r) || r == '.':
			start := i
			for i < len(rs) && (unicode.IsDigit(rs[i]) || rs[i] == '.') {
				i++
			}
			if i < len(rs) && (rs[i] == 'e' || rs[i] == 'E') {
				j := i + 1
				if j < len(rs) && (rs[j] == '+' || rs[j] == '-') {
					j++
				}
				if j < len(rs) && unicode.IsDigit(rs[j]) {
					for j < len(rs) && unicode.IsDigit(rs[j]) {
						j++
					}
					i = j
				}
			}
			out = append(out, lexeme{string(rs[start:i]), start, true})
		case r == '_' || unicode.IsLetter(r):
			start := i
			for i < len(rs) && (rs[i] == '_' ||
				unicode.IsLetter(rs[i]) || unicode.IsDigit(rs[i])) {
				i++
			}
			out = append(out, lexeme{string(rs[start:i]), start, false})
		case r == '*' && i+1 < len(rs) && rs[i+1] == '*':
			out = append(out, lexeme{"^", i, false})
			i += 2
		case strings.ContainsRune("+-*/^(),", r):
			out = append(out, lexeme{string(r), i, false})
			i++
		default:
			return nil, &SyntaxError{formula, i, fmt.Sprintf(
				"unexpected character '%c'", r,
			)}
		}
	}

	return out, nil
}

// parser is a recursive descent parser which writes its output directly
// in postfix order.
type parser struct {
	formula string
	lex     []lexeme
	i       int
	out     Stack
}

// Parse compiles a formula into a Stack.
func Parse(formula string) (Stack, error) {
	lexemes, err := lex(formula)
	if err != nil {
		return nil, err
	}
	if len(lexemes) == 0 {
		return nil, &SyntaxError{formula, 0, "empty formula"}
	}

	p := &parser{formula: formula, lex: lexemes}
	if err := p.expr(); err != nil {
		return nil, err
	}
	if p.i != len(p.lex) {
		return nil, p.errorf("unexpected '%s'", p.lex[p.i].text)
	}
	return p.out, nil
}

func (p *parser) peek() string {
	if p.i >= len(p.lex) {
		return ""
	}
	return p.lex[p.i].text
}

func (p *parser) errorf(format string, args ...interface{}) error {
	pos := len([]rune(p.formula))
	if p.i < len(p.lex) {
		pos = p.lex[p.i].pos
	}
	return &SyntaxError{p.formula, pos, fmt.Sprintf(format, args...)}
}

func (p *parser) expr() error {
	if err := p.term(); err != nil {
		return err
	}
	for op := p.peek(); op == "+" || op == "-"; op = p.peek() {
		p.i++
		if err := p.term(); err != nil {
			return err
		}
		p.out = append(p.out, Token{Op: Binary, Text: op})
	}
	return nil
}

func (p *parser) term() error {
	if err := p.unary(); err != nil {
		return err
	}
	for op := p.peek(); op == "*" || op == "/"; op = p.peek() {
		p.i++
		if err := p.unary(); err != nil {
			return err
		}
		p.out = append(p.out, Token{Op: Binary, Text: op})
	}
	return nil
}

func (p *parser) unary() error {
	switch p.peek() {
	case "-":
		p.i++
		if err := p.unary(); err != nil {
			return err
		}
		p.out = append(p.out, Token{Op: Negate, Text: "-"})
		return nil
	case "+":
		p.i++
		return p.unary()
	}
	return p.power()
}

func (p *parser) power() error {
	if err := p.atom(); err != nil {
		return err
	}
	if p.peek() == "^" {
		p.i++
		// Right associative, and 2^-1 is legal.
		if err := p.unary(); err != nil {
			return err
		}
		p.out = append(p.out, Token{Op: Binary, Text: "^"})
	}
	return nil
}

func (p *parser) atom() error {
	if p.i >= len(p.lex) {
		return p.errorf("unexpected end of formula")
	}
	lx := p.lex[p.i]

	switch {
	case lx.num:
		val, err := strconv.ParseFloat(lx.text, 64)
		if err != nil {
			return p.errorf("invalid number '%s'", lx.text)
		}
		p.i++
		p.out = append(p.out, Token{Op: Number, Value: val})
		return nil

	case lx.text == "(":
		p.i++
		if err := p.expr(); err != nil {
			return err
		}
		if p.peek() != ")" {
			return p.errorf("missing ')'")
		}
		p.i++
		return nil

	case isIdent(lx.text):
		p.i++
		if p.peek() == "(" {
			return p.call(lx.text)
		}
		if val, ok := constants[lx.text]; ok {
			p.out = append(p.out, Token{Op: Number, Text: lx.text, Value: val})
			return nil
		}
		p.out = append(p.out, Token{Op: Variable, Text: lx.text})
		return nil
	}

	return p.errorf("unexpected '%s'", lx.text)
}

func isIdent(text string) bool {
	r := []rune(text)[0]
	return r == '_' || unicode.IsLetter(r)
}

func (p *parser) call(name string) error {
	fn, ok := functions[name]
	if !ok {
		return p.errorf("unknown function '%s'", name)
	}
	p.i++ // "("

	args := 0
	if p.peek() != ")" {
		for {
			if err := p.expr(); err != nil {
				return err
			}
			args++
			if p.peek() != "," {
				break
			}
			p.i++
		}
	}
	if p.peek() != ")" {
		return p.errorf("missing ')' after arguments to '%s'", name)
	}
	p.i++

	if args != fn.arity {
		return p.errorf(
			"'%s' takes %d argument(s), but was given %d",
			name, fn.arity, args,
		)
	}
	p.out = append(p.out, Token{Op: Call, Text: name, Args: args})
	return nil
}
