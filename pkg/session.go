package pkg

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

func (nr NumericRolls) String() string {
	values := make([]string, len(nr.Rolls))
	for i, v := range nr.Rolls {
		values[i] = strconv.Itoa(v)
	}
	return nr.Description + ": " + strings.Join(values, " ")
}

func (fr FudgeRolls) String() string {
	values := make([]string, len(fr.Rolls))
	for i, v := range fr.Rolls {
		values[i] = v.String()
	}
	return fr.Description + ": " + strings.Join(values, " ")
}

// NumericSession holds the current results of every numeric request in
// one evaluation. Actions evolve it step by step until an optional
// terminal aggregation.
type NumericSession struct {
	roller   *Roller
	terminal bool

	Rolls []NumericRolls
}

func NewNumericSession(requests []RollRequest, roller *Roller) (*NumericSession, error) {
	session := &NumericSession{
		roller: roller,
		Rolls:  make([]NumericRolls, len(requests)),
	}
	for i, req := range requests {
		rolls, err := NewNumericRolls(req, roller)
		if err != nil {
			return nil, err
		}
		session.Rolls[i] = rolls
	}
	return session, nil
}

// AddStep applies one action to every result in the session. Total is
// intercepted here because it collapses the session as a whole.
func (s *NumericSession) AddStep(action Action) error {
	if s.terminal {
		return fmt.Errorf("%w: no action may follow an aggregation", ErrIncompatibleAction)
	}
	if action.Kind == Total {
		return s.total()
	}
	for i, rolls := range s.Rolls {
		next, err := rolls.Apply(action, s.roller)
		if err != nil {
			return err
		}
		s.Rolls[i] = next
	}
	return nil
}

// total flattens every result into one aggregate entry whose
// description records each contributing sub-total. Zero contributing
// rolls total to 0, not an error.
func (s *NumericSession) total() error {
	var grand int
	parts := make([]string, len(s.Rolls))
	for i, rolls := range s.Rolls {
		var sub int
		for _, v := range rolls.Rolls {
			sub += v
		}
		grand += sub
		parts[i] = fmt.Sprintf("%s: %d", rolls.Description, sub)
	}
	description := "TOTAL (no dice to total)"
	if len(parts) > 0 {
		description = "TOTAL (" + strings.Join(parts, ", ") + ")"
	}
	s.Rolls = []NumericRolls{{
		Request:     NewRollRequest(1, Const(grand)),
		Description: description,
		Rolls:       []int{grand},
	}}
	s.terminal = true
	return nil
}

// Aggregate groups every value in the session and replaces the results
// with one occurrence count per distinct value. Terminal.
func (s *NumericSession) Aggregate(Aggregation) error {
	if s.terminal {
		return fmt.Errorf("%w: session is already aggregated", ErrIncompatibleAction)
	}
	counts := map[int]int{}
	for _, rolls := range s.Rolls {
		for _, v := range rolls.Rolls {
			counts[v]++
		}
	}
	values := make([]int, 0, len(counts))
	for v := range counts {
		values = append(values, v)
	}
	slices.Sort(values)
	s.Rolls = make([]NumericRolls, len(values))
	for i, v := range values {
		s.Rolls[i] = countRoll(strconv.Itoa(v), counts[v])
	}
	s.terminal = true
	return nil
}

func countRoll(value string, count int) NumericRolls {
	return NumericRolls{
		Request:     NewRollRequest(1, Const(count)),
		Description: "COUNT(" + value + ")",
		Rolls:       []int{count},
	}
}

func (s *NumericSession) Render() string {
	lines := make([]string, len(s.Rolls))
	for i, rolls := range s.Rolls {
		lines[i] = rolls.String()
	}
	return strings.Join(lines, "\n")
}

// FudgeSession is the fudge counterpart of NumericSession.
type FudgeSession struct {
	roller *Roller

	Rolls []FudgeRolls
}

func NewFudgeSession(requests []RollRequest, roller *Roller) (*FudgeSession, error) {
	session := &FudgeSession{
		roller: roller,
		Rolls:  make([]FudgeRolls, len(requests)),
	}
	for i, req := range requests {
		rolls, err := NewFudgeRolls(req, roller)
		if err != nil {
			return nil, err
		}
		session.Rolls[i] = rolls
	}
	return session, nil
}

func (s *FudgeSession) AddStep(action Action) error {
	if action.Kind == Total {
		return fmt.Errorf("%w: cannot total non-numeric rolls", ErrIncompatibleAction)
	}
	for i, rolls := range s.Rolls {
		next, err := rolls.Apply(action, s.roller)
		if err != nil {
			return err
		}
		s.Rolls[i] = next
	}
	return nil
}

// Aggregate counts fudge values into a fresh numeric session, since
// occurrence counts are numeric results.
func (s *FudgeSession) Aggregate(Aggregation) (*NumericSession, error) {
	counts := map[FudgeRoll]int{}
	for _, rolls := range s.Rolls {
		for _, v := range rolls.Rolls {
			counts[v]++
		}
	}
	values := make([]FudgeRoll, 0, len(counts))
	for v := range counts {
		values = append(values, v)
	}
	slices.Sort(values)
	rolls := make([]NumericRolls, len(values))
	for i, v := range values {
		rolls[i] = countRoll(v.String(), counts[v])
	}
	return &NumericSession{
		roller:   s.roller,
		terminal: true,
		Rolls:    rolls,
	}, nil
}

func (s *FudgeSession) Render() string {
	lines := make([]string, len(s.Rolls))
	for i, rolls := range s.Rolls {
		lines[i] = rolls.String()
	}
	return strings.Join(lines, "\n")
}

// MultiSession groups the per-type sub-sessions of one evaluation. At
// most one of each kind exists.
type MultiSession struct {
	Numeric *NumericSession
	Fudge   *FudgeSession
}

func (ms *MultiSession) Render() string {
	var sections []string
	if ms.Numeric != nil {
		sections = append(sections, ms.Numeric.Render())
	}
	if ms.Fudge != nil {
		sections = append(sections, ms.Fudge.Render())
	}
	return strings.Join(sections, "\n")
}

// Options tunes evaluation policy.
type Options struct {
	// DefaultTotal applies a total when the request names no global
	// action and no aggregation.
	DefaultTotal bool
}

// Run rolls every parsed request and drives the action pipeline:
// per-request actions, then global actions in order, then the optional
// aggregation. Fudge counts merge into (or become) the numeric
// sub-session.
func (pr *ParsedRequest) Run(roller *Roller, opts Options) (*MultiSession, error) {
	ms := &MultiSession{}
	defaultTotal := opts.DefaultTotal && len(pr.Actions) == 0 && pr.Aggregation == nil

	if len(pr.Numeric) > 0 {
		session, err := NewNumericSession(pr.Numeric, roller)
		if err != nil {
			return nil, err
		}
		for i := range session.Rolls {
			for _, action := range session.Rolls[i].Request.Actions {
				next, err := session.Rolls[i].Apply(action, roller)
				if err != nil {
					return nil, err
				}
				session.Rolls[i] = next
			}
		}
		for _, action := range pr.Actions {
			if err := session.AddStep(action); err != nil {
				return nil, err
			}
		}
		if pr.Aggregation != nil {
			if err := session.Aggregate(*pr.Aggregation); err != nil {
				return nil, err
			}
		} else if defaultTotal {
			if err := session.AddStep(Action{Kind: Total}); err != nil {
				return nil, err
			}
		}
		ms.Numeric = session
	}

	if len(pr.Fudge) > 0 {
		session, err := NewFudgeSession(pr.Fudge, roller)
		if err != nil {
			return nil, err
		}
		for i := range session.Rolls {
			for _, action := range session.Rolls[i].Request.Actions {
				next, err := session.Rolls[i].Apply(action, roller)
				if err != nil {
					return nil, err
				}
				session.Rolls[i] = next
			}
		}
		for _, action := range pr.Actions {
			if err := session.AddStep(action); err != nil {
				return nil, err
			}
		}
		if pr.Aggregation != nil {
			numeric, err := session.Aggregate(*pr.Aggregation)
			if err != nil {
				return nil, err
			}
			if ms.Numeric != nil {
				ms.Numeric.Rolls = append(ms.Numeric.Rolls, numeric.Rolls...)
			} else {
				ms.Numeric = numeric
			}
		} else {
			ms.Fudge = session
		}
	}

	return ms, nil
}

// Evaluate parses and runs a notation string with a fresh roller and
// default options, returning the rendered report.
func Evaluate(input string) (string, error) {
	return EvaluateWith(NewRoller(), input, Options{})
}

// EvaluateWith is Evaluate with an explicit roller and options.
func EvaluateWith(roller *Roller, input string, opts Options) (string, error) {
	parsed, err := ParseRequest(input)
	if err != nil {
		return "", err
	}
	ms, err := parsed.Run(roller, opts)
	if err != nil {
		return "", err
	}
	return ms.Render(), nil
}
