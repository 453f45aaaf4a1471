package pkg

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ActionKind enumerates every transformation the engine knows. The set
// is closed: compatibility with a roll type is decided by kind alone,
// never by inspecting values at runtime.
type ActionKind int

const (
	RerollNumeric ActionKind = iota
	RerollFudge
	Sum
	Total
	MultiplyBy
	FlipFlop
	Explode
	ExplodeFudge
	KeepBest
	KeepWorst
	RerollBest
	RerollWorst
)

// Action is one transformation step. Values holds the trigger set for
// numeric reroll/explode, FudgeValues the fudge counterpart, and N the
// multiply factor or keep/reroll count.
type Action struct {
	Kind        ActionKind
	Values      []int
	FudgeValues []FudgeRoll
	N           int
}

// CompatibleWithNumeric reports whether the action is defined for
// numeric rolls. Total is session-wide but numeric-only, so it counts.
func (a Action) CompatibleWithNumeric() bool {
	switch a.Kind {
	case RerollFudge, ExplodeFudge:
		return false
	}
	return true
}

// CompatibleWithFudge reports whether the action is defined for fudge
// rolls.
func (a Action) CompatibleWithFudge() bool {
	switch a.Kind {
	case RerollFudge, ExplodeFudge:
		return true
	}
	return false
}

func (a Action) String() string {
	switch a.Kind {
	case RerollNumeric:
		return "reroll(" + joinInts(a.Values) + ")"
	case RerollFudge:
		return "reroll(" + joinFudge(a.FudgeValues) + ")"
	case Sum:
		return "sum"
	case Total:
		return "total"
	case MultiplyBy:
		return "x" + strconv.Itoa(a.N)
	case FlipFlop:
		return "flip"
	case Explode:
		return "explode(" + joinInts(a.Values) + ")"
	case ExplodeFudge:
		return "explode(" + joinFudge(a.FudgeValues) + ")"
	case KeepBest:
		return "keep-best(" + strconv.Itoa(a.N) + ")"
	case KeepWorst:
		return "keep-worst(" + strconv.Itoa(a.N) + ")"
	case RerollBest:
		return "reroll-best(" + strconv.Itoa(a.N) + ")"
	case RerollWorst:
		return "reroll-worst(" + strconv.Itoa(a.N) + ")"
	default:
		return "unknown"
	}
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func joinFudge(values []FudgeRoll) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = v.String()
	}
	return strings.Join(parts, ",")
}

// Aggregation is a terminal, session-wide summarizing step. Once
// applied, no further action may run in the same session.
type Aggregation int

const (
	CountValues Aggregation = iota
)

func (ag Aggregation) String() string {
	return "count"
}

func incompatible(a Action, rollType string) error {
	return fmt.Errorf("%w: %s is not defined for %s rolls", ErrIncompatibleAction, a, rollType)
}

// Apply runs one action over numeric rolls, returning the new rolls.
// The roller regenerates values for reroll and explode variants.
func (nr NumericRolls) Apply(a Action, roller *Roller) (NumericRolls, error) {
	var rolls []int
	var err error
	switch a.Kind {
	case MultiplyBy:
		rolls = make([]int, len(nr.Rolls))
		for i, v := range nr.Rolls {
			rolls[i] = v * a.N
		}
	case FlipFlop:
		width := digitWidth(nr.Request.Dice.MaxValue())
		rolls = make([]int, len(nr.Rolls))
		for i, v := range nr.Rolls {
			rolls[i] = flipValue(v, width)
		}
	case Sum:
		var sum int
		for _, v := range nr.Rolls {
			sum += v
		}
		rolls = []int{sum}
	case RerollNumeric:
		rolls, err = rerollMatching(nr.Rolls, a.Values, nr.Request.Dice, roller)
	case Explode:
		rolls, err = explode(nr.Rolls, a.Values, nr.Request.Dice, roller)
	case KeepBest:
		rolls, err = keepBest(nr.Rolls, a.N)
	case KeepWorst:
		rolls, err = keepWorst(nr.Rolls, a.N)
	case RerollBest:
		rolls, err = rerollEnd(nr.Rolls, a.N, keepWorst, nr.Request.Dice, roller)
	case RerollWorst:
		rolls, err = rerollEnd(nr.Rolls, a.N, keepBest, nr.Request.Dice, roller)
	case Total:
		// Total aggregates across the whole session; the session
		// applies it before per-request dispatch.
		return NumericRolls{}, fmt.Errorf("%w: total applies to a session, not a single request", ErrIncompatibleAction)
	default:
		return NumericRolls{}, incompatible(a, "numeric")
	}
	if err != nil {
		return NumericRolls{}, err
	}
	return NumericRolls{
		Request:     nr.Request,
		Description: nr.Description + " " + a.String(),
		Rolls:       rolls,
	}, nil
}

// Apply runs one action over fudge rolls.
func (fr FudgeRolls) Apply(a Action, roller *Roller) (FudgeRolls, error) {
	var rolls []FudgeRoll
	switch a.Kind {
	case RerollFudge:
		rolls = make([]FudgeRoll, len(fr.Rolls))
		for i, v := range fr.Rolls {
			if slices.Contains(a.FudgeValues, v) {
				rolls[i] = roller.RollFudge(1)[0]
			} else {
				rolls[i] = v
			}
		}
	case ExplodeFudge:
		rolls = slices.Clone(fr.Rolls)
		batch := fr.Rolls
		for {
			var matches int
			for _, v := range batch {
				if slices.Contains(a.FudgeValues, v) {
					matches++
				}
			}
			if matches == 0 {
				break
			}
			batch = roller.RollFudge(matches)
			rolls = append(rolls, batch...)
		}
	default:
		return FudgeRolls{}, incompatible(a, "fudge")
	}
	return FudgeRolls{
		Request:     fr.Request,
		Description: fr.Description + " " + a.String(),
		Rolls:       rolls,
	}, nil
}

// rerollMatching replaces every value in the trigger set with one fresh
// draw, in place. Fresh draws are not re-checked against the set.
func rerollMatching(rolls, triggers []int, dice Dice, roller *Roller) ([]int, error) {
	out := make([]int, len(rolls))
	for i, v := range rolls {
		if !slices.Contains(triggers, v) {
			out[i] = v
			continue
		}
		fresh, err := roller.RollNumeric(1, dice)
		if err != nil {
			return nil, err
		}
		out[i] = fresh[0]
	}
	return out, nil
}

// explode appends one fresh draw per matching value, then repeats the
// check on the freshly drawn batch only. A trigger set that always
// matches (a const dice equal to its trigger) never terminates; that is
// a documented usage hazard, not a guarded error.
func explode(rolls, triggers []int, dice Dice, roller *Roller) ([]int, error) {
	out := slices.Clone(rolls)
	batch := rolls
	for {
		var matches int
		for _, v := range batch {
			if slices.Contains(triggers, v) {
				matches++
			}
		}
		if matches == 0 {
			return out, nil
		}
		fresh, err := roller.RollNumeric(matches, dice)
		if err != nil {
			return nil, err
		}
		out = append(out, fresh...)
		batch = fresh
	}
}

func keepBest(rolls []int, n int) ([]int, error) {
	if n > len(rolls) {
		return nil, fmt.Errorf("%w: cannot keep %d of %d rolls", ErrBadActionParameter, n, len(rolls))
	}
	sorted := slices.Clone(rolls)
	slices.Sort(sorted)
	return sorted[len(sorted)-n:], nil
}

func keepWorst(rolls []int, n int) ([]int, error) {
	if n > len(rolls) {
		return nil, fmt.Errorf("%w: cannot keep %d of %d rolls", ErrBadActionParameter, n, len(rolls))
	}
	sorted := slices.Clone(rolls)
	slices.Sort(sorted)
	return sorted[:n], nil
}

// rerollEnd retains the complementary len-n values through keep and
// appends n fresh draws.
func rerollEnd(rolls []int, n int, keep func([]int, int) ([]int, error), dice Dice, roller *Roller) ([]int, error) {
	if n > len(rolls) {
		return nil, fmt.Errorf("%w: cannot reroll %d of %d rolls", ErrBadActionParameter, n, len(rolls))
	}
	kept, err := keep(rolls, len(rolls)-n)
	if err != nil {
		return nil, err
	}
	fresh, err := roller.RollNumeric(n, dice)
	if err != nil {
		return nil, err
	}
	return append(kept, fresh...), nil
}

func digitWidth(n int) int {
	width := 1
	for n >= 10 {
		n /= 10
		width++
	}
	return width
}

// flipValue zero-pads v to width digits, reverses the digit string, and
// re-parses it. A D100 roll of 1 becomes "001", reversed "100", 100.
func flipValue(v, width int) int {
	s := fmt.Sprintf("%0*d", width, v)
	b := []byte(s)
	slices.Reverse(b)
	flipped, err := strconv.Atoi(string(b))
	if err != nil {
		// Unreachable: the input is a formatted integer.
		return v
	}
	return flipped
}
