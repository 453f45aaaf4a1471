package pkg

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
)

// MaxRollCount bounds the number of dice a single request may roll.
const MaxRollCount = 255

// FudgeRoll is one face of a fudge (fate) die.
type FudgeRoll int8

const (
	FudgeBlank FudgeRoll = iota
	FudgePlus
	FudgeMinus
)

func (f FudgeRoll) String() string {
	switch f {
	case FudgePlus:
		return "+"
	case FudgeMinus:
		return "-"
	default:
		return "0"
	}
}

type DiceKind int

const (
	ConstDice DiceKind = iota
	NumberedDice
	RepeatingDice
	FudgeDice
)

// Dice describes one rollable die. Exactly one variant field is
// meaningful, selected by Kind.
type Dice struct {
	Kind   DiceKind
	Value  int   // ConstDice
	Sides  int   // NumberedDice
	Values []int // RepeatingDice, non-empty
}

func Const(value int) Dice {
	return Dice{Kind: ConstDice, Value: value}
}

func Numbered(sides int) Dice {
	return Dice{Kind: NumberedDice, Sides: sides}
}

func Repeating(values []int) (Dice, error) {
	if len(values) == 0 {
		return Dice{}, fmt.Errorf("%w: repeating dice need at least one value", ErrBadDice)
	}
	return Dice{Kind: RepeatingDice, Values: values}, nil
}

func Fudge() Dice {
	return Dice{Kind: FudgeDice}
}

// IsNumeric reports whether the dice produces integer rolls.
func (d Dice) IsNumeric() bool {
	return d.Kind != FudgeDice
}

// MaxValue is the highest roll the dice can produce. Only defined for
// numeric dice.
func (d Dice) MaxValue() int {
	switch d.Kind {
	case ConstDice:
		return d.Value
	case NumberedDice:
		return d.Sides
	case RepeatingDice:
		max := d.Values[0]
		for _, v := range d.Values[1:] {
			if v > max {
				max = v
			}
		}
		return max
	}
	return 0
}

func (d Dice) String() string {
	switch d.Kind {
	case ConstDice:
		return "+" + strconv.Itoa(d.Value)
	case NumberedDice:
		return "D" + strconv.Itoa(d.Sides)
	case RepeatingDice:
		values := make([]string, len(d.Values))
		for i, v := range d.Values {
			values[i] = strconv.Itoa(v)
		}
		return "[" + strings.Join(values, ",") + "...]"
	default:
		return "F"
	}
}

// RollRequest pairs a roll count with a dice, an optional identifier,
// and the actions scoped to this request alone.
type RollRequest struct {
	Count   int
	Dice    Dice
	Name    string
	Actions []Action
}

func NewRollRequest(count int, dice Dice) RollRequest {
	return RollRequest{Count: count, Dice: dice}
}

func (rr RollRequest) String() string {
	var base string
	switch rr.Dice.Kind {
	case ConstDice:
		base = rr.Dice.String()
	default:
		base = strconv.Itoa(rr.Count) + rr.Dice.String()
	}
	if rr.Name != "" {
		return rr.Name + "(" + base + ")"
	}
	return base
}

// NumericRolls is the evolving result of one numeric roll request. Each
// action application returns a new value rather than mutating in place.
type NumericRolls struct {
	Request     RollRequest
	Description string
	Rolls       []int
}

// FudgeRolls is the fudge counterpart of NumericRolls.
type FudgeRolls struct {
	Request     RollRequest
	Description string
	Rolls       []FudgeRoll
}

// Roller draws roll values. It wraps the random source so sessions can
// share one stateful generator and tests can seed it.
type Roller struct {
	intN func(int) int
}

func NewRoller() *Roller {
	return &Roller{intN: rand.IntN}
}

func NewSeededRoller(seed uint64) *Roller {
	r := rand.New(rand.NewPCG(seed, seed))
	return &Roller{intN: r.IntN}
}

// RollNumeric draws count values from a numeric dice.
func (r *Roller) RollNumeric(count int, d Dice) ([]int, error) {
	rolls := make([]int, count)
	switch d.Kind {
	case ConstDice:
		for i := range rolls {
			rolls[i] = d.Value
		}
	case NumberedDice:
		for i := range rolls {
			rolls[i] = r.intN(d.Sides) + 1
		}
	case RepeatingDice:
		for i := range rolls {
			rolls[i] = d.Values[i%len(d.Values)]
		}
	default:
		return nil, fmt.Errorf("%w: %s cannot produce numeric rolls", ErrBadDice, d)
	}
	return rolls, nil
}

// RollFudge draws count uniform fudge values.
func (r *Roller) RollFudge(count int) []FudgeRoll {
	rolls := make([]FudgeRoll, count)
	for i := range rolls {
		rolls[i] = FudgeRoll(r.intN(3))
	}
	return rolls
}

// NewNumericRolls rolls a numeric request once.
func NewNumericRolls(req RollRequest, roller *Roller) (NumericRolls, error) {
	rolls, err := roller.RollNumeric(req.Count, req.Dice)
	if err != nil {
		return NumericRolls{}, err
	}
	return NumericRolls{
		Request:     req,
		Description: req.String(),
		Rolls:       rolls,
	}, nil
}

// NewFudgeRolls rolls a fudge request once.
func NewFudgeRolls(req RollRequest, roller *Roller) (FudgeRolls, error) {
	if req.Dice.Kind != FudgeDice {
		return FudgeRolls{}, fmt.Errorf("%w: %s is not a fudge dice", ErrBadDice, req.Dice)
	}
	return FudgeRolls{
		Request:     req,
		Description: req.String(),
		Rolls:       roller.RollFudge(req.Count),
	}, nil
}
