package pkg

import (
	"strconv"
	"strings"
	"testing"

	"github.com/shoenig/test/must"
)

func TestTotal(t *testing.T) {
	session, err := NewNumericSession([]RollRequest{
		NewRollRequest(2, Const(10)),
		NewRollRequest(1, Const(5)),
	}, NewRoller())
	must.NoError(t, err)

	must.NoError(t, session.AddStep(Action{Kind: Total}))
	must.Len(t, 1, session.Rolls)
	must.Eq(t, []int{25}, session.Rolls[0].Rolls)
	must.StrContains(t, session.Rolls[0].Description, "TOTAL")
	must.StrContains(t, session.Rolls[0].Description, "+10: 20")
	must.StrContains(t, session.Rolls[0].Description, "+5: 5")
}

func TestTotalOfNothing(t *testing.T) {
	session, err := NewNumericSession(nil, NewRoller())
	must.NoError(t, err)
	must.NoError(t, session.AddStep(Action{Kind: Total}))
	must.Len(t, 1, session.Rolls)
	must.Eq(t, []int{0}, session.Rolls[0].Rolls)
	must.StrContains(t, session.Rolls[0].Description, "no dice to total")
}

func TestNoActionAfterAggregation(t *testing.T) {
	session, err := NewNumericSession([]RollRequest{NewRollRequest(1, Const(5))}, NewRoller())
	must.NoError(t, err)
	must.NoError(t, session.AddStep(Action{Kind: Total}))

	err = session.AddStep(Action{Kind: MultiplyBy, N: 2})
	must.ErrorIs(t, err, ErrIncompatibleAction)

	err = session.Aggregate(CountValues)
	must.ErrorIs(t, err, ErrIncompatibleAction)
}

func TestCountValuesNumeric(t *testing.T) {
	dice, err := Repeating([]int{5, 5, 2})
	must.NoError(t, err)
	session, err := NewNumericSession([]RollRequest{NewRollRequest(3, dice)}, NewRoller())
	must.NoError(t, err)

	must.NoError(t, session.Aggregate(CountValues))
	must.Len(t, 2, session.Rolls)
	must.EqOp(t, "COUNT(2): 1", session.Rolls[0].String())
	must.EqOp(t, "COUNT(5): 2", session.Rolls[1].String())
}

func TestCountValuesFudge(t *testing.T) {
	session := &FudgeSession{
		roller: NewRoller(),
		Rolls: []FudgeRolls{{
			Request:     NewRollRequest(3, Fudge()),
			Description: "3F",
			Rolls:       []FudgeRoll{FudgePlus, FudgePlus, FudgeMinus},
		}},
	}
	numeric, err := session.Aggregate(CountValues)
	must.NoError(t, err)
	must.Len(t, 2, numeric.Rolls)
	must.EqOp(t, "COUNT(+): 2", numeric.Rolls[0].String())
	must.EqOp(t, "COUNT(-): 1", numeric.Rolls[1].String())
}

func TestTotalOnFudgeSession(t *testing.T) {
	session, err := NewFudgeSession([]RollRequest{NewRollRequest(2, Fudge())}, NewRoller())
	must.NoError(t, err)
	err = session.AddStep(Action{Kind: Total})
	must.ErrorIs(t, err, ErrIncompatibleAction)
}

func TestEvaluateConst(t *testing.T) {
	report, err := Evaluate("+5")
	must.NoError(t, err)
	must.EqOp(t, "+5: 5", report)
}

func TestEvaluateNumbered(t *testing.T) {
	report, err := EvaluateWith(NewSeededRoller(1), "3D6", Options{})
	must.NoError(t, err)
	desc, values := splitReportLine(t, report)
	must.EqOp(t, "3D6", desc)
	must.Len(t, 3, values)
	for _, v := range values {
		must.True(t, v >= 1 && v <= 6)
	}
}

func TestEvaluateFudge(t *testing.T) {
	report, err := EvaluateWith(NewSeededRoller(1), "F", Options{})
	must.NoError(t, err)
	parts := strings.SplitN(report, ": ", 2)
	must.Len(t, 2, parts)
	must.EqOp(t, "1F", parts[0])
	must.SliceContains(t, []string{"0", "+", "-"}, parts[1])
}

func TestEvaluateMixedOrdering(t *testing.T) {
	report, err := EvaluateWith(NewSeededRoller(1), "2F 1D6", Options{})
	must.NoError(t, err)
	lines := strings.Split(report, "\n")
	must.Len(t, 2, lines)
	// Numeric session renders before the fudge session.
	must.StrHasPrefix(t, "1D6:", lines[0])
	must.StrHasPrefix(t, "2F:", lines[1])
}

func TestEvaluateGlobalActions(t *testing.T) {
	report, err := EvaluateWith(NewSeededRoller(1), "+10 +5 x2 sum", Options{})
	must.NoError(t, err)
	lines := strings.Split(report, "\n")
	must.Len(t, 2, lines)
	must.EqOp(t, "+10 x2 sum: 20", lines[0])
	must.EqOp(t, "+5 x2 sum: 10", lines[1])
}

func TestEvaluateGroupActions(t *testing.T) {
	report, err := EvaluateWith(NewSeededRoller(1), "(DMG +3 x10) +1", Options{})
	must.NoError(t, err)
	lines := strings.Split(report, "\n")
	must.Len(t, 2, lines)
	must.EqOp(t, "DMG(+3) x10: 30", lines[0])
	must.EqOp(t, "+1: 1", lines[1])
}

func TestEvaluateCountMergesFudge(t *testing.T) {
	report, err := EvaluateWith(NewSeededRoller(1), "2D6 3F count", Options{})
	must.NoError(t, err)
	for _, line := range strings.Split(report, "\n") {
		must.StrHasPrefix(t, "COUNT(", line)
	}
}

func TestEvaluateTotal(t *testing.T) {
	report, err := EvaluateWith(NewSeededRoller(1), "+1000 5D8 4D2 total", Options{})
	must.NoError(t, err)
	desc, values := splitReportLine(t, report)
	must.StrHasPrefix(t, "TOTAL (", desc)
	must.Len(t, 1, values)
	must.True(t, values[0] >= 1009)
}

func TestEvaluateDefaultTotal(t *testing.T) {
	report, err := EvaluateWith(NewSeededRoller(1), "+10 +2", Options{DefaultTotal: true})
	must.NoError(t, err)
	desc, values := splitReportLine(t, report)
	must.StrHasPrefix(t, "TOTAL (", desc)
	must.Eq(t, []int{12}, values)

	// Any explicit action disables the default.
	report, err = EvaluateWith(NewSeededRoller(1), "+10 +2 x2", Options{DefaultTotal: true})
	must.NoError(t, err)
	must.Len(t, 2, strings.Split(report, "\n"))
}

func TestEvaluateActionAfterTotal(t *testing.T) {
	_, err := Evaluate("1D6 total x2")
	must.ErrorIs(t, err, ErrIncompatibleAction)
}

func TestEvaluateFudgeTotal(t *testing.T) {
	_, err := Evaluate("2F total")
	must.ErrorIs(t, err, ErrIncompatibleAction)
}

func TestEvaluateParseError(t *testing.T) {
	_, err := Evaluate("5")
	must.Error(t, err)
}

func splitReportLine(t *testing.T, line string) (string, []int) {
	t.Helper()
	parts := strings.SplitN(line, ": ", 2)
	must.Len(t, 2, parts)
	var values []int
	for _, field := range strings.Fields(parts[1]) {
		v, err := strconv.Atoi(field)
		must.NoError(t, err)
		values = append(values, v)
	}
	return parts[0], values
}
