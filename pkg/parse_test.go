package pkg

import (
	"testing"

	"github.com/shoenig/test/must"
)

func TestParseNumberedDice(t *testing.T) {
	pr, err := ParseRequest("5d6")
	must.NoError(t, err)
	must.Len(t, 1, pr.Numeric)
	must.Eq(t, Numbered(6), pr.Numeric[0].Dice)
	must.EqOp(t, 5, pr.Numeric[0].Count)

	pr, err = ParseRequest("8D3")
	must.NoError(t, err)
	must.Eq(t, Numbered(3), pr.Numeric[0].Dice)
	must.EqOp(t, 8, pr.Numeric[0].Count)

	pr, err = ParseRequest("D20")
	must.NoError(t, err)
	must.Eq(t, Numbered(20), pr.Numeric[0].Dice)
	must.EqOp(t, 1, pr.Numeric[0].Count)
}

func TestParseFudgeDice(t *testing.T) {
	pr, err := ParseRequest("F")
	must.NoError(t, err)
	must.Len(t, 0, pr.Numeric)
	must.Len(t, 1, pr.Fudge)
	must.EqOp(t, 1, pr.Fudge[0].Count)

	pr, err = ParseRequest("10F")
	must.NoError(t, err)
	must.EqOp(t, 10, pr.Fudge[0].Count)
}

func TestParseConstDice(t *testing.T) {
	pr, err := ParseRequest("+5")
	must.NoError(t, err)
	must.Eq(t, Const(5), pr.Numeric[0].Dice)
	must.EqOp(t, 1, pr.Numeric[0].Count)

	pr, err = ParseRequest("+142")
	must.NoError(t, err)
	must.Eq(t, Const(142), pr.Numeric[0].Dice)
}

func TestParseMixedRequest(t *testing.T) {
	pr, err := ParseRequest("5D8 4D2 +1000 2F")
	must.NoError(t, err)
	must.Len(t, 3, pr.Numeric)
	must.Len(t, 1, pr.Fudge)
	must.Nil(t, pr.Aggregation)
	must.Len(t, 0, pr.Actions)
}

func TestParseGlobalActions(t *testing.T) {
	pr, err := ParseRequest("3D6 reroll(1) explode(6) x2 flip sum total keep-best(3) reroll-worst(1)")
	must.NoError(t, err)
	must.Len(t, 8, pr.Actions)
	must.Eq(t, Action{Kind: RerollNumeric, Values: []int{1}}, pr.Actions[0])
	must.Eq(t, Action{Kind: Explode, Values: []int{6}}, pr.Actions[1])
	must.Eq(t, Action{Kind: MultiplyBy, N: 2}, pr.Actions[2])
	must.Eq(t, Action{Kind: FlipFlop}, pr.Actions[3])
	must.Eq(t, Action{Kind: Sum}, pr.Actions[4])
	must.Eq(t, Action{Kind: Total}, pr.Actions[5])
	must.Eq(t, Action{Kind: KeepBest, N: 3}, pr.Actions[6])
	must.Eq(t, Action{Kind: RerollWorst, N: 1}, pr.Actions[7])
}

func TestParseTriggerLists(t *testing.T) {
	pr, err := ParseRequest("3D6 reroll(1,2,3)")
	must.NoError(t, err)
	must.Eq(t, []int{1, 2, 3}, pr.Actions[0].Values)

	pr, err = ParseRequest("4F reroll(+,-)")
	must.NoError(t, err)
	must.EqOp(t, RerollFudge, pr.Actions[0].Kind)
	must.Eq(t, []FudgeRoll{FudgePlus, FudgeMinus}, pr.Actions[0].FudgeValues)

	pr, err = ParseRequest("4F explode(0,+)")
	must.NoError(t, err)
	must.EqOp(t, ExplodeFudge, pr.Actions[0].Kind)
	must.Eq(t, []FudgeRoll{FudgeBlank, FudgePlus}, pr.Actions[0].FudgeValues)

	_, err = ParseRequest("3D6 reroll(1,+)")
	must.ErrorIs(t, err, ErrParse)

	_, err = ParseRequest("3D6 reroll()")
	must.ErrorIs(t, err, ErrParse)
}

func TestParseGroups(t *testing.T) {
	pr, err := ParseRequest("(FIRE 2D6 reroll(1)) (ICE 1D6) total")
	must.NoError(t, err)
	must.Len(t, 2, pr.Numeric)

	fire := pr.Numeric[0]
	must.EqOp(t, "FIRE", fire.Name)
	must.EqOp(t, 2, fire.Count)
	must.Eq(t, Numbered(6), fire.Dice)
	must.Len(t, 1, fire.Actions)
	must.Eq(t, Action{Kind: RerollNumeric, Values: []int{1}}, fire.Actions[0])

	ice := pr.Numeric[1]
	must.EqOp(t, "ICE", ice.Name)
	must.Len(t, 0, ice.Actions)

	must.Len(t, 1, pr.Actions)
	must.Eq(t, Action{Kind: Total}, pr.Actions[0])
}

func TestParseGroupErrors(t *testing.T) {
	_, err := ParseRequest("(FIRE 2D6")
	must.ErrorIs(t, err, ErrParse)

	_, err = ParseRequest("(fire 2D6)")
	must.ErrorIs(t, err, ErrParse)

	// Identifiers need two or more characters.
	_, err = ParseRequest("(X 2D6)")
	must.ErrorIs(t, err, ErrParse)

	_, err = ParseRequest("(FIRE)")
	must.ErrorIs(t, err, ErrParse)

	_, err = ParseRequest("(FIRE nope)")
	must.ErrorIs(t, err, ErrParseDice)
}

func TestParseAggregation(t *testing.T) {
	pr, err := ParseRequest("3D6 count")
	must.NoError(t, err)
	must.NotNil(t, pr.Aggregation)
	must.EqOp(t, CountValues, *pr.Aggregation)

	_, err = ParseRequest("3D6 count x2")
	must.ErrorIs(t, err, ErrParse)
}

func TestParseErrors(t *testing.T) {
	for _, input := range []string{
		"",
		"5",
		"Da",
		"D8D",
		"F8",
		"+",
		"8+",
		"+8+",
		"2+8",
		"5D 20",
		"3D6 fizzle",
		"3D6 keep-best(x)",
	} {
		_, err := ParseRequest(input)
		must.Error(t, err, must.Sprintf("input %q should not parse", input))
	}
}

func TestParseDiceErrors(t *testing.T) {
	_, err := ParseRequest("0D6")
	must.ErrorIs(t, err, ErrParseDice)

	_, err = ParseRequest("D0")
	must.ErrorIs(t, err, ErrParseDice)

	_, err = ParseRequest("300D6")
	must.ErrorIs(t, err, ErrParseDice)
}
