package pkg

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ParsedRequest is the parser's output: the typed roll requests, the
// global action list, and the optional trailing aggregation.
type ParsedRequest struct {
	Numeric     []RollRequest
	Fudge       []RollRequest
	Actions     []Action
	Aggregation *Aggregation
}

var (
	numberedRegex = regexp.MustCompile(`^(\d*)[dD](\d+)$`)
	constRegex    = regexp.MustCompile(`^\+(\d+)$`)
	fudgeRegex    = regexp.MustCompile(`^(\d*)[fF]$`)
	identRegex    = regexp.MustCompile(`^[A-Z][A-Z0-9_]+$`)
	multiplyRegex = regexp.MustCompile(`^x(\d+)$`)
	paramRegex    = regexp.MustCompile(`^([a-z-]+)\(([^()]*)\)$`)
)

// ParseRequest reads a notation string: whitespace-separated dice or
// group tokens, then global action tokens, then an optional final
// "count". The first error encountered aborts the whole request.
func ParseRequest(input string) (*ParsedRequest, error) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty roll request", ErrParse)
	}

	pr := &ParsedRequest{}
	i := 0
	for i < len(fields) {
		if strings.HasPrefix(fields[i], "(") {
			req, consumed, err := parseGroup(fields[i:])
			if err != nil {
				return nil, err
			}
			pr.add(req)
			i += consumed
			continue
		}
		req, ok, err := parseDiceToken(fields[i])
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		pr.add(req)
		i++
	}
	if len(pr.Numeric)+len(pr.Fudge) == 0 {
		return nil, fmt.Errorf("%w: a request needs at least one dice", ErrParse)
	}

	for i < len(fields) {
		if fields[i] == "count" {
			if i != len(fields)-1 {
				return nil, fmt.Errorf("%w: count must be the final token", ErrParse)
			}
			agg := CountValues
			pr.Aggregation = &agg
			return pr, nil
		}
		action, err := parseActionToken(fields[i])
		if err != nil {
			return nil, err
		}
		pr.Actions = append(pr.Actions, action)
		i++
	}
	return pr, nil
}

func (pr *ParsedRequest) add(req RollRequest) {
	if req.Dice.IsNumeric() {
		pr.Numeric = append(pr.Numeric, req)
	} else {
		pr.Fudge = append(pr.Fudge, req)
	}
}

// parseDiceToken reads one dice token. ok is false when the token
// matches no dice shape at all, which ends the dice phase; a token that
// is dice-shaped but invalid is an error.
func parseDiceToken(field string) (RollRequest, bool, error) {
	if matches := constRegex.FindStringSubmatch(field); matches != nil {
		value, err := strconv.Atoi(matches[1])
		if err != nil {
			return RollRequest{}, false, fmt.Errorf("%w: %q: %v", ErrParseDice, field, err)
		}
		return NewRollRequest(1, Const(value)), true, nil
	}
	if matches := numberedRegex.FindStringSubmatch(field); matches != nil {
		count, err := parseDiceCount(matches[1], field)
		if err != nil {
			return RollRequest{}, false, err
		}
		sides, err := strconv.Atoi(matches[2])
		if err != nil || sides < 1 {
			return RollRequest{}, false, fmt.Errorf("%w: %q needs at least one side", ErrParseDice, field)
		}
		return NewRollRequest(count, Numbered(sides)), true, nil
	}
	if matches := fudgeRegex.FindStringSubmatch(field); matches != nil {
		count, err := parseDiceCount(matches[1], field)
		if err != nil {
			return RollRequest{}, false, err
		}
		return NewRollRequest(count, Fudge()), true, nil
	}
	return RollRequest{}, false, nil
}

func parseDiceCount(s, field string) (int, error) {
	if s == "" {
		return 1, nil
	}
	count, err := strconv.Atoi(s)
	if err != nil || count < 1 {
		return 0, fmt.Errorf("%w: %q needs a positive dice count", ErrParseDice, field)
	}
	if count > MaxRollCount {
		return 0, fmt.Errorf("%w: %q rolls more than %d dice", ErrParseDice, field, MaxRollCount)
	}
	return count, nil
}

// parseGroup reads a "(<ID> <dice> <action>*)" group spanning one or
// more fields. Parens inside action tokens are balanced, so the group
// ends on the field where the running paren depth returns to zero.
func parseGroup(fields []string) (RollRequest, int, error) {
	depth := 0
	consumed := 0
	for _, field := range fields {
		depth += strings.Count(field, "(") - strings.Count(field, ")")
		consumed++
		if depth <= 0 {
			break
		}
	}
	if depth > 0 {
		return RollRequest{}, 0, fmt.Errorf("%w: group %q is missing its closing paren", ErrParse, strings.Join(fields, " "))
	}

	group := make([]string, 0, consumed)
	for idx, field := range fields[:consumed] {
		if idx == 0 {
			field = strings.TrimPrefix(field, "(")
		}
		if idx == consumed-1 {
			field = strings.TrimSuffix(field, ")")
		}
		if field != "" {
			group = append(group, field)
		}
	}
	if len(group) < 2 {
		return RollRequest{}, 0, fmt.Errorf("%w: a group needs an identifier and a dice", ErrParse)
	}
	if !identRegex.MatchString(group[0]) {
		return RollRequest{}, 0, fmt.Errorf("%w: %q is not a valid identifier", ErrParse, group[0])
	}

	req, ok, err := parseDiceToken(group[1])
	if err != nil {
		return RollRequest{}, 0, err
	}
	if !ok {
		return RollRequest{}, 0, fmt.Errorf("%w: %q does not parse to any known dice", ErrParseDice, group[1])
	}
	req.Name = group[0]
	for _, field := range group[2:] {
		action, err := parseActionToken(field)
		if err != nil {
			return RollRequest{}, 0, err
		}
		req.Actions = append(req.Actions, action)
	}
	return req, consumed, nil
}

func parseActionToken(field string) (Action, error) {
	switch field {
	case "flip":
		return Action{Kind: FlipFlop}, nil
	case "sum":
		return Action{Kind: Sum}, nil
	case "total":
		return Action{Kind: Total}, nil
	}
	if matches := multiplyRegex.FindStringSubmatch(field); matches != nil {
		factor, err := strconv.Atoi(matches[1])
		if err != nil {
			return Action{}, fmt.Errorf("%w: %q: %v", ErrParse, field, err)
		}
		return Action{Kind: MultiplyBy, N: factor}, nil
	}
	matches := paramRegex.FindStringSubmatch(field)
	if matches == nil {
		return Action{}, fmt.Errorf("%w: %q is not a known action", ErrParse, field)
	}
	name, args := matches[1], matches[2]
	switch name {
	case "reroll":
		return parseTriggerAction(RerollNumeric, RerollFudge, args, field)
	case "explode":
		return parseTriggerAction(Explode, ExplodeFudge, args, field)
	case "keep-best":
		return parseCountAction(KeepBest, args, field)
	case "keep-worst":
		return parseCountAction(KeepWorst, args, field)
	case "reroll-best":
		return parseCountAction(RerollBest, args, field)
	case "reroll-worst":
		return parseCountAction(RerollWorst, args, field)
	}
	return Action{}, fmt.Errorf("%w: %q is not a known action", ErrParse, field)
}

// parseTriggerAction reads a reroll/explode value list. The list is
// either all numeric or all fudge symbols; "0" alone reads as numeric.
func parseTriggerAction(numericKind, fudgeKind ActionKind, args, field string) (Action, error) {
	if args == "" {
		return Action{}, fmt.Errorf("%w: %q needs at least one value", ErrParse, field)
	}
	parts := strings.Split(args, ",")

	var hasNumeric, hasFudge bool
	for _, part := range parts {
		switch part {
		case "+", "-":
			hasFudge = true
		default:
			if _, err := strconv.Atoi(part); err != nil {
				return Action{}, fmt.Errorf("%w: %q is not a roll value in %q", ErrParse, part, field)
			}
			if part != "0" {
				hasNumeric = true
			}
		}
	}
	if hasNumeric && hasFudge {
		return Action{}, fmt.Errorf("%w: %q mixes numeric and fudge values", ErrParse, field)
	}

	if hasFudge {
		values := make([]FudgeRoll, len(parts))
		for i, part := range parts {
			switch part {
			case "+":
				values[i] = FudgePlus
			case "-":
				values[i] = FudgeMinus
			default:
				values[i] = FudgeBlank
			}
		}
		return Action{Kind: fudgeKind, FudgeValues: values}, nil
	}

	values := make([]int, len(parts))
	for i, part := range parts {
		values[i], _ = strconv.Atoi(part)
	}
	return Action{Kind: numericKind, Values: values}, nil
}

func parseCountAction(kind ActionKind, args, field string) (Action, error) {
	n, err := strconv.Atoi(args)
	if err != nil || n < 0 {
		return Action{}, fmt.Errorf("%w: %q needs a non-negative count", ErrParse, field)
	}
	return Action{Kind: kind, N: n}, nil
}
