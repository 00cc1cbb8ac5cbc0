package engine

import (
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// Signals is the outcome of evaluating the four rule expressions against one
// row.
type Signals struct {
	OpenLong   bool
	OpenShort  bool
	CloseLong  bool
	CloseShort bool
}

// rule is one compiled rule expression.
type rule struct {
	name    string
	source  string
	program *vm.Program
}

// RuleSet evaluates the four entry/exit predicates of a strategy. Each rule
// is a boolean expression over the named columns of a row, compiled once at
// construction and executed against a closed field namespace. The evaluator
// has no access to engine or ledger state.
type RuleSet struct {
	openLong   rule
	openShort  rule
	closeLong  rule
	closeShort rule
}

// NewRuleSet compiles the four rule expressions of the configuration.
func NewRuleSet(config StrategyConfig) (*RuleSet, error) {
	ruleSet := &RuleSet{
		openLong:   rule{name: "open_long_rule", source: config.OpenLongRule},
		openShort:  rule{name: "open_short_rule", source: config.OpenShortRule},
		closeLong:  rule{name: "close_long_rule", source: config.CloseLongRule},
		closeShort: rule{name: "close_short_rule", source: config.CloseShortRule},
	}

	for _, r := range []*rule{&ruleSet.openLong, &ruleSet.openShort, &ruleSet.closeLong, &ruleSet.closeShort} {
		program, err := expr.Compile(r.source, expr.AsBool())
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeRuleCompileFailed, err, "failed to compile %s %q", r.name, r.source)
		}

		r.program = program
	}

	return ruleSet, nil
}

// Evaluate runs the four compiled rules against the row's field namespace.
func (rs *RuleSet) Evaluate(row types.Row) (Signals, error) {
	signals := Signals{
		OpenLong:   false,
		OpenShort:  false,
		CloseLong:  false,
		CloseShort: false,
	}

	for _, item := range []struct {
		r      *rule
		target *bool
	}{
		{&rs.openLong, &signals.OpenLong},
		{&rs.openShort, &signals.OpenShort},
		{&rs.closeLong, &signals.CloseLong},
		{&rs.closeShort, &signals.CloseShort},
	} {
		value, err := item.r.evaluate(row)
		if err != nil {
			return Signals{}, err
		}

		*item.target = value
	}

	return signals, nil
}

func (r *rule) evaluate(row types.Row) (bool, error) {
	output, err := expr.Run(r.program, row.Fields)
	if err != nil {
		return false, errors.Wrapf(errors.ErrCodeRuleEvalFailed, err, "failed to evaluate %s %q", r.name, r.source)
	}

	result, ok := output.(bool)
	if !ok {
		return false, errors.Newf(errors.ErrCodeRuleNotBoolean, "%s %q did not evaluate to a boolean, got %T", r.name, r.source, output)
	}

	return result, nil
}
