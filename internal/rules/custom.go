package rules

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"

	"github.com/opensource-finance/shrike/internal/domain"
)

// compiledSignal holds a pre-compiled CEL program for one custom signal.
type compiledSignal struct {
	config  domain.CustomSignal
	program cel.Program
}

// newSignalEnv creates the CEL environment exposing the derived analysis
// facts a custom signal may inspect. Expressions are deterministic and do
// no I/O; they can only contribute a fixed weight.
func newSignalEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("raw_text", cel.StringType),
		cel.Variable("text", cel.StringType),
		cel.Variable("hosts", cel.ListType(cel.StringType)),
		cel.Variable("groups", cel.ListType(cel.StringType)),
		cel.Variable("url_count", cel.IntType),
		cel.Variable("has_payment", cel.BoolType),
		cel.Variable("entity_code", cel.StringType),
		cel.Variable("reference_code", cel.StringType),
		cel.Variable("amount", cel.StringType),
	)
}

// compileSignals compiles every enabled custom signal. A nil or empty
// configuration compiles to no signals.
func compileSignals(configs []domain.CustomSignal) ([]*compiledSignal, error) {
	var enabled []domain.CustomSignal
	for _, cfg := range configs {
		if cfg.Enabled {
			enabled = append(enabled, cfg)
		}
	}
	if len(enabled) == 0 {
		return nil, nil
	}

	env, err := newSignalEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	signals := make([]*compiledSignal, 0, len(enabled))
	for _, cfg := range enabled {
		ast, issues := env.Compile(cfg.Expression)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("failed to compile custom signal %s: %w", cfg.ID, issues.Err())
		}

		if ast.OutputType() != cel.BoolType {
			return nil, fmt.Errorf("custom signal %s: expression must return bool, got %s", cfg.ID, ast.OutputType())
		}

		program, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("failed to create program for custom signal %s: %w", cfg.ID, err)
		}

		signals = append(signals, &compiledSignal{config: cfg, program: program})
	}

	return signals, nil
}

// evalCustomSignals runs every compiled signal against the analysis facts
// and returns the total score contribution, appending a reason per firing
// signal. An expression that errors at runtime contributes nothing; the
// engine has no failure mode.
func (e *Engine) evalCustomSignals(
	messageText, normalizedText string,
	urls, hosts []string,
	matchedGroups map[domain.KeywordGroup]bool,
	payment *domain.PaymentReference,
	reasons *reasonList,
) int {
	if len(e.customSignals) == 0 {
		return 0
	}

	groups := make([]string, 0, len(matchedGroups))
	for _, group := range domain.AllKeywordGroups {
		if matchedGroups[group] {
			groups = append(groups, string(group))
		}
	}

	activation := map[string]any{
		"raw_text":       messageText,
		"text":           normalizedText,
		"hosts":          hosts,
		"groups":         groups,
		"url_count":      len(urls),
		"has_payment":    payment != nil,
		"entity_code":    "",
		"reference_code": "",
		"amount":         "",
	}
	if payment != nil {
		activation["entity_code"] = payment.EntityCode
		activation["reference_code"] = payment.ReferenceCode
		activation["amount"] = payment.Amount
	}

	total := 0
	for _, signal := range e.customSignals {
		out, _, err := signal.program.Eval(activation)
		if err != nil {
			continue
		}
		if fired, ok := out.(types.Bool); ok && bool(fired) {
			total += signal.config.Weight
			reasons.add(domain.ReasonCustomPrefix + signal.config.ID)
		}
	}
	return total
}
