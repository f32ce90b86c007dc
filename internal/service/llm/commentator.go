package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/dipwatch/dip-agent/internal/service/strategy"
)

// Commentator asks the model for a short read on a triggered entry signal.
// The answer is attached to the notification as-is; it never changes the
// score or the plan.
type Commentator struct {
	svc Service
}

func NewCommentator(svc Service) *Commentator {
	return &Commentator{svc: svc}
}

func (c *Commentator) Comment(ctx context.Context, assessment strategy.Assessment, plan strategy.TradePlan) (string, error) {
	answer, err := c.svc.AskOnce(ctx, Question{Content: buildPrompt(assessment, plan)})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer.Content), nil
}

func buildPrompt(assessment strategy.Assessment, plan strategy.TradePlan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "A dip-buy entry signal fired for %s at price %s (score %d).\n", assessment.Pair.ToString(), assessment.CurrentPrice, assessment.Score)
	fmt.Fprintf(&b, "Triggered conditions:\n")
	for _, sig := range assessment.Triggered {
		fmt.Fprintf(&b, "- %s: %s\n", sig.Kind, sig.Detail)
	}
	fmt.Fprintf(&b, "Plan: target %s (+%.2f%%), stop %s (-%.2f%%).\n",
		plan.TargetPrice.StringFixed(2), plan.TargetPercent.InexactFloat64(),
		plan.StopPrice.StringFixed(2), plan.StopPercent.InexactFloat64())
	fmt.Fprintf(&b, "In at most three sentences, give a sober risk note for this entry. Do not give financial advice disclaimers.")
	return b.String()
}
