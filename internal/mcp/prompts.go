package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	promptScoreWalkthrough = "score_walkthrough"
	promptStrokeTriage     = "acute_stroke_triage"
)

func (s *Server) registerPrompts() {
	s.mcpServer.AddPrompt(&mcp.Prompt{
		Name:        promptScoreWalkthrough,
		Description: "Collect every input of one calculator from the clinician, then score it.",
		Arguments: []*mcp.PromptArgument{{
			Name:        "calculator_id",
			Description: "calculator id, e.g. gcs or ich",
			Required:    true,
		}},
	}, s.getScoreWalkthrough)

	s.mcpServer.AddPrompt(&mcp.Prompt{
		Name:        promptStrokeTriage,
		Description: "Step through LVO estimation, ASPECTS and thrombectomy eligibility for a suspected stroke.",
	}, s.getStrokeTriage)
}

func (s *Server) getScoreWalkthrough(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	id := req.Params.Arguments["calculator_id"]
	def, err := s.calculators.GetCalculator(id)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "We are scoring the %s (%s).\n", def.Name, def.ID)
	b.WriteString("Ask me for each of the following, one at a time, and only accept the listed answers:\n")
	for i, in := range def.Inputs {
		fmt.Fprintf(&b, "%d. %s", i+1, in.Label)
		if len(in.Options) > 0 {
			labels := make([]string, 0, len(in.Options))
			for _, opt := range in.Options {
				labels = append(labels, fmt.Sprintf("%s = %s", opt.Value, opt.Label))
			}
			fmt.Fprintf(&b, " [%s]", strings.Join(labels, "; "))
		} else {
			b.WriteString(" [yes/no]")
		}
		fmt.Fprintf(&b, " (input id %q)\n", in.ID)
	}
	fmt.Fprintf(&b, "When every input is answered, call %s with calculator_id %q and report the score and interpretation verbatim.", toolCalculateScore, def.ID)

	return &mcp.GetPromptResult{
		Description: def.Name + " walkthrough",
		Messages: []*mcp.PromptMessage{{
			Role:    "user",
			Content: &mcp.TextContent{Text: b.String()},
		}},
	}, nil
}

func (s *Server) getStrokeTriage(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	text := fmt.Sprintf(`A patient presents with a suspected acute ischemic stroke.
1. Collect the NIHSS sub-items (facial palsy, arm and leg motor, gaze, aphasia, agnosia) and call %s.
2. If non-contrast CT is available, collect the hypodense ASPECTS regions for the symptomatic side and call %s.
3. Collect time from last known well, premorbid mRS, occlusion site, core size and perfusion mismatch, then call %s.
Summarise the LVO probability, the ASPECTS interpretation and the thrombectomy status with its reason. Do not add treatment advice beyond what the tools return.`,
		toolEstimateLVO, toolScoreASPECTS, toolClassifyThrombectomy)

	return &mcp.GetPromptResult{
		Description: "Acute stroke triage",
		Messages: []*mcp.PromptMessage{{
			Role:    "user",
			Content: &mcp.TextContent{Text: text},
		}},
	}, nil
}
