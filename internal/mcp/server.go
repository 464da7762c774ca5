// Package mcp provides the MCP server implementation. Calculators, pathway
// engines and feedback capture are exposed as MCP tools; calculator
// definitions as resources; guided workflows as prompts.
package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/neurocalc-mcp-server/internal/feedback"
	"github.com/neurocalc-mcp-server/internal/service"
)

// ServerInfo contains MCP server metadata
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Server wraps an MCP SDK server with the calculator tools registered.
type Server struct {
	info        ServerInfo
	mcpServer   *mcp.Server
	calculators *service.CalculatorService
	feedback    feedback.Store
	logger      *logrus.Logger

	referenceWeightKg float64
}

// defaultReferenceWeightKg is the weight behind the SE agents resource doses.
const defaultReferenceWeightKg = 70

// NewServer creates an MCP server and registers its tools, resources and
// prompts. store may be nil, in which case submit_feedback is not offered.
func NewServer(info ServerInfo, calculators *service.CalculatorService, store feedback.Store, logger *logrus.Logger) *Server {
	s := &Server{
		info:        info,
		calculators: calculators,
		feedback:    store,
		logger:      logger,

		referenceWeightKg: defaultReferenceWeightKg,
	}

	s.mcpServer = mcp.NewServer(&mcp.Implementation{
		Name:    info.Name,
		Version: info.Version,
	}, nil)

	s.registerTools()
	s.registerResources()
	s.registerPrompts()
	return s
}

// Run serves MCP over the given transport until ctx is cancelled or the
// client disconnects.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	s.logger.WithFields(logrus.Fields{
		"name":    s.info.Name,
		"version": s.info.Version,
	}).Info("Starting MCP server")

	if err := s.mcpServer.Run(ctx, transport); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}

// Start serves MCP over stdin/stdout.
func (s *Server) Start(ctx context.Context) error {
	return s.Run(ctx, &mcp.StdioTransport{})
}

// registerTools registers tools with the MCP SDK.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        toolListCalculators,
		Description: "List the neurology scoring calculators and the inputs each one asks for.",
	}, s.handleListCalculators)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        toolCalculateScore,
		Description: "Score a calculator (gcs, abcd2, nihss, hasbled, mrs, hunthess, ich, ottawa, rope) from a complete set of answers keyed by input id.",
	}, s.handleCalculateScore)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        toolScoreASPECTS,
		Description: "Compute ASPECTS for one hemisphere from affected region keys such as L-M1 or R-IC.",
	}, s.handleScoreASPECTS)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        toolEstimateLVO,
		Description: "Estimate large vessel occlusion probability from NIHSS sub-items via the RACE scale.",
	}, s.handleEstimateLVO)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        toolClassifyThrombectomy,
		Description: "Classify endovascular thrombectomy eligibility from time window, premorbid function, occlusion site, core size and perfusion mismatch.",
	}, s.handleClassifyThrombectomy)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        toolRecommendSEAgent,
		Description: "Recommend a second-stage status epilepticus agent from the patient's comorbidities.",
	}, s.handleRecommendSEAgent)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        toolCalculateSEDose,
		Description: "Weight-based loading dose for a status epilepticus agent.",
	}, s.handleCalculateSEDose)

	count := 7
	if s.feedback != nil {
		mcp.AddTool(s.mcpServer, &mcp.Tool{
			Name:        toolSubmitFeedback,
			Description: "Record whether a clinician agreed with a calculator interpretation.",
		}, s.handleSubmitFeedback)
		count++
	}

	s.logger.WithField("tool_count", count).Info("Successfully registered all tools")
}
