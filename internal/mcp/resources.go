package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/neurocalc-mcp-server/internal/domain"
)

const (
	resourceScheme        = "neurocalc://"
	catalogURI            = resourceScheme + "calculators"
	calculatorURIPrefix   = catalogURI + "/"
	calculatorURITemplate = calculatorURIPrefix + "{id}"
	seAgentsURI           = resourceScheme + "status-epilepticus/agents"
	jsonMIME              = "application/json"
)

// SEAgentInfo describes one status epilepticus agent for the agents resource.
type SEAgentInfo struct {
	Agent       string  `json:"agent"`
	DisplayName string  `json:"display_name"`
	WeightKg    float64 `json:"weight_kg"`
	Dose        string  `json:"dose"`
}

// registerResources exposes calculator definitions and the SE agent table as
// read-only JSON resources.
func (s *Server) registerResources() {
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         catalogURI,
		Name:        "calculators",
		Description: "Every calculator with its inputs and answer options.",
		MIMEType:    jsonMIME,
	}, s.readCatalog)

	s.mcpServer.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: calculatorURITemplate,
		Name:        "calculator",
		Description: "One calculator definition by id.",
		MIMEType:    jsonMIME,
	}, s.readCalculator)

	s.mcpServer.AddResource(&mcp.Resource{
		URI:         seAgentsURI,
		Name:        "status-epilepticus-agents",
		Description: "Status epilepticus agents with the loading dose at a reference weight.",
		MIMEType:    jsonMIME,
	}, s.readSEAgents)
}

func (s *Server) readCatalog(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	return jsonResource(catalogURI, s.catalog())
}

func (s *Server) readCalculator(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	id := strings.TrimPrefix(uri, calculatorURIPrefix)
	if id == uri || id == "" {
		return nil, mcp.ResourceNotFoundError(uri)
	}

	def, err := s.calculators.GetCalculator(id)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(uri)
	}
	return jsonResource(uri, calculatorInfo(def))
}

func (s *Server) readSEAgents(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	agents := make([]SEAgentInfo, 0, len(domain.Agents))
	for _, agent := range domain.Agents {
		dose, err := s.calculators.CalculateDose(agent, s.referenceWeightKg)
		if err != nil {
			return nil, err
		}
		agents = append(agents, SEAgentInfo{
			Agent:       string(agent),
			DisplayName: agent.DisplayName(),
			WeightKg:    s.referenceWeightKg,
			Dose:        dose,
		})
	}
	return jsonResource(seAgentsURI, agents)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode resource %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: jsonMIME,
			Text:     string(data),
		}},
	}, nil
}
