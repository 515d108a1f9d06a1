package tools

import (
	"context"

	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-protocol/schema"
)

// GetCapabilityStatementInput has no arguments.
type GetCapabilityStatementInput struct{}

// GetCapabilityStatement retrieves the FHIR server's capability statement,
// describing its supported resources and interactions.
func (s *Service) GetCapabilityStatement(ctx context.Context, in *GetCapabilityStatementInput) (*schema.CallToolResult, *jsonrpc.Error) {
	doc, err := s.client.Metadata(ctx)
	if err != nil {
		return s.fail("get_fhir_capability_statement", err)
	}
	return result(doc)
}
