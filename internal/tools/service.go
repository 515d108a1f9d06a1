// Package tools exposes the FHIR proxy operations as MCP tools.
//
// Each tool maps its arguments onto one FHIR read or search request and
// returns the upstream JSON document unchanged. Domain failures surface as
// failed tool results carrying the error message; jsonrpc errors are
// reserved for protocol-level problems.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/viant/jsonrpc"
	"github.com/viant/mcp-protocol/schema"

	"github.com/sdesani/mcp-fhir/internal/platform/fhir"
)

// FHIRClient is the dispatcher surface the tools depend on.
// *fhir.Client implements it.
type FHIRClient interface {
	Read(ctx context.Context, resourceType, id string) (map[string]any, error)
	Search(ctx context.Context, resourceType string, params *fhir.SearchParams) (map[string]any, error)
	Metadata(ctx context.Context) (map[string]any, error)
}

// Service executes tool calls against the FHIR client.
type Service struct {
	client FHIRClient
	log    zerolog.Logger
}

// NewService builds the tool service.
func NewService(client FHIRClient, logger zerolog.Logger) *Service {
	return &Service{client: client, log: logger}
}

// Document declares the result shape of every tool: a raw FHIR R4 resource
// or bundle passed through from the upstream server.
type Document struct {
	ResourceType string `json:"resourceType,omitempty" description:"FHIR resource type of the returned document"`
}

// result wraps a FHIR document as a successful tool result.
func result(doc map[string]any) (*schema.CallToolResult, *jsonrpc.Error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, jsonrpc.NewInternalError(err.Error(), nil)
	}
	return &schema.CallToolResult{
		StructuredContent: doc,
		Content: []schema.CallToolResultContentElem{
			{Text: string(data), Type: "text"},
		},
	}, nil
}

// errorResult surfaces a domain failure as a failed tool call.
func errorResult(err error) (*schema.CallToolResult, *jsonrpc.Error) {
	isError := true
	return &schema.CallToolResult{
		IsError: &isError,
		Content: []schema.CallToolResultContentElem{
			{Text: err.Error(), Type: "text"},
		},
	}, nil
}

// missing reports an unset required argument as a failed tool call, before
// any network traffic happens.
func missing(name string) (*schema.CallToolResult, *jsonrpc.Error) {
	return errorResult(fmt.Errorf("%s is required", name))
}

// fail logs a tool failure and converts it into a failed tool result.
func (s *Service) fail(tool string, err error) (*schema.CallToolResult, *jsonrpc.Error) {
	s.log.Warn().Err(err).Str("tool", tool).Msg("tool call failed")
	return errorResult(err)
}

// strVal dereferences an optional string argument.
func strVal(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
