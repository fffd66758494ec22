// Package mcp exposes the retrieval surface as MCP tools, so agent clients
// can search the document index without the REST API.
package mcp

import (
	"context"
	"encoding/json"
	"slices"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/docblade/docblade"
)

type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      mcp.RequestId   `json:"id"`
	Method  mcp.MCPMethod   `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

func errorResponse(id any, code int, message string) mcp.JSONRPCError {
	return mcp.JSONRPCError{
		JSONRPC: mcp.JSONRPC_VERSION,
		ID:      mcp.NewRequestId(id),
		Error: struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
			Data    any    `json:"data,omitempty"`
		}{
			Code:    code,
			Message: message,
		},
	}
}

type MCPEndpoint func(ctx context.Context, req JSONRPCRequest) mcp.JSONRPCMessage

const MCPSERVER_INSTRUCTIONS string = `docblade indexes documents as embedded chunks and retrieves the passages most similar to a question.

Available tools:
- search_documents: retrieve the highest-scoring chunks for a question, optionally restricted to one category
- list_indexed_files: inventory of indexed files with chunk counts and categories

Scores are cosine similarities; chunks above the relevance threshold also feed answer generation.`

const (
	ToolSearchDocuments  = "search_documents"
	ToolListIndexedFiles = "list_indexed_files"
)

func Tools() []mcp.Tool {
	search := mcp.NewTool(ToolSearchDocuments,
		mcp.WithDescription("Search indexed documents for chunks relevant to a natural-language question."),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("The question to search for."),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of chunks to return."),
		),
		mcp.WithString("category_id",
			mcp.Description("Restrict results to one category."),
		),
	)

	files := mcp.NewTool(ToolListIndexedFiles,
		mcp.WithDescription("List indexed files with their chunk counts and categories."),
	)

	return []mcp.Tool{search, files}
}

func InitializeEndpoint(svc docblade.Service) MCPEndpoint {
	return func(ctx context.Context, req JSONRPCRequest) mcp.JSONRPCMessage {
		var params mcp.InitializeParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errorResponse(req.ID, mcp.INVALID_PARAMS, err.Error())
		}

		protocolVersion := mcp.LATEST_PROTOCOL_VERSION
		if clientVersion := params.ProtocolVersion; clientVersion != "" {
			if slices.Contains(mcp.ValidProtocolVersions, clientVersion) {
				protocolVersion = clientVersion
			}
		}

		result := &mcp.InitializeResult{
			ProtocolVersion: protocolVersion,
			Capabilities: mcp.ServerCapabilities{
				Tools: &struct {
					ListChanged bool `json:"listChanged,omitempty"`
				}{},
			},
			ServerInfo: mcp.Implementation{
				Name:    "docblade",
				Version: "1.0.0",
			},
			Instructions: MCPSERVER_INSTRUCTIONS,
		}

		return mcp.JSONRPCResponse{
			JSONRPC: mcp.JSONRPC_VERSION,
			ID:      req.ID,
			Result:  result,
		}
	}
}

func PingEndpoint(svc docblade.Service) MCPEndpoint {
	return func(ctx context.Context, req JSONRPCRequest) mcp.JSONRPCMessage {
		return mcp.JSONRPCResponse{
			JSONRPC: mcp.JSONRPC_VERSION,
			ID:      req.ID,
			Result:  struct{}{}, // empty response
		}
	}
}

func ListToolsEndpoint(svc docblade.Service) MCPEndpoint {
	return func(ctx context.Context, req JSONRPCRequest) mcp.JSONRPCMessage {
		result := &mcp.ListToolsResult{
			Tools: Tools(),
		}

		return mcp.JSONRPCResponse{
			JSONRPC: mcp.JSONRPC_VERSION,
			ID:      req.ID,
			Result:  result,
		}
	}
}

func CallToolEndpoint(svc docblade.Service) MCPEndpoint {
	return func(ctx context.Context, req JSONRPCRequest) mcp.JSONRPCMessage {
		var params mcp.CallToolParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errorResponse(req.ID, mcp.INVALID_PARAMS, err.Error())
		}

		var (
			result *mcp.CallToolResult
			err    error
		)

		switch params.Name {
		case ToolSearchDocuments:
			result, err = callSearchDocuments(ctx, svc, params)

		case ToolListIndexedFiles:
			result, err = callListIndexedFiles(ctx, svc)

		default:
			return errorResponse(req.ID, mcp.INVALID_PARAMS, "unknown tool: "+params.Name)
		}

		if err != nil {
			return errorResponse(req.ID, mcp.INTERNAL_ERROR, err.Error())
		}

		return mcp.JSONRPCResponse{
			JSONRPC: mcp.JSONRPC_VERSION,
			ID:      req.ID,
			Result:  result,
		}
	}
}

func callSearchDocuments(ctx context.Context, svc docblade.Service, params mcp.CallToolParams) (*mcp.CallToolResult, error) {
	args, _ := params.Arguments.(map[string]any)

	question, _ := args["question"].(string)
	if question == "" {
		return mcp.NewToolResultError("question is required"), nil
	}

	limit := 0
	if v, ok := args["limit"].(float64); ok {
		limit = int(v)
	}

	var category docblade.CategoryID
	switch v := args["category_id"].(type) {
	case string:
		category = docblade.CategoryID(v)
	case float64:
		category = docblade.CategoryID(strconv.FormatFloat(v, 'f', -1, 64))
	}

	result, err := svc.Query(ctx, question, limit, category)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}

	return mcp.NewToolResultText(string(data)), nil
}

func callListIndexedFiles(ctx context.Context, svc docblade.Service) (*mcp.CallToolResult, error) {
	files, err := svc.ListFiles(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(files)
	if err != nil {
		return nil, err
	}

	return mcp.NewToolResultText(string(data)), nil
}
