// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes one user's resume data to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/resumectl/internal/resumeservice"
)

const contractURI = "resumectl://resume-model"

// Server wraps the MCP server with read-only resume tools bound to one user.
type Server struct {
	mcp      *server.MCPServer
	svc      *resumeservice.Service
	username string
}

// New creates a new MCP server whose tools read the data of username.
func New(svc *resumeservice.Service, username, version string) *Server {
	s := &Server{svc: svc, username: username}

	s.mcp = server.NewMCPServer(
		"resumectl",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List the user's resume documents. The master document comes first."),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("get_document",
		mcp.WithDescription("Read a document with its contact info, sections and items in display order."),
		mcp.WithNumber("document_id", mcp.Required(), mcp.Description("ID of the document")),
	), s.getDocument)

	s.mcp.AddTool(mcp.NewTool("list_sections",
		mcp.WithDescription("List the sections a document can contain."),
	), s.listSections)

	s.mcp.AddTool(mcp.NewTool("list_section_items",
		mcp.WithDescription("List every item of one kind written by the user, across all documents."),
		mcp.WithString("kind", mcp.Required(),
			mcp.Enum(kindEducations, kindExperiences, kindSkills, kindTextSnippets),
			mcp.Description("Item kind")),
	), s.listSectionItems)

	s.mcp.AddTool(mcp.NewTool("get_resume_model",
		mcp.WithDescription("Returns a description of how documents, sections and items relate. "+
			"Read it before interpreting the other tools' output."),
	), s.getResumeModel)

	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Resume Data Model",
			mcp.WithResourceDescription("How resume documents, sections and items are organised."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readResumeModelResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

const (
	kindEducations   = "educations"
	kindExperiences  = "experiences"
	kindSkills       = "skills"
	kindTextSnippets = "text_snippets"
)

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("mcpserver: encode result: %w", err)
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listDocuments(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docs, err := s.svc.ListDocuments(ctx, s.username)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(docs)
}

func (s *Server) getDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("document_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.svc.GetDocument(ctx, s.username, int64(id))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(doc)
}

func (s *Server) listSections(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sections, err := s.svc.ListSections(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(sections)
}

func (s *Server) listSectionItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, err := req.RequireString("kind")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var items any
	switch kind {
	case kindEducations:
		items, err = s.svc.ListEducations(ctx, s.username)
	case kindExperiences:
		items, err = s.svc.ListExperiences(ctx, s.username)
	case kindSkills:
		items, err = s.svc.ListSkills(ctx, s.username)
	case kindTextSnippets:
		items, err = s.svc.ListTextSnippets(ctx, s.username)
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown kind %q", kind)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(items)
}

func (s *Server) getResumeModel(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ResumeModelContract), nil
}

func (s *Server) readResumeModelResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     ResumeModelContract,
		},
	}, nil
}
