package api

import "time"

// AuthToken is the response of the signup and login operations.
type AuthToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// User is the authenticated account as returned by GET /me.
type User struct {
	ID          string       `json:"id"`
	Email       string       `json:"email"`
	Name        string       `json:"name,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	Memberships []Membership `json:"memberships,omitempty"`
}

// Membership links a user to an organization with a role.
type Membership struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"org_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Organization owns agents and documents.
type Organization struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	OwnerUserID string    `json:"owner_user_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// Industry is a catalog entry used when configuring an agent.
type Industry struct {
	ID          string `json:"id"`
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// RoleTemplate is a pre-built agent role within an industry.
type RoleTemplate struct {
	ID                  string         `json:"id"`
	IndustryID          string         `json:"industry_id"`
	Key                 string         `json:"key"`
	Name                string         `json:"name"`
	Description         string         `json:"description,omitempty"`
	DefaultCapabilities map[string]any `json:"default_capabilities,omitempty"`
	DefaultTools        map[string]any `json:"default_tools,omitempty"`
}

// Tool is a capability that can be attached to an agent.
type Tool struct {
	ID           string         `json:"id"`
	Key          string         `json:"key"`
	Name         string         `json:"name"`
	Description  string         `json:"description,omitempty"`
	ConfigSchema map[string]any `json:"config_schema,omitempty"`
}

// AgentTool is a tool attachment on an agent.
type AgentTool struct {
	ID     string         `json:"id"`
	ToolID string         `json:"tool_id"`
	Config map[string]any `json:"config,omitempty"`
}

// Agent is a configured virtual-employee entity owned by an organization.
type Agent struct {
	ID             string         `json:"id"`
	OrgID          string         `json:"org_id"`
	IndustryID     string         `json:"industry_id,omitempty"`
	RoleTemplateID string         `json:"role_template_id,omitempty"`
	Name           string         `json:"name"`
	Status         string         `json:"status"`
	SystemPrompt   string         `json:"system_prompt,omitempty"`
	Config         map[string]any `json:"config,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	AgentTools     []AgentTool    `json:"agent_tools,omitempty"`
}

// CreateAgentRequest is the payload for POST /orgs/{orgId}/agents.
type CreateAgentRequest struct {
	IndustryID     string   `json:"industry_id"`
	RoleTemplateID string   `json:"role_template_id"`
	Name           string   `json:"name"`
	ToolIDs        []string `json:"tool_ids"`
}

// Document is an ingested knowledge source attached to an agent.
type Document struct {
	ID          string    `json:"id"`
	OrgID       string    `json:"org_id"`
	AgentID     string    `json:"agent_id,omitempty"`
	Name        string    `json:"name"`
	SourceType  string    `json:"source_type"`
	StoragePath string    `json:"storage_path"`
	CreatedAt   time.Time `json:"created_at"`
}

// DocumentChunk is one scored chunk from a document search.
type DocumentChunk struct {
	ID         string         `json:"id"`
	DocumentID string         `json:"document_id"`
	ChunkText  string         `json:"chunk_text"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// SearchResult is the response of the document search operation.
type SearchResult struct {
	Query  string          `json:"query"`
	Chunks []DocumentChunk `json:"chunks"`
}

// ConfigFormat selects the agent config download encoding.
type ConfigFormat string

const (
	ConfigYAML ConfigFormat = "yaml"
	ConfigJSON ConfigFormat = "json"
)

// AdminTaskFilter narrows the admin task listing. Zero values mean "no
// filter"; Limit defaults server-side to 100.
type AdminTaskFilter struct {
	OrgID   string
	AgentID string
	Status  string
	Limit   int
}
