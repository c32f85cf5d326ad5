package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"phi/internal/logging"
	"phi/internal/task"
)

// TokenSource supplies the bearer token for outgoing requests. An empty
// token sends the request unauthenticated; the server is responsible for
// rejecting it.
type TokenSource interface {
	Token() string
}

// Client provides uniform, authenticated access to the core and orchestrator
// backends. It performs no caching and no retries: failures surface the
// backend's error detail and the caller decides what to do.
type Client struct {
	coreURL string
	orchURL string
	http    *http.Client
	tokens  TokenSource
	log     *logging.Logger
}

// NewClient builds a client for the two backend base URLs. The session is
// injected rather than read from global state so each process owns exactly
// one instance.
func NewClient(coreURL, orchURL string, tokens TokenSource, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		coreURL: coreURL,
		orchURL: orchURL,
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
		log:     logging.ForComponent("api"),
	}
}

// ── Auth ────────────────────────────────────────────────────────

// Signup registers a new account and returns the bearer token.
func (c *Client) Signup(ctx context.Context, email, password, name string) (*AuthToken, error) {
	body := map[string]string{"email": email, "password": password}
	if name != "" {
		body["name"] = name
	}
	var out AuthToken
	if err := c.do(ctx, c.coreURL, http.MethodPost, "/auth/signup", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login authenticates an existing account.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthToken, error) {
	var out AuthToken
	err := c.do(ctx, c.coreURL, http.MethodPost, "/auth/login", nil, map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the current user.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var out User
	if err := c.do(ctx, c.coreURL, http.MethodGet, "/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ── Organizations ───────────────────────────────────────────────

func (c *Client) CreateOrg(ctx context.Context, name string) (*Organization, error) {
	var out Organization
	if err := c.do(ctx, c.coreURL, http.MethodPost, "/orgs", nil, map[string]string{"name": name}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListOrgs(ctx context.Context) ([]Organization, error) {
	var out []Organization
	if err := c.do(ctx, c.coreURL, http.MethodGet, "/orgs", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetOrg(ctx context.Context, orgID string) (*Organization, error) {
	var out Organization
	if err := c.do(ctx, c.coreURL, http.MethodGet, "/orgs/"+url.PathEscape(orgID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ── Catalog ─────────────────────────────────────────────────────

func (c *Client) ListIndustries(ctx context.Context) ([]Industry, error) {
	var out []Industry
	if err := c.do(ctx, c.coreURL, http.MethodGet, "/industries", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListRoleTemplates lists role templates, optionally scoped to an industry.
func (c *Client) ListRoleTemplates(ctx context.Context, industryKey string) ([]RoleTemplate, error) {
	query := url.Values{}
	if industryKey != "" {
		query.Set("industry_key", industryKey)
	}
	var out []RoleTemplate
	if err := c.do(ctx, c.coreURL, http.MethodGet, "/role-templates", query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListTools(ctx context.Context) ([]Tool, error) {
	var out []Tool
	if err := c.do(ctx, c.coreURL, http.MethodGet, "/tools", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ── Agents ──────────────────────────────────────────────────────

func (c *Client) CreateAgent(ctx context.Context, orgID string, req CreateAgentRequest) (*Agent, error) {
	if req.ToolIDs == nil {
		req.ToolIDs = []string{}
	}
	var out Agent
	path := "/orgs/" + url.PathEscape(orgID) + "/agents"
	if err := c.do(ctx, c.coreURL, http.MethodPost, path, nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListAgents(ctx context.Context, orgID string) ([]Agent, error) {
	var out []Agent
	path := "/orgs/" + url.PathEscape(orgID) + "/agents"
	if err := c.do(ctx, c.coreURL, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetAgent(ctx context.Context, agentID string) (*Agent, error) {
	var out Agent
	if err := c.do(ctx, c.coreURL, http.MethodGet, "/agents/"+url.PathEscape(agentID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateProfile asks the backend to fill in the agent's system prompt and
// returns the updated agent.
func (c *Client) GenerateProfile(ctx context.Context, agentID string) (*Agent, error) {
	var out Agent
	path := "/agents/" + url.PathEscape(agentID) + "/generate-profile"
	if err := c.do(ctx, c.coreURL, http.MethodPost, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DownloadConfig fetches the agent's deployable config as an opaque blob.
func (c *Client) DownloadConfig(ctx context.Context, agentID string, format ConfigFormat) ([]byte, error) {
	if format == "" {
		format = ConfigYAML
	}
	query := url.Values{"format": []string{string(format)}}
	path := "/agents/" + url.PathEscape(agentID) + "/config"

	req, err := c.newRequest(ctx, c.coreURL, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download config: %w", err)
	}
	defer closeBody(resp.Body, c.log)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read config body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, newError(resp.StatusCode, data)
	}
	return data, nil
}

// ── Documents ───────────────────────────────────────────────────

// UploadDocument sends the file as multipart form data with the fields
// `file` and `source_type`.
func (c *Client) UploadDocument(ctx context.Context, agentID, filename string, content io.Reader, sourceType string) (*Document, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("read upload content: %w", err)
	}
	if err := writer.WriteField("source_type", sourceType); err != nil {
		return nil, fmt.Errorf("build multipart body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalize multipart body: %w", err)
	}

	path := "/agents/" + url.PathEscape(agentID) + "/documents"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.coreURL+path, &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload document: %w", err)
	}
	defer closeBody(resp.Body, c.log)

	var out Document
	if err := decodeResponse(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListDocuments(ctx context.Context, agentID string) ([]Document, error) {
	var out []Document
	path := "/agents/" + url.PathEscape(agentID) + "/documents"
	if err := c.do(ctx, c.coreURL, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SearchDocuments(ctx context.Context, agentID, query string, topK int) (*SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}
	var out SearchResult
	path := "/agents/" + url.PathEscape(agentID) + "/documents/search-docs"
	body := map[string]any{"query": query, "top_k": topK}
	if err := c.do(ctx, c.coreURL, http.MethodPost, path, nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ── Tasks (orchestrator) ────────────────────────────────────────

// RunTask starts a task on an agent and returns the initial snapshot.
func (c *Client) RunTask(ctx context.Context, agentID, taskType string, input map[string]any) (*task.Snapshot, error) {
	var out task.Snapshot
	path := "/agents/" + url.PathEscape(agentID) + "/run-task"
	body := map[string]any{"type": taskType}
	if input != nil {
		body["input"] = input
	}
	if err := c.do(ctx, c.orchURL, http.MethodPost, path, nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTask fetches the latest task snapshot. This is the projector's Fetcher.
func (c *Client) GetTask(ctx context.Context, taskID string) (*task.Snapshot, error) {
	var out task.Snapshot
	if err := c.do(ctx, c.orchURL, http.MethodGet, "/tasks/"+url.PathEscape(taskID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ── Admin ───────────────────────────────────────────────────────

func (c *Client) AdminListTasks(ctx context.Context, filter AdminTaskFilter) ([]task.Snapshot, error) {
	query := url.Values{}
	if filter.OrgID != "" {
		query.Set("org_id", filter.OrgID)
	}
	if filter.AgentID != "" {
		query.Set("agent_id", filter.AgentID)
	}
	if filter.Status != "" {
		query.Set("status", filter.Status)
	}
	if filter.Limit > 0 {
		query.Set("limit", strconv.Itoa(filter.Limit))
	}
	var out []task.Snapshot
	if err := c.do(ctx, c.coreURL, http.MethodGet, "/admin/tasks", query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AdminTaskEvents(ctx context.Context, taskID string) ([]task.Event, error) {
	var out []task.Event
	path := "/admin/tasks/" + url.PathEscape(taskID) + "/events"
	if err := c.do(ctx, c.coreURL, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ── Plumbing ────────────────────────────────────────────────────

func (c *Client) newRequest(ctx context.Context, base, method, path string, query url.Values, body []byte) (*http.Request, error) {
	endpoint := base + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)
	return req, nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.tokens == nil {
		return
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func (c *Client) do(ctx context.Context, base, method, path string, query url.Values, body, out any) error {
	var encoded []byte
	if body != nil {
		var err error
		encoded, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
	}

	req, err := c.newRequest(ctx, base, method, path, query, encoded)
	if err != nil {
		return err
	}

	c.log.Debug("%s %s", method, req.URL.Path)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer closeBody(resp.Body, c.log)

	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out any) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func closeBody(body io.Closer, log *logging.Logger) {
	if err := body.Close(); err != nil {
		log.Warn("close response body: %v", err)
	}
}
