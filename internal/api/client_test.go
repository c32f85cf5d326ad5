package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"phi/internal/task"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func newTestClient(t *testing.T, handler http.Handler, token string) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient(server.URL, server.URL, staticToken(token), 5*time.Second)
	return client, server
}

func TestClientAttachesBearerToken(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Fatalf("expected bearer token, got %q", got)
		}
		w.Write([]byte(`{"id": "u1", "email": "a@b.c", "created_at": "2026-08-01T00:00:00Z"}`))
	}), "tok-1")

	user, err := client.Me(context.Background())
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if user.ID != "u1" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestClientOmitsAuthorizationWithoutToken(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "" {
			t.Fatalf("expected no Authorization header, got %q", got)
		}
		w.Write([]byte(`[]`))
	}), "")

	if _, err := client.ListOrgs(context.Background()); err != nil {
		t.Fatalf("ListOrgs: %v", err)
	}
}

func TestClientSurfacesErrorDetail(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail": "Invalid credentials"}`))
	}), "")

	_, err := client.Login(context.Background(), "a@b.c", "nope")
	if err == nil {
		t.Fatal("expected error")
	}
	apiErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status code: %d", apiErr.StatusCode)
	}
	if apiErr.Error() != "Invalid credentials" {
		t.Fatalf("detail not surfaced verbatim: %q", apiErr.Error())
	}
}

func TestClientSurfacesNonJSONErrorBody(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream unavailable"))
	}), "")

	_, err := client.GetOrg(context.Background(), "o1")
	if err == nil || err.Error() != "upstream unavailable" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestListRoleTemplatesQuery(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/role-templates" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("industry_key"); got != "logistics" {
			t.Fatalf("industry_key query: %q", got)
		}
		w.Write([]byte(`[{"id": "rt1", "industry_id": "i1", "key": "wh", "name": "Warehouse Analyst"}]`))
	}), "tok")

	templates, err := client.ListRoleTemplates(context.Background(), "logistics")
	if err != nil {
		t.Fatalf("ListRoleTemplates: %v", err)
	}
	if len(templates) != 1 || templates[0].Key != "wh" {
		t.Fatalf("unexpected templates: %+v", templates)
	}
}

func TestUploadDocumentMultipartFields(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/agents/a1/documents" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("source_type"); got != "UPLOAD" {
			t.Fatalf("source_type field: %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("file field: %v", err)
		}
		defer file.Close()
		if header.Filename != "handbook.pdf" {
			t.Fatalf("filename: %q", header.Filename)
		}
		w.Write([]byte(`{"id": "d1", "org_id": "o1", "name": "handbook.pdf", "source_type": "UPLOAD", "storage_path": "/x", "created_at": "2026-08-01T00:00:00Z"}`))
	}), "tok")

	doc, err := client.UploadDocument(context.Background(), "a1", "handbook.pdf", strings.NewReader("pdf bytes"), "UPLOAD")
	if err != nil {
		t.Fatalf("UploadDocument: %v", err)
	}
	if doc.ID != "d1" {
		t.Fatalf("unexpected document: %+v", doc)
	}
}

func TestDownloadConfigReturnsOpaqueBlob(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("format"); got != "yaml" {
			t.Fatalf("format query: %q", got)
		}
		w.Header().Set("Content-Type", "application/x-yaml")
		w.Write([]byte("agent:\n  name: demo\n"))
	}), "tok")

	blob, err := client.DownloadConfig(context.Background(), "a1", ConfigYAML)
	if err != nil {
		t.Fatalf("DownloadConfig: %v", err)
	}
	if string(blob) != "agent:\n  name: demo\n" {
		t.Fatalf("blob altered: %q", blob)
	}
}

func TestRunTaskAndGetTask(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/agents/a1/run-task":
			w.Write([]byte(`{"id": "t1", "agent_id": "a1", "org_id": "o1", "type": "DAILY_WAREHOUSE_REPORT", "status": "PENDING", "created_at": "2026-08-01T00:00:00Z", "updated_at": "2026-08-01T00:00:00Z"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/tasks/t1":
			w.Write([]byte(`{"id": "t1", "agent_id": "a1", "org_id": "o1", "type": "DAILY_WAREHOUSE_REPORT", "status": "RUNNING", "progress": 40, "created_at": "2026-08-01T00:00:00Z", "updated_at": "2026-08-01T00:00:10Z"}`))
		default:
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}), "tok")

	started, err := client.RunTask(context.Background(), "a1", "DAILY_WAREHOUSE_REPORT", nil)
	if err != nil {
		t.Fatalf("RunTask: %v", err)
	}
	if started.ID != "t1" || started.Status != task.StatusPending {
		t.Fatalf("unexpected started task: %+v", started)
	}

	snap, err := client.GetTask(context.Background(), "t1")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if snap.Status != task.StatusRunning || snap.Progress == nil || *snap.Progress != 40 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestAdminListTasksFilterQuery(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("org_id") != "org1" || q.Get("status") != "FAILED" || q.Get("limit") != "100" {
			t.Fatalf("unexpected filter query: %v", q)
		}
		if q.Has("agent_id") {
			t.Fatalf("empty filters must be omitted: %v", q)
		}
		w.Write([]byte(`[{"id": "t9", "agent_id": "a1", "org_id": "org1", "type": "DAILY_WAREHOUSE_REPORT", "status": "FAILED", "error": "tool timeout", "created_at": "2026-08-01T00:00:00Z", "updated_at": "2026-08-01T00:01:00Z"}]`))
	}), "tok")

	tasks, err := client.AdminListTasks(context.Background(), AdminTaskFilter{OrgID: "org1", Status: "FAILED", Limit: 100})
	if err != nil {
		t.Fatalf("AdminListTasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Error != "tool timeout" {
		t.Fatalf("unexpected tasks: %+v", tasks)
	}
}

func TestAdminTaskEvents(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/admin/tasks/t1/events" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`[{"id": "e1", "task_id": "t1", "timestamp": "2026-08-01T00:00:05Z", "event_type": "WORKFLOW_STARTED"}]`))
	}), "tok")

	events, err := client.AdminTaskEvents(context.Background(), "t1")
	if err != nil {
		t.Fatalf("AdminTaskEvents: %v", err)
	}
	if len(events) != 1 || events[0].EventType != "WORKFLOW_STARTED" {
		t.Fatalf("unexpected events: %+v", events)
	}
}
