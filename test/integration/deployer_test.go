package integration

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orchestrator-tools/deploy/internal/deploy"
	"github.com/orchestrator-tools/deploy/internal/jsonval"
	"github.com/orchestrator-tools/deploy/internal/orchestrator"
	"github.com/orchestrator-tools/deploy/internal/printer"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// fakeOrchestrator is an in-memory model of just enough of the orchestrator's
// HTTP contract (§6.2) to drive a deploy end to end: app create/get, with
// one running task recorded at create time, and an always-empty deployments
// queue.
type fakeOrchestrator struct {
	app *jsonval.Object
}

func (f *fakeOrchestrator) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/v2/apps", func(w http.ResponseWriter, r *http.Request) {
		body := make([]byte, r.ContentLength)
		_, _ = r.Body.Read(body)
		v, err := jsonval.Parse(body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		obj, _ := v.AsObject()
		obj.Set("version", jsonval.String("2026-01-01T00:00:01Z"))
		tasks := jsonval.NewArray()
		taskObj := jsonval.NewObject()
		id, _ := obj.Get("id")
		idStr, _ := id.AsString()
		taskObj.Set("appId", jsonval.String(idStr))
		taskObj.Set("state", jsonval.String("TASK_RUNNING"))
		taskObj.Set("version", jsonval.String("2026-01-01T00:00:01Z"))
		tasks.Append(jsonval.FromObject(taskObj))
		obj.Set("tasks", jsonval.FromArray(tasks))
		f.app = obj

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"version":"2026-01-01T00:00:01Z"}`))
	})

	mux.HandleFunc("/v2/apps/", func(w http.ResponseWriter, r *http.Request) {
		if f.app == nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		out, err := jsonval.MarshalOrdered(jsonval.FromObject(f.app))
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"app":` + string(out) + `}`))
	})

	mux.HandleFunc("/v2/deployments", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`[]`))
	})

	return mux
}

// TestDeployCreatesAndConvergesAgainstFakeOrchestrator drives deploy.Deployer
// end to end: an absent application is created, its version and instance
// count converge on the first poll, and the deployment queue is already
// clear.
func TestDeployCreatesAndConvergesAgainstFakeOrchestrator(t *testing.T) {
	fake := &fakeOrchestrator{}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := orchestrator.New(srv.URL, "test-token")
	dep := deploy.New(client, printer.New(&bytes.Buffer{}), nopLogger{}, deploy.WithPollInterval(time.Millisecond))

	app := jsonval.NewObject()
	app.Set("id", jsonval.String("/team/web"))
	app.Set("instances", jsonval.Number(1))

	require.NoError(t, dep.Deploy(t.Context(), app))
	require.NotNil(t, fake.app)
	idVal, _ := fake.app.Get("id")
	id, _ := idVal.AsString()
	assert.Equal(t, "/team/web", id)
}

// TestDeleteGroupWalksNestedSubgroups exercises DeleteGroup against a fake
// group tree two levels deep.
func TestDeleteGroupWalksNestedSubgroups(t *testing.T) {
	var deletedOrder []string

	mux := http.NewServeMux()
	mux.HandleFunc("/v2/groups/team", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"id":"/team","groups":[{"id":"/team/sub","groups":[{"id":"/team/sub/leaf","groups":[]}]}]}`))
		case http.MethodDelete:
			deletedOrder = append(deletedOrder, "team")
			w.WriteHeader(http.StatusOK)
		}
	})
	mux.HandleFunc("/v2/groups", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/v2/groups/team/sub/leaf", func(w http.ResponseWriter, r *http.Request) {
		deletedOrder = append(deletedOrder, "/team/sub/leaf")
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/v2/groups/team/sub", func(w http.ResponseWriter, r *http.Request) {
		deletedOrder = append(deletedOrder, "/team/sub")
		w.WriteHeader(http.StatusOK)
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := orchestrator.New(srv.URL, "test-token")
	dep := deploy.New(client, printer.New(&bytes.Buffer{}), nopLogger{})

	require.NoError(t, dep.DeleteGroup(t.Context(), "team"))
	require.Equal(t, []string{"/team/sub/leaf", "/team/sub", "team"}, deletedOrder)
}
