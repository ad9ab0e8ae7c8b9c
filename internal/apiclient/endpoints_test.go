package apiclient

import (
	"context"
	"net/http"
	"testing"

	"github.com/pscheid92/applyme/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin_ReturnsToken(t *testing.T) {
	api, srv := newFakeAPI(t, http.StatusOK, `{"token":"jwt-abc"}`)
	client := New(srv.URL)

	result, err := client.Login(context.Background(), "", domain.Credentials{Email: "a@x.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "jwt-abc", result.Token)

	got := api.last(t)
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/auth/login", got.Path)
	assert.JSONEq(t, `{"email":"a@x.com","password":"pw"}`, got.Body)
}

func TestLogin_BadCredentials(t *testing.T) {
	_, srv := newFakeAPI(t, http.StatusUnauthorized, `{"detail":"bad credentials"}`)
	client := New(srv.URL)

	result, err := client.Login(context.Background(), "", domain.Credentials{Email: "a@x.com", Password: "pw"})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, "bad credentials", domain.StatusMessage(err))
}

func TestSignup_SendsExistingToken(t *testing.T) {
	api, srv := newFakeAPI(t, http.StatusOK, `{"token":"new"}`)
	client := New(srv.URL)

	result, err := client.Signup(context.Background(), "old", domain.Credentials{Email: "b@x.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "new", result.Token)

	got := api.last(t)
	assert.Equal(t, "/auth/signup", got.Path)
	assert.Equal(t, "Bearer old", got.Authorization)
}

func TestSignup_UnparseableBodyYieldsEmptyToken(t *testing.T) {
	_, srv := newFakeAPI(t, http.StatusOK, `oops`)
	client := New(srv.URL)

	result, err := client.Signup(context.Background(), "", domain.Credentials{})
	require.NoError(t, err)
	assert.Empty(t, result.Token)
}

func TestCreateBatch(t *testing.T) {
	api, srv := newFakeAPI(t, http.StatusOK, `{"batchId":"b-42","status":"running"}`)
	client := New(srv.URL)

	batch, err := client.CreateBatch(context.Background(), "tok", domain.BatchRequest{Field: "engineering", Location: "remote", JobType: "full-time"})
	require.NoError(t, err)

	assert.Equal(t, "b-42", batch.ID)
	assert.Equal(t, "running", batch.Status)
	assert.Equal(t, "engineering", batch.Field)

	got := api.last(t)
	assert.Equal(t, "/batches", got.Path)
	assert.Equal(t, "Bearer tok", got.Authorization)
	assert.JSONEq(t, `{"field":"engineering","location":"remote","job_type":"full-time"}`, got.Body)
}

func TestCreateBatch_NumericID(t *testing.T) {
	_, srv := newFakeAPI(t, http.StatusOK, `{"batchId":42}`)
	client := New(srv.URL)

	batch, err := client.CreateBatch(context.Background(), "tok", domain.BatchRequest{})
	require.NoError(t, err)
	assert.Equal(t, "42", batch.ID)
}

func TestCreateBatch_MissingToken(t *testing.T) {
	_, srv := newFakeAPI(t, http.StatusUnauthorized, `{"detail":"Missing token"}`)
	client := New(srv.URL)

	_, err := client.CreateBatch(context.Background(), "", domain.BatchRequest{})
	require.Error(t, err)
	assert.Equal(t, "Missing token", domain.StatusMessage(err))
}

func TestDashboard(t *testing.T) {
	body := `{
		"batch": {"id": "b-42", "status": "running", "field": "engineering", "location": "remote", "job_type": "full-time", "user_id": "u-1"},
		"applications": [
			{"company": "Acme", "job_url": "https://acme.test/jobs/1", "title": "Backend", "status": "applied", "recruiter_email": null},
			{"company": null, "job_url": "https://beta.test/2", "title": null, "status": "error", "error": "timeout"}
		]
	}`
	api, srv := newFakeAPI(t, http.StatusOK, body)
	client := New(srv.URL)

	dash, err := client.Dashboard(context.Background(), "tok", "b-42")
	require.NoError(t, err)

	assert.Equal(t, "/dashboard/b-42", api.last(t).Path)
	assert.Equal(t, domain.Batch{ID: "b-42", Status: "running", Field: "engineering", Location: "remote", JobType: "full-time"}, dash.Batch)
	require.Len(t, dash.Applications, 2)
	assert.Equal(t, domain.Application{Company: "Acme", JobURL: "https://acme.test/jobs/1", Title: "Backend", Status: "applied"}, dash.Applications[0])
	assert.Equal(t, "timeout", dash.Applications[1].Error)
	assert.Empty(t, dash.Applications[1].Company)
}

func TestDashboard_EscapesBatchID(t *testing.T) {
	api, srv := newFakeAPI(t, http.StatusOK, `{"applications":[]}`)
	client := New(srv.URL)

	_, err := client.Dashboard(context.Background(), "tok", "a/b c")
	require.NoError(t, err)
	assert.Equal(t, "/dashboard/a%2Fb%20c", api.last(t).Path)
}

func TestDashboard_MissingApplications(t *testing.T) {
	_, srv := newFakeAPI(t, http.StatusOK, `{}`)
	client := New(srv.URL)

	dash, err := client.Dashboard(context.Background(), "tok", "b-1")
	require.NoError(t, err)
	assert.Empty(t, dash.Applications)
}

func TestDashboard_WrongShape(t *testing.T) {
	_, srv := newFakeAPI(t, http.StatusOK, `{"applications":"nope"}`)
	client := New(srv.URL)

	_, err := client.Dashboard(context.Background(), "tok", "b-1")
	require.Error(t, err)

	var reqErr *domain.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusOK, reqErr.Status)
	assert.Contains(t, reqErr.Message, "unexpected response shape")
}

func TestDashboard_NotFound(t *testing.T) {
	_, srv := newFakeAPI(t, http.StatusNotFound, `{"detail":"Batch not found"}`)
	client := New(srv.URL)

	_, err := client.Dashboard(context.Background(), "tok", "missing")
	require.Error(t, err)
	assert.Equal(t, "Batch not found", domain.StatusMessage(err))
}

func TestHealth(t *testing.T) {
	_, srv := newFakeAPI(t, http.StatusOK, `{"ok":true}`)
	require.NoError(t, New(srv.URL).Health(context.Background()))

	_, down := newFakeAPI(t, http.StatusServiceUnavailable, ``)
	err := New(down.URL).Health(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 503")
}

func TestLogin_NumericToken(t *testing.T) {
	_, srv := newFakeAPI(t, http.StatusOK, `{"token":12345}`)
	client := New(srv.URL)

	result, err := client.Login(context.Background(), "", domain.Credentials{Email: "a@x.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "12345", result.Token)
}

func TestDashboard_OffTypeFieldsAreText(t *testing.T) {
	body := `{
		"batch": {"id": 7, "status": null, "user_id": 3, "created_at": "2024-01-01T00:00:00"},
		"applications": [
			{"id": 1, "batch_id": 7, "company": 42, "job_url": "https://acme.test/1", "title": true, "status": "applied", "created_at": "2024-01-01T00:00:00"},
			{"company": {"name": "Acme"}, "status": ["a", "b"]}
		]
	}`
	_, srv := newFakeAPI(t, http.StatusOK, body)
	client := New(srv.URL)

	dash, err := client.Dashboard(context.Background(), "tok", "7")
	require.NoError(t, err)

	assert.Equal(t, "7", dash.Batch.ID)
	assert.Empty(t, dash.Batch.Status)
	require.Len(t, dash.Applications, 2)
	assert.Equal(t, domain.Application{Company: "42", JobURL: "https://acme.test/1", Title: "true", Status: "applied"}, dash.Applications[0])
	assert.Equal(t, `{"name":"Acme"}`, dash.Applications[1].Company)
	assert.Equal(t, `["a","b"]`, dash.Applications[1].Status)
}

func TestCreateBatch_OffTypeStatus(t *testing.T) {
	_, srv := newFakeAPI(t, http.StatusOK, `{"batchId":"b-1","status":0}`)
	client := New(srv.URL)

	batch, err := client.CreateBatch(context.Background(), "tok", domain.BatchRequest{})
	require.NoError(t, err)
	assert.Equal(t, "b-1", batch.ID)
	assert.Equal(t, "0", batch.Status)
}
