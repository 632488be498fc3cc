package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solatis/policykeeper/internal/casecheck"
	"github.com/solatis/policykeeper/internal/core/auth"
	"github.com/solatis/policykeeper/internal/extract"
	"github.com/solatis/policykeeper/internal/generate"
	"github.com/solatis/policykeeper/internal/policy"
	"github.com/solatis/policykeeper/internal/store"
	"github.com/solatis/policykeeper/internal/types"
)

type stubGenerator struct {
	err  error
	last generate.Input
}

func (s *stubGenerator) Generate(_ context.Context, in generate.Input) (*generate.GeneratedPolicy, error) {
	s.last = in
	if s.err != nil {
		return nil, s.err
	}
	return &generate.GeneratedPolicy{
		Workflow:     []types.WorkflowStep{{Step: "Review", Description: "Review the request."}},
		DecisionTree: generate.FallbackTree(in.Title),
		Checklist:    []string{"Identity verified"},
	}, nil
}

type stubExtractor struct {
	policyID string
	pdf      []byte
	result   *extract.Result
	err      error
}

func (s *stubExtractor) ExtractCase(_ context.Context, policyID string, pdf []byte) (*extract.Result, error) {
	s.policyID = policyID
	s.pdf = pdf
	return s.result, s.err
}

type fixture struct {
	server    *httptest.Server
	store     store.PolicyStore
	generator *stubGenerator
	extractor *stubExtractor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithLimit(t, 64<<10)
}

func newFixtureWithLimit(t *testing.T, maxBody int64) *fixture {
	t.Helper()
	f := &fixture{
		store:     store.NewMemory(),
		generator: &stubGenerator{},
		extractor: &stubExtractor{},
	}
	h := NewHandler(Options{
		Policies:       policy.NewService(f.store, f.generator, nil),
		Cases:          casecheck.NewChecker(f.store),
		Extractor:      f.extractor,
		MaxUploadBytes: maxBody,
	})
	f.server = httptest.NewServer(h.Routes(5 * time.Second))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fixture) do(t *testing.T, method, path, userID string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, f.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(auth.UserIDHeader, userID)
	}
	return send(t, req)
}

func send(t *testing.T, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func decodeError(t *testing.T, body []byte) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	require.NoError(t, json.Unmarshal(body, &e), string(body))
	return e
}

func (f *fixture) createPolicy(t *testing.T, userID string, rules []map[string]any) types.Policy {
	t.Helper()
	resp, body := f.do(t, http.MethodPost, "/api/policies/generate", userID, map[string]any{
		"title":      "Housing grant",
		"policyText": "Applicants must be adults.",
		"rules":      rules,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var p types.Policy
	require.NoError(t, json.Unmarshal(body, &p))
	return p
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	resp, body := f.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestGeneratePolicy(t *testing.T) {
	f := newFixture(t)
	p := f.createPolicy(t, "officer-7", []map[string]any{
		{"field": "age", "operator": ">=", "value": 18, "description": "Adult"},
	})

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Housing grant", p.Title)
	assert.Equal(t, "officer-7", p.UserID)
	require.Len(t, p.Rules, 1)
	assert.NotEmpty(t, p.Rules[0].ID)
	require.Len(t, p.Checklist, 1)
	assert.False(t, p.Checklist[0].Completed)
	require.NotNil(t, p.DecisionTree)
	assert.Equal(t, "Applicants must be adults.", f.generator.last.PolicyText)
}

func TestGeneratePolicy_InvalidRequests(t *testing.T) {
	tests := []struct {
		name string
		body any
		want string
	}{
		{"malformed json", `{"title":`, "malformed JSON"},
		{"missing title", map[string]any{"policyText": "x"}, "title is required"},
		{"no text or document", map[string]any{"title": "T"}, "one of pdfBase64 or policyText is required"},
		{"bad operator", map[string]any{
			"title": "T", "policyText": "x",
			"rules": []map[string]any{{"field": "age", "operator": "=~", "value": 1}},
		}, "invalid operator"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			resp, body := f.do(t, http.MethodPost, "/api/policies/generate", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			e := decodeError(t, body)
			assert.Equal(t, CodeInvalidRequest, e.Code)
			assert.Contains(t, e.Error, tt.want)
		})
	}
}

func TestGeneratePolicy_TextLimitCountsBytes(t *testing.T) {
	f := newFixtureWithLimit(t, 1<<20)
	text := strings.Repeat("é", types.MaxPolicyTextLength/2+1)

	resp, body := f.do(t, http.MethodPost, "/api/policies/generate", "", map[string]any{
		"title": "T", "policyText": text,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decodeError(t, body).Error, "policyText exceeds")
	assert.Empty(t, f.generator.last.Title)
}

func TestGeneratePolicy_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		status     int
		code       string
		retryable  bool
		raw        string
		retryAfter string
	}{
		{
			name:       "rate limited",
			err:        fmt.Errorf("generate: %w", types.ErrRateLimited),
			status:     http.StatusTooManyRequests,
			code:       CodeRateLimited,
			retryable:  true,
			retryAfter: retryAfterSeconds,
		},
		{
			name:   "malformed output",
			err:    &types.OutputError{Kind: types.ErrMalformedOutput, Reason: "no JSON object", Raw: "sorry"},
			status: http.StatusBadGateway,
			code:   CodeMalformedOutput,
			raw:    "sorry",
		},
		{
			name:      "upstream",
			err:       fmt.Errorf("generate: %w", types.ErrUpstream),
			status:    http.StatusBadGateway,
			code:      CodeUpstream,
			retryable: true,
		},
		{
			name:   "internal",
			err:    errors.New("disk on fire"),
			status: http.StatusInternalServerError,
			code:   CodeInternal,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.generator.err = tt.err
			resp, body := f.do(t, http.MethodPost, "/api/policies/generate", "", map[string]any{
				"title": "T", "policyText": "x",
			})
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.retryAfter, resp.Header.Get("Retry-After"))
			e := decodeError(t, body)
			assert.Equal(t, tt.code, e.Code)
			assert.Equal(t, tt.retryable, e.Retryable)
			assert.Equal(t, tt.raw, e.RawResponse)
			assert.NotContains(t, e.Error, "disk on fire")

			list, err := f.store.List(context.Background(), "")
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestListPolicies(t *testing.T) {
	f := newFixture(t)
	first := f.createPolicy(t, "alice", nil)
	second := f.createPolicy(t, "bob", nil)
	third := f.createPolicy(t, "alice", nil)

	list := func(path, user string) []string {
		resp, body := f.do(t, http.MethodGet, path, user, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
		var out listResponse
		require.NoError(t, json.Unmarshal(body, &out))
		ids := make([]string, 0, len(out.Policies))
		for _, p := range out.Policies {
			ids = append(ids, p.ID)
		}
		return ids
	}

	assert.Equal(t, []string{third.ID, second.ID, first.ID}, list("/api/policies", ""))
	assert.Equal(t, []string{third.ID, first.ID}, list("/api/policies", "alice"))
	assert.Equal(t, []string{second.ID}, list("/api/policies?userId=bob", "alice"))
}

func TestGetPolicy(t *testing.T) {
	f := newFixture(t)
	p := f.createPolicy(t, "", nil)

	resp, body := f.do(t, http.MethodGet, "/api/policies/"+p.ID, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got types.Policy
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, p.ID, got.ID)

	resp, body = f.do(t, http.MethodGet, "/api/policies/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, CodeNotFound, decodeError(t, body).Code)
}

func TestUpdateChecklist(t *testing.T) {
	f := newFixture(t)
	p := f.createPolicy(t, "", nil)
	items := p.Checklist
	items[0].Completed = true

	resp, body := f.do(t, http.MethodPatch, "/api/policies/"+p.ID+"/checklist", "", map[string]any{"checklist": items})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var got types.Policy
	require.NoError(t, json.Unmarshal(body, &got))
	assert.True(t, got.Checklist[0].Completed)

	resp, _ = f.do(t, http.MethodPatch, "/api/policies/"+p.ID+"/checklist", "", map[string]any{
		"checklist": []map[string]any{{"id": "", "title": "x"}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPatch, "/api/policies/"+p.ID+"/checklist", "", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPatch, "/api/policies/missing/checklist", "", map[string]any{"checklist": items})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestValidateCase(t *testing.T) {
	f := newFixture(t)
	p := f.createPolicy(t, "", []map[string]any{
		{"id": "adult", "field": "age", "operator": ">=", "value": 18},
		{"id": "country", "field": "country", "operator": "==", "value": "NL"},
	})

	tests := []struct {
		name     string
		caseData string
		want     types.Status
	}{
		{"approved", `{"age": "21", "country": "NL"}`, types.StatusApproved},
		{"rejected", `{"age": 12, "country": "NL"}`, types.StatusRejected},
		{"needs review", `{"age": 30}`, types.StatusNeedsReview},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := fmt.Sprintf(`{"policyId": %q, "caseData": %s}`, p.ID, tt.caseData)
			resp, raw := f.do(t, http.MethodPost, "/api/validate-case", "", body)
			require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
			var result types.ValidationResult
			require.NoError(t, json.Unmarshal(raw, &result))
			assert.Equal(t, tt.want, result.Status)
			require.Len(t, result.Results, 2)
			assert.Equal(t, "adult", result.Results[0].RuleID)
		})
	}
}

func TestValidateCase_Errors(t *testing.T) {
	f := newFixture(t)
	p := f.createPolicy(t, "", nil)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"missing policy id", `{"caseData": {}}`, http.StatusBadRequest},
		{"missing case data", fmt.Sprintf(`{"policyId": %q}`, p.ID), http.StatusBadRequest},
		{"nested case data", fmt.Sprintf(`{"policyId": %q, "caseData": {"a": {"b": 1}}}`, p.ID), http.StatusBadRequest},
		{"array case data", fmt.Sprintf(`{"policyId": %q, "caseData": [1]}`, p.ID), http.StatusBadRequest},
		{"unknown policy", `{"policyId": "nope", "caseData": {}}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := f.do(t, http.MethodPost, "/api/validate-case", "", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func multipartRequest(t *testing.T, url string, fields map[string]string, file []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if file != nil {
		fw, err := mw.CreateFormFile("file", "case.pdf")
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestExtractCase(t *testing.T) {
	f := newFixture(t)
	f.extractor.result = &extract.Result{
		ExtractedData:    types.CaseData{"age": 30.0},
		ValidationResult: types.ValidationResult{Status: types.StatusApproved, Results: []types.RuleResult{}},
	}
	pdf := []byte("%PDF-1.7 fake")

	resp, body := send(t, multipartRequest(t, f.server.URL+"/api/extract-case", map[string]string{"policyId": "p1"}, pdf))
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.JSONEq(t, `{"extractedData":{"age":30},"status":"approved","results":[]}`, string(body))
	assert.Equal(t, "p1", f.extractor.policyID)
	assert.Equal(t, pdf, f.extractor.pdf)
}

func TestExtractCase_Errors(t *testing.T) {
	pdf := []byte("%PDF-1.4")
	tests := []struct {
		name   string
		fields map[string]string
		file   []byte
		err    error
		status int
		raw    string
	}{
		{name: "missing policy id", file: pdf, status: http.StatusBadRequest},
		{name: "missing file", fields: map[string]string{"policyId": "p1"}, status: http.StatusBadRequest},
		{name: "not a pdf", fields: map[string]string{"policyId": "p1"}, file: []byte("hello"), status: http.StatusBadRequest},
		{name: "too large", fields: map[string]string{"policyId": "p1"}, file: append([]byte("%PDF-"), make([]byte, 128<<10)...), status: http.StatusBadRequest},
		{
			name:   "extraction failed",
			fields: map[string]string{"policyId": "p1"},
			file:   pdf,
			err:    &types.OutputError{Kind: types.ErrExtractionFailed, Reason: "no JSON", Raw: "I cannot read this"},
			status: http.StatusUnprocessableEntity,
			raw:    "I cannot read this",
		},
		{
			name:   "unknown policy",
			fields: map[string]string{"policyId": "p1"},
			file:   pdf,
			err:    types.ErrPolicyNotFound,
			status: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.extractor.err = tt.err
			resp, body := send(t, multipartRequest(t, f.server.URL+"/api/extract-case", tt.fields, tt.file))
			assert.Equal(t, tt.status, resp.StatusCode, string(body))
			assert.Equal(t, tt.raw, decodeError(t, body).RawResponse)
		})
	}
}

func TestMalformedIdentity(t *testing.T) {
	f := newFixture(t)
	resp, body := f.do(t, http.MethodGet, "/api/policies", "bad id", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, CodeInvalidRequest, decodeError(t, body).Code)
}
