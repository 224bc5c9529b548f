package restapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagprompt/tagprompt/internal/prompt"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(prompt.NewParser(prompt.DefaultOptions()))
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestHealth(t *testing.T) {
	w := do(newTestRouter(), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRequestID(t *testing.T) {
	r := newTestRouter()

	w := do(r, http.MethodGet, "/health", "")
	_, err := uuid.Parse(w.Header().Get(requestIDHeader))
	assert.NoError(t, err)

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, id)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, id, w.Header().Get(requestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "not-a-uuid")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEqual(t, "not-a-uuid", w.Header().Get(requestIDHeader))
}

func TestParse(t *testing.T) {
	w := do(newTestRouter(), http.MethodPost, "/prompt/parse",
		`{"text": "Positive prompt: a, (b:1.2)\nNegative prompt: c\nSeed: 1, Model: x"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Positive  map[string]float64 `json:"positive"`
		Negative  map[string]float64 `json:"negative"`
		Extra     string             `json:"extra"`
		ExtraInfo map[string]string  `json:"extraInfo"`
		Rendered  string             `json:"rendered"`
	}
	decode(t, w, &resp)

	assert.Equal(t, map[string]float64{"a": 1, "b": 1.2}, resp.Positive)
	assert.Equal(t, map[string]float64{"c": 1}, resp.Negative)
	assert.Equal(t, "Seed: 1, Model: x", resp.Extra)
	assert.Equal(t, map[string]string{"Seed": "1", "Model": "x"}, resp.ExtraInfo)
	assert.Equal(t, "Positive prompt: (b:1.20), a\nNegative prompt: c\n\nSeed: 1, Model: x", resp.Rendered)

	body := w.Body.String()
	assert.Less(t, strings.Index(body, `"b"`), strings.Index(body, `"a"`), "positive keeps token order")
}

func TestParseWithoutWeights(t *testing.T) {
	w := do(newTestRouter(), http.MethodPost, "/prompt/parse",
		`{"text": "((a)), b", "includeWeight": false}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Positive *prompt.TagWeightTable `json:"positive"`
		Rendered string                 `json:"rendered"`
	}
	decode(t, w, &resp)
	assert.Equal(t, "Positive prompt: a, b", resp.Rendered)
	assert.Equal(t, []string{"a", "b"}, resp.Positive.Tags())
}

func TestBadRequests(t *testing.T) {
	r := newTestRouter()
	tests := []struct {
		path string
		body string
	}{
		{"/prompt/parse", `{"text": "   "}`},
		{"/prompt/parse", `not json`},
		{"/prompt/split", `{}`},
		{"/prompt/extra", `{"text": 3}`},
		{"/prompt/analyze", `{}`},
		{"/prompt/format", `{"tags": ["a"]}`},
		{"/prompt/merge", `{"base": {"a": 1}}`},
	}
	for _, tc := range tests {
		w := do(r, http.MethodPost, tc.path, tc.body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "%s %s", tc.path, tc.body)
		assert.Contains(t, w.Body.String(), `"error"`)
	}
}

func TestAnalyze(t *testing.T) {
	w := do(newTestRouter(), http.MethodPost, "/prompt/analyze",
		`{"tokens": ["((abc))", "<lora:add_detail>", "{a|b}"]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp []AnalyzeResult
	decode(t, w, &resp)
	require.Len(t, resp, 3)
	assert.Equal(t, []prompt.Pair{{Tag: "abc", Weight: 1.21}}, resp[0].Pairs)
	assert.Equal(t, []prompt.Pair{{Tag: "lora:add_detail", Weight: 0}}, resp[1].Pairs)
	assert.Equal(t, []prompt.Pair{{Tag: "a", Weight: 1}, {Tag: "b", Weight: 1}}, resp[2].Pairs)
}

func TestSplit(t *testing.T) {
	w := do(newTestRouter(), http.MethodPost, "/prompt/split",
		`{"text": "tag1, (tag2:1.2)\nNegative prompt: [bad]\nSteps: 20, Seed: 1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp SplitResponse
	decode(t, w, &resp)
	assert.Equal(t, [][]string{{"(tag2:1.2)", "tag1"}}, resp.Positive)
	assert.Equal(t, [][]string{{"[bad]"}}, resp.Negative)
	assert.Equal(t, "Steps: 20, Seed: 1", resp.Extra)
}

func TestFormat(t *testing.T) {
	r := newTestRouter()

	w := do(r, http.MethodPost, "/prompt/format", `{"tags": {"a": 1, "b": 1.21, "<lora:x>": 0.5, "artist:foo": 1.1}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"text": "a, (b:1.21), <lora:x:0.50>, (artist:foo:1.10)"}`, w.Body.String())

	w = do(r, http.MethodPost, "/prompt/format", `{"tags": {"a": 1, "b": 1.21}, "includeWeight": false}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"text": "a, b"}`, w.Body.String())
}

func TestMerge(t *testing.T) {
	r := newTestRouter()

	w := do(r, http.MethodPost, "/prompt/merge", `{"base": {"a": 1.0}, "update": {"a": 2.5, "b": 3.0}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"merged": {"a": 1.1, "b": 3}}`, w.Body.String())

	w = do(r, http.MethodPost, "/prompt/merge", `{"update": {"b": 0.5}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"merged": {"b": 0.5}}`, w.Body.String())
}

func TestExtra(t *testing.T) {
	w := do(newTestRouter(), http.MethodPost, "/prompt/extra", `{"text": "Steps: 20, Sampler: Euler a\nSteps: 30"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		ExtraInfo map[string]string `json:"extraInfo"`
		Formatted string            `json:"formatted"`
	}
	decode(t, w, &resp)
	assert.Equal(t, map[string]string{"Steps": "30", "Sampler": "Euler a"}, resp.ExtraInfo)
	assert.Equal(t, "Steps: 30\nSampler: Euler a", resp.Formatted)
}
