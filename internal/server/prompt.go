package restapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/tagprompt/tagprompt/internal/i18n"
	debuglog "github.com/tagprompt/tagprompt/internal/log"
	"github.com/tagprompt/tagprompt/internal/prompt"
)

type PromptHandler struct {
	parser *prompt.Parser
}

func NewPromptHandler(r *gin.Engine, parser *prompt.Parser) *PromptHandler {
	if parser == nil {
		parser = prompt.NewParser(prompt.DefaultOptions())
	}

	handler := &PromptHandler{parser: parser}
	group := r.Group("/prompt")
	group.POST("/parse", handler.Parse)
	group.POST("/analyze", handler.Analyze)
	group.POST("/split", handler.Split)
	group.POST("/format", handler.Format)
	group.POST("/merge", handler.Merge)
	group.POST("/extra", handler.Extra)

	return handler
}

type TextRequest struct {
	Text string `json:"text"`
	// IncludeWeight defaults to true.
	IncludeWeight *bool `json:"includeWeight,omitempty"`
	ReformatExtra bool  `json:"reformatExtra,omitempty"`
}

func (r TextRequest) includeWeight() bool {
	return r.IncludeWeight == nil || *r.IncludeWeight
}

type ParseResponse struct {
	Positive  *prompt.TagWeightTable                 `json:"positive"`
	Negative  *prompt.TagWeightTable                 `json:"negative"`
	Extra     string                                 `json:"extra"`
	ExtraInfo *orderedmap.OrderedMap[string, string] `json:"extraInfo"`
	Rendered  string                                 `json:"rendered"`
}

type AnalyzeRequest struct {
	Tokens []string `json:"tokens" binding:"required"`
}

type AnalyzeResult struct {
	Token string        `json:"token"`
	Pairs []prompt.Pair `json:"pairs"`
}

type SplitResponse struct {
	Positive [][]string `json:"positive"`
	Negative [][]string `json:"negative"`
	Extra    string     `json:"extra"`
}

type FormatRequest struct {
	Tags          *prompt.TagWeightTable `json:"tags" binding:"required"`
	IncludeWeight *bool                  `json:"includeWeight,omitempty"`
}

type MergeRequest struct {
	Base   *prompt.TagWeightTable `json:"base"`
	Update *prompt.TagWeightTable `json:"update" binding:"required"`
}

type ExtraResponse struct {
	ExtraInfo *orderedmap.OrderedMap[string, string] `json:"extraInfo"`
	Formatted string                                 `json:"formatted"`
}

// bindText decodes a TextRequest and rejects blank text.
func bindText(c *gin.Context) (req TextRequest, ok bool) {
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, i18n.T("server_error_invalid_request"), err)
		return req, false
	}
	if strings.TrimSpace(req.Text) == "" {
		badRequest(c, i18n.T("server_error_empty_text"), nil)
		return req, false
	}
	return req, true
}

func badRequest(c *gin.Context, message string, err error) {
	body := gin.H{"error": message}
	if err != nil {
		body["detail"] = err.Error()
	}
	debuglog.Debug(debuglog.Detailed, "[%s] bad request: %s\n", c.GetString(requestIDKey), message)
	c.JSON(http.StatusBadRequest, body)
}

// Parse splits a prompt into its positive and negative tag tables and the
// extra info.
func (h *PromptHandler) Parse(c *gin.Context) {
	req, ok := bindText(c)
	if !ok {
		return
	}
	p := h.parser.Parse(req.Text)
	c.JSON(http.StatusOK, ParseResponse{
		Positive:  p.Positive,
		Negative:  p.Negative,
		Extra:     p.Extra,
		ExtraInfo: p.ExtraInfo(),
		Rendered:  p.Render(req.includeWeight(), req.ReformatExtra),
	})
}

func (h *PromptHandler) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, i18n.T("server_error_invalid_request"), err)
		return
	}
	analyzer := h.parser.Analyzer()
	c.JSON(http.StatusOK, lo.Map(req.Tokens, func(token string, _ int) AnalyzeResult {
		pairs := lo.Map(analyzer.Analyze(token), func(p prompt.Pair, _ int) prompt.Pair {
			return prompt.Pair{Tag: p.Tag, Weight: prompt.RoundWeight(p.Weight)}
		})
		return AnalyzeResult{Token: token, Pairs: pairs}
	}))
}

func (h *PromptHandler) Split(c *gin.Context) {
	req, ok := bindText(c)
	if !ok {
		return
	}
	sections := prompt.GroupPrompts(req.Text)
	split := func(line string, _ int) []string { return prompt.SplitPromptLine(line) }
	c.JSON(http.StatusOK, SplitResponse{
		Positive: lo.Map(sections.Positive, split),
		Negative: lo.Map(sections.Negative, split),
		Extra:    sections.Extra,
	})
}

// Format serializes a tag table back to prompt text.
func (h *PromptHandler) Format(c *gin.Context) {
	var req FormatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, i18n.T("server_error_invalid_request"), err)
		return
	}
	includeWeight := req.IncludeWeight == nil || *req.IncludeWeight
	c.JSON(http.StatusOK, gin.H{"text": prompt.WeightTableToString(req.Tags, includeWeight)})
}

// Merge bumps the tags of base found in update and appends the new ones.
func (h *PromptHandler) Merge(c *gin.Context) {
	var req MergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, i18n.T("server_error_invalid_request"), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"merged": prompt.MergeTagWeightTable(req.Base, req.Update)})
}

func (h *PromptHandler) Extra(c *gin.Context) {
	req, ok := bindText(c)
	if !ok {
		return
	}
	info := prompt.ParseExtraInfo(req.Text)
	c.JSON(http.StatusOK, ExtraResponse{ExtraInfo: info, Formatted: prompt.FormatExtraInfo(info)})
}
