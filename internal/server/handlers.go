package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shouni/go-storyboard-kit/internal/builder"
	"github.com/shouni/go-storyboard-kit/pkg/domain"
	"github.com/shouni/go-storyboard-kit/pkg/publisher"
	"github.com/shouni/go-storyboard-kit/pkg/tools"
)

type handler struct {
	app *builder.AppContext
}

type storyboardRequest struct {
	Script         string `json:"script"`
	SceneCount     int    `json:"scene_count"`
	AspectRatio    string `json:"aspect_ratio"`
	ReferenceImage string `json:"reference_image"`
}

type storyboardResponse struct {
	RunID       string             `json:"run_id"`
	Scenes      []domain.Scene     `json:"scenes"`
	Images      map[int]string     `json:"images"`
	Failures    map[int]string     `json:"failures,omitempty"`
	AspectRatio domain.AspectRatio `json:"aspect_ratio"`
}

type exportRequest struct {
	Scenes []domain.Scene `json:"scenes"`
	Images map[int]string `json:"images"`
}

type markdownResponse struct {
	Markdown string `json:"markdown"`
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// createStoryboard は脚本を受け取り、分解と画像生成を同期的に実行するのだ。
// 参照画像はサーバー側のファイルを読ませないよう data URI だけ受け付けるのだ。
func (h *handler) createStoryboard(c *gin.Context) {
	var body storyboardRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		abortWithError(c, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err))
		return
	}

	ctx := c.Request.Context()
	req := domain.StoryboardRequest{
		Script:      body.Script,
		SceneCount:  domain.SceneCount(body.SceneCount),
		AspectRatio: domain.AspectRatio(body.AspectRatio),
	}
	if body.ReferenceImage != "" {
		if !domain.IsDataURI(body.ReferenceImage) {
			abortWithError(c, fmt.Errorf("%w: reference_image must be a data URI", domain.ErrInvalidRequest))
			return
		}
		ref, err := h.app.Loader.Load(ctx, body.ReferenceImage)
		if err != nil {
			abortWithError(c, err)
			return
		}
		req.Reference = &ref
	}

	res, err := h.app.NewPipeline(nil).Run(ctx, req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	images := make(map[int]string, len(res.Images))
	for _, id := range res.Images.SortedIDs() {
		images[id] = res.Images[id].DataURI()
	}
	c.JSON(http.StatusOK, storyboardResponse{
		RunID:       res.RunID,
		Scenes:      res.Scenes,
		Images:      images,
		Failures:    res.Failures,
		AspectRatio: res.AspectRatio,
	})
}

func (h *handler) exportHTML(c *gin.Context) {
	var body exportRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		abortWithError(c, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err))
		return
	}
	images, err := decodeImages(body.Images)
	if err != nil {
		abortWithError(c, err)
		return
	}
	doc, err := publisher.BuildHTML(body.Scenes, images)
	if err != nil {
		abortWithError(c, err)
		return
	}
	attachment(c, publisher.HTMLFileName)
	c.Data(http.StatusOK, "text/html; charset=utf-8", doc)
}

func (h *handler) exportZip(c *gin.Context) {
	var body exportRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		abortWithError(c, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err))
		return
	}
	images, err := decodeImages(body.Images)
	if err != nil {
		abortWithError(c, err)
		return
	}
	data, err := publisher.BuildArchive(images)
	if err != nil {
		abortWithError(c, err)
		return
	}
	attachment(c, publisher.ArchiveFileName)
	c.Data(http.StatusOK, "application/zip", data)
}

func (h *handler) swot(c *gin.Context) {
	var req tools.SWOTRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err))
		return
	}
	out, err := h.app.Studio.SWOT(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *handler) marketing(c *gin.Context) {
	var req tools.MarketingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err))
		return
	}
	out, err := h.app.Studio.MarketingStrategy(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, markdownResponse{Markdown: out})
}

func decodeImages(uris map[int]string) (domain.SceneImageMap, error) {
	images := make(domain.SceneImageMap, len(uris))
	for id, uri := range uris {
		img, err := domain.ParseDataURI(uri)
		if err != nil {
			return nil, fmt.Errorf("%w: scene %d: %v", domain.ErrInvalidRequest, id, err)
		}
		images[id] = img
	}
	return images, nil
}

func attachment(c *gin.Context, name string) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
}
