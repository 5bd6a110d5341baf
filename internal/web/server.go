package web

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"lunch-menu/internal/app"
	"lunch-menu/internal/config"
	"lunch-menu/internal/menu"
	"lunch-menu/internal/metrics"
	"lunch-menu/internal/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templatesFS embed.FS

const defaultTitle = "주간 식단표"

var notices = map[string]string{
	"saved":   "후기가 등록되었습니다!",
	"deleted": "후기가 삭제되었습니다.",
	"empty":   "후기 내용을 입력해주세요.",
	"missing": "삭제할 후기를 찾지 못했어요.",
}

// Handler serves the weekly menu to browsers and API clients.
type Handler struct {
	comments *app.Comments
	cfg      *config.Config
	now      func() time.Time
}

// NewHandler creates the HTTP handler set.
func NewHandler(comments *app.Comments, cfg *config.Config) *Handler {
	return &Handler{comments: comments, cfg: cfg, now: time.Now}
}

// NewRouter builds the gin engine. telegramHook is mounted at /telegram when
// not nil.
func NewRouter(h *Handler, telegramHook http.Handler) *gin.Engine {
	r := gin.New()
	r.Use(ErrorHandler())
	r.Use(RequestLogger())

	tmpl := template.Must(template.New("").Funcs(template.FuncMap{
		"join": strings.Join,
	}).ParseFS(templatesFS, "templates/*.html"))
	r.SetHTMLTemplate(tmpl)

	RegisterRoutes(r, h)
	if telegramHook != nil {
		r.POST("/telegram", gin.WrapH(telegramHook))
	}
	return r
}

// RegisterRoutes registers the page, form and JSON API endpoints.
func RegisterRoutes(r *gin.Engine, h *Handler) {
	r.GET("/", h.IndexPage)
	r.POST("/comments", h.PostCommentForm)
	r.POST("/comments/delete", h.DeleteCommentForm)
	r.GET("/health", h.Health)

	api := r.Group("/api")
	api.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))
	{
		api.GET("/menu", h.GetMenu)
		api.GET("/days/:day", h.GetDay)
		api.POST("/days/:day/comments", h.PostComment)
		api.DELETE("/days/:day/comments/:id", h.DeleteComment)
	}
}

type pageData struct {
	Title  string
	Days   []string
	View   menu.DayView
	Extras []menu.ItemGroup
	Notice string
	Error  string
}

// IndexPage renders the selected day, today by default.
func (h *Handler) IndexPage(c *gin.Context) {
	doc, err := h.comments.Load()
	if err != nil {
		h.renderError(c, err)
		return
	}
	if len(doc.Days) == 0 {
		h.renderError(c, storage.ErrCorrupt)
		return
	}

	day := h.selectDay(doc, c.Query("day"))
	title := defaultTitle
	if doc.RestaurantName != "" {
		title = doc.RestaurantName + " " + defaultTitle
	}

	c.HTML(http.StatusOK, "index.html", pageData{
		Title:  title,
		Days:   doc.DayNames(),
		View:   day.View(),
		Extras: day.Menu.ExtraGroups(),
		Notice: notices[c.Query("notice")],
	})
}

// PostCommentForm handles the comment form and redirects back to the day.
func (h *Handler) PostCommentForm(c *gin.Context) {
	day := c.PostForm("day")
	_, err := h.comments.Post(day, c.PostForm("text"))
	switch {
	case err == nil:
		redirectToDay(c, day, "saved")
	case errors.Is(err, menu.ErrEmptyComment):
		redirectToDay(c, day, "empty")
	default:
		h.renderError(c, err)
	}
}

// DeleteCommentForm handles the delete button of a comment.
func (h *Handler) DeleteCommentForm(c *gin.Context) {
	day := c.PostForm("day")
	removed, err := h.comments.Delete(day, c.PostForm("id"))
	if err != nil {
		h.renderError(c, err)
		return
	}
	if removed == 0 {
		redirectToDay(c, day, "missing")
		return
	}
	redirectToDay(c, day, "deleted")
}

// GetMenu returns the whole stored document.
func (h *Handler) GetMenu(c *gin.Context) {
	doc, err := h.comments.Load()
	if err != nil {
		JSONError(c, statusFor(err), "failed to load weekly menu", err.Error())
		return
	}
	c.JSON(http.StatusOK, doc)
}

// GetDay returns the display model of one day.
func (h *Handler) GetDay(c *gin.Context) {
	doc, err := h.comments.Load()
	if err != nil {
		JSONError(c, statusFor(err), "failed to load weekly menu", err.Error())
		return
	}
	day, err := doc.Day(c.Param("day"))
	if err != nil {
		JSONError(c, statusFor(err), "unknown day", err.Error())
		return
	}
	c.JSON(http.StatusOK, day.View())
}

type commentRequest struct {
	Text string `json:"text"`
}

// PostComment adds a comment from a JSON body.
func (h *Handler) PostComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	comment, err := h.comments.Post(c.Param("day"), req.Text)
	if err != nil {
		JSONError(c, statusFor(err), "failed to save comment", err.Error())
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// DeleteComment removes a comment. Unknown ids succeed with removed=0.
func (h *Handler) DeleteComment(c *gin.Context) {
	removed, err := h.comments.Delete(c.Param("day"), c.Param("id"))
	if err != nil {
		JSONError(c, statusFor(err), "failed to delete comment", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// Health reports process health and whether a menu is present.
func (h *Handler) Health(c *gin.Context) {
	health := metrics.GetSysHealth(filepath.Dir(h.cfg.DatabasePath), h.cfg.MenuPath)
	status := "ok"
	if !health.MenuPresent {
		status = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{"status": status, "system": health})
}

func (h *Handler) selectDay(doc *menu.Document, name string) *menu.DayEntry {
	if name != "" {
		if day, err := doc.Day(name); err == nil {
			return day
		}
	}
	return &doc.Days[menu.DefaultDayIndex(h.now(), len(doc.Days))]
}

func (h *Handler) renderError(c *gin.Context, err error) {
	var msg string
	switch {
	case errors.Is(err, storage.ErrNotFound):
		msg = "📁 " + filepath.Base(h.cfg.MenuPath) + " 파일이 없습니다."
	case errors.Is(err, storage.ErrCorrupt):
		msg = "데이터 구조를 확인해주세요."
	case errors.Is(err, menu.ErrUnknownDay):
		msg = "없는 요일입니다."
	default:
		zap.L().Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		msg = "화면 표시 중 오류가 발생했습니다."
	}
	c.HTML(statusFor(err), "index.html", pageData{Title: defaultTitle, Error: msg})
}

func redirectToDay(c *gin.Context, day, notice string) {
	q := url.Values{}
	if day != "" {
		q.Set("day", day)
	}
	q.Set("notice", notice)
	c.Redirect(http.StatusSeeOther, "/?"+q.Encode())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusServiceUnavailable
	case errors.Is(err, menu.ErrUnknownDay):
		return http.StatusNotFound
	case errors.Is(err, menu.ErrEmptyComment):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
