package server

import (
	"errors"
	"net/http"

	"github.com/emrgen/linktrace/internal/config"
	"github.com/emrgen/linktrace/internal/masker"
	"github.com/emrgen/linktrace/internal/meta"
	"github.com/emrgen/linktrace/internal/model"
	"github.com/emrgen/linktrace/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Handlers struct {
	links   *service.LinkService
	visits  *service.VisitService
	scraper *meta.Scraper
	cnf     *config.Config
}

func NewHandlers(links *service.LinkService, visits *service.VisitService, scraper *meta.Scraper, cnf *config.Config) *Handlers {
	return &Handlers{
		links:   links,
		visits:  visits,
		scraper: scraper,
		cnf:     cnf,
	}
}

// createLinkRequest mirrors the dashboard's creation payload.
type createLinkRequest struct {
	Name       string `json:"name"`
	CustomURL  string `json:"customUrl"`
	CustomSlug string `json:"customSlug"`
}

// trackRequest is what the interstitial page reports back.
type trackRequest struct {
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	LocationDenied bool     `json:"locationDenied"`
}

// linkResponse is a link plus its derived presentation URLs.
type linkResponse struct {
	*model.Link
	service.DerivedURLs
	Visits []*model.Visit `json:"visits,omitempty"`
}

func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handlers) CreateLink(c *gin.Context) {
	var req createLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid json body")
		return
	}

	link, err := h.links.Create(c.Request.Context(), service.CreateLinkInput{
		Name:       req.Name,
		CustomURL:  req.CustomURL,
		CustomSlug: req.CustomSlug,
	})
	if err != nil {
		h.jsonServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, linkResponse{
		Link:        link,
		DerivedURLs: service.URLsFor(h.baseURL(c), link.ID),
	})
}

func (h *Handlers) ListLinks(c *gin.Context) {
	links, err := h.links.List(c.Request.Context())
	if err != nil {
		h.jsonServiceError(c, err)
		return
	}

	base := h.baseURL(c)
	out := make([]linkResponse, 0, len(links))
	for _, link := range links {
		out = append(out, linkResponse{
			Link:        link,
			DerivedURLs: service.URLsFor(base, link.ID),
		})
	}

	c.JSON(http.StatusOK, out)
}

func (h *Handlers) GetLink(c *gin.Context) {
	link, visits, err := h.links.GetWithVisits(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.jsonServiceError(c, err)
		return
	}

	if visits == nil {
		visits = []*model.Visit{}
	}

	urls := service.URLsFor(h.baseURL(c), link.ID)
	c.JSON(http.StatusOK, gin.H{
		"id":          link.ID,
		"name":        link.Name,
		"custom_url":  link.CustomURL,
		"custom_slug": link.CustomSlug,
		"created_at":  link.CreatedAt,
		"url":         urls.URL,
		"masked_urls": urls.Masked,
		"visits":      visits,
	})
}

func (h *Handlers) DeleteLink(c *gin.Context) {
	if err := h.links.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.jsonServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handlers) Track(c *gin.Context) {
	var req trackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid json body")
		return
	}

	_, location, err := h.visits.Record(c.Request.Context(), c.Param("id"), service.RecordInput{
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		LocationDenied: req.LocationDenied,
		IP:             clientIP(c),
		UserAgent:      c.Request.UserAgent(),
	})
	if err != nil {
		h.jsonServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"location": location,
	})
}

// Open serves the plain short link: the interstitial redirect page when the
// link forwards somewhere, the internal tracker page otherwise.
func (h *Handlers) Open(c *gin.Context) {
	link, err := h.links.Resolve(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.htmlServiceError(c, err)
		return
	}

	h.renderInterstitial(c, link)
}

// OpenFile resolves the masked shared-document filename. The filename keeps
// only a 4-character identifier prefix, so resolution scans for the first
// matching link.
func (h *Handlers) OpenFile(c *gin.Context) {
	prefix, err := masker.ParseFileName(c.Param("filename"))
	if err != nil {
		h.renderNotFound(c)
		return
	}

	link, err := h.links.ResolveFilePrefix(c.Request.Context(), prefix)
	if err != nil {
		h.htmlServiceError(c, err)
		return
	}

	h.renderInterstitial(c, link)
}

// OpenPhoto resolves the masked photo filename, which carries the full
// identifier.
func (h *Handlers) OpenPhoto(c *gin.Context) {
	id, err := masker.ParsePhotoName(c.Param("filename"))
	if err != nil {
		h.renderNotFound(c)
		return
	}

	link, err := h.links.Resolve(c.Request.Context(), id)
	if err != nil {
		h.htmlServiceError(c, err)
		return
	}

	h.renderInterstitial(c, link)
}

// baseURL is the configured origin, or the inbound request's scheme and host
// when no override is set.
func (h *Handlers) baseURL(c *gin.Context) string {
	if h.cnf.BaseURL != "" {
		return h.cnf.BaseURL
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	return scheme + "://" + c.Request.Host
}

// clientIP prefers the forwarding chain over the socket address.
func clientIP(c *gin.Context) string {
	if fwd := c.GetHeader("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	return c.ClientIP()
}

func (h *Handlers) jsonServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNameRequired),
		errors.Is(err, service.ErrInvalidSlug),
		errors.Is(err, service.ErrSlugTaken),
		errors.Is(err, service.ErrInvalidURL):
		jsonError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrLinkNotFound):
		jsonError(c, http.StatusNotFound, err.Error())
	default:
		logrus.Errorf("request failed: %v", err)
		jsonError(c, http.StatusInternalServerError, "internal error")
	}
}

// htmlServiceError is the error path of the browser-navigated routes: a 404
// page for missing links, a plain 500 otherwise.
func (h *Handlers) htmlServiceError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrLinkNotFound) {
		h.renderNotFound(c)
		return
	}

	logrus.Errorf("page request failed: %v", err)
	c.String(http.StatusInternalServerError, "internal error")
}

func jsonError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
