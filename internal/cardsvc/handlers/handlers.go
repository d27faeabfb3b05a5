package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/avvvet/qrcard-services/internal/cardsvc/models"
	"github.com/avvvet/qrcard-services/internal/cardsvc/render"
	"github.com/avvvet/qrcard-services/internal/cardsvc/service"
	"github.com/avvvet/qrcard-services/internal/cardsvc/store"
	"github.com/go-chi/chi"
	log "github.com/sirupsen/logrus"
)

const maxFormBytes = 64 << 10

type Handler struct {
	cards    *service.CardService
	renderer *render.Renderer
	baseURL  string
}

// NewHandler wires the dispatcher. An empty baseURL means card URLs are
// built from the incoming request Host header, which the client controls;
// set baseURL whenever the service is reachable without a trusted proxy.
func NewHandler(cards *service.CardService, renderer *render.Renderer, baseURL string) *Handler {
	return &Handler{
		cards:    cards,
		renderer: renderer,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error,omitempty"`
}

type CreateCardRequest struct {
	models.CardFields
	Code string `json:"code"`
}

type CreatedCard struct {
	Code string `json:"code"`
	URL  string `json:"url"`
}

func (h *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rsp.Code)
	if err := json.NewEncoder(w).Encode(rsp); err != nil {
		log.Errorf("Failed to encode response: %v", err)
	}
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	h.CreateResponse(w, Response{
		Message: "card service is running",
		Code:    http.StatusOK,
	})
}

// IndexHandler shows the submission form. ?error= and ?success= become the alert.
func (h *Handler) IndexHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.writeIndex(w, http.StatusOK, render.IndexPage{
		Error:   q.Get("error"),
		Success: q.Get("success"),
	})
}

// SubmitHandler issues a card from the form and redirects to it.
func (h *Handler) SubmitHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		h.writeIndex(w, http.StatusBadRequest, render.IndexPage{Error: "Invalid form submission"})
		return
	}

	fields := models.CardFields{
		Name:     r.PostForm.Get("name"),
		Email:    r.PostForm.Get("email"),
		Phone:    r.PostForm.Get("phone"),
		Github:   r.PostForm.Get("github"),
		Linkedin: r.PostForm.Get("linkedin"),
	}
	requested := r.PostForm.Get("code")

	code, err := h.cards.Issue(r.Context(), fields, requested)
	if err != nil {
		status, msg := issueError(err)
		if status == http.StatusInternalServerError {
			log.Errorf("Error [SubmitHandler] issue card: %v", err)
			http.Error(w, msg, status)
			return
		}
		h.writeIndex(w, status, render.IndexPage{Error: msg, Form: fields, Code: requested})
		return
	}

	http.Redirect(w, r, "/card/"+code, http.StatusSeeOther)
}

// CardHandler renders the card page with a fresh QR code.
func (h *Handler) CardHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	card, err := h.cards.Lookup(r.Context(), code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Card not found", http.StatusNotFound)
			return
		}
		log.Errorf("Error [CardHandler] lookup %s: %v", code, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	doc, err := h.renderer.Render(*card, h.cardURL(r, card.Code))
	if err != nil {
		log.Errorf("Error [CardHandler] render %s: %v", code, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := h.renderer.WriteCard(&buf, doc); err != nil {
		log.Errorf("Error [CardHandler] template %s: %v", code, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// QRHandler serves the card's QR code as a PNG download.
func (h *Handler) QRHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	card, err := h.cards.Lookup(r.Context(), code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Card not found", http.StatusNotFound)
			return
		}
		log.Errorf("Error [QRHandler] lookup %s: %v", code, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	png, err := h.renderer.QRCode(h.cardURL(r, card.Code))
	if err != nil {
		log.Errorf("Error [QRHandler] encode %s: %v", code, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", `attachment; filename="`+card.Code+`.png"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (h *Handler) CreateCardHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateCardRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.CreateResponse(w, Response{
			Message: "invalid request body",
			Code:    http.StatusBadRequest,
			Error:   err.Error(),
		})
		return
	}

	code, err := h.cards.Issue(r.Context(), req.CardFields, req.Code)
	if err != nil {
		status, msg := issueError(err)
		if status == http.StatusInternalServerError {
			log.Errorf("Error [CreateCardHandler] issue card: %v", err)
		}
		h.CreateResponse(w, Response{Message: "card not created", Code: status, Error: msg})
		return
	}

	url := h.cardURL(r, code)
	w.Header().Set("Location", url)
	h.CreateResponse(w, Response{
		Message: "card created",
		Code:    http.StatusCreated,
		Data:    CreatedCard{Code: code, URL: url},
	})
}

func (h *Handler) GetCardHandler(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	card, err := h.cards.Lookup(r.Context(), code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.CreateResponse(w, Response{Message: "card not found", Code: http.StatusNotFound, Error: store.ErrNotFound.Error()})
			return
		}
		log.Errorf("Error [GetCardHandler] lookup %s: %v", code, err)
		h.CreateResponse(w, Response{Message: "internal server error", Code: http.StatusInternalServerError, Error: "internal server error"})
		return
	}

	h.CreateResponse(w, Response{Message: "card found", Code: http.StatusOK, Data: card})
}

func (h *Handler) writeIndex(w http.ResponseWriter, status int, page render.IndexPage) {
	var buf bytes.Buffer
	if err := h.renderer.WriteIndex(&buf, page); err != nil {
		log.Errorf("Error loading homepage: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// cardURL is the address the card's QR code points at.
func (h *Handler) cardURL(r *http.Request, code string) string {
	base := h.baseURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
			scheme = proto
		}
		base = scheme + "://" + r.Host
	}
	return base + "/card/" + code
}

// issueError maps an Issue failure to a status and a message safe to show.
func issueError(err error) (int, string) {
	switch {
	case errors.Is(err, store.ErrAlreadyExists):
		return http.StatusBadRequest, "Custom code already exists"
	case errors.Is(err, service.ErrInvalidCode), errors.Is(err, service.ErrInvalidCard):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
