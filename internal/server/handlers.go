package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/replynow20/gemini-zotero/internal/document"
	"github.com/replynow20/gemini-zotero/internal/domain"
	"github.com/replynow20/gemini-zotero/internal/insight"
	"github.com/replynow20/gemini-zotero/internal/observability"
	"github.com/replynow20/gemini-zotero/internal/templates"
)

const multipartMemory = 32 << 20

type handler struct {
	deps   Dependencies
	cfg    Config
	logger *observability.Logger
}

// TemplateDTO is one entry of GET /v1/templates.
type TemplateDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Structured  bool   `json:"structured"`
	Workflow    bool   `json:"workflow,omitempty"`
}

// AnalyzeResponseDTO is returned by POST /v1/analyze.
type AnalyzeResponseDTO struct {
	Template string   `json:"template,omitempty"`
	Text     string   `json:"text"`
	Tags     []string `json:"tags,omitempty"`
	Images   []string `json:"images,omitempty"`
}

// ChatRequestDTO is the body of POST /v1/chat.
type ChatRequestDTO struct {
	Session string `json:"session,omitempty"`
	Prompt  string `json:"prompt"`
}

// ChatResponseDTO is returned by POST /v1/chat.
type ChatResponseDTO struct {
	Session string `json:"session"`
	Text    string `json:"text"`
}

// InsightResponseDTO is returned by POST /v1/insight.
type InsightResponseDTO struct {
	Style       string `json:"style"`
	ImageBase64 string `json:"image_base64"`
	MIMEType    string `json:"mime_type"`
}

// listTemplates handles GET /v1/templates.
func (h *handler) listTemplates(w http.ResponseWriter, r *http.Request) {
	all := h.deps.Templates.All()
	out := make([]TemplateDTO, 0, len(all))
	for _, t := range all {
		out = append(out, TemplateDTO{
			ID:          t.ID,
			Name:        t.Name,
			Description: t.Description,
			Structured:  t.Structured(),
			Workflow:    t.Workflow,
		})
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"templates": out})
}

// analyze handles POST /v1/analyze. The form carries the PDF as "file" and
// either a free "prompt" or a "template" id.
func (h *handler) analyze(w http.ResponseWriter, r *http.Request) {
	doc, err := h.readDocument(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var (
		tmpl   templates.Template
		prompt = strings.TrimSpace(r.FormValue("prompt"))
	)
	if prompt == "" {
		id := r.FormValue("template")
		if id == "" {
			id = h.cfg.DefaultTemplate
		}
		tmpl = h.deps.Templates.Resolve(id)
		prompt = tmpl.Prompt
	}

	res, err := h.deps.Analyzer.AnalyzeDocument(r.Context(), doc, prompt, tmpl.Schema, nil)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := AnalyzeResponseDTO{Template: tmpl.ID, Text: res.Text, Images: res.Images}
	if tmpl.Structured() {
		resp.Tags = templates.ExtractTags(res.Text)
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// chat handles POST /v1/chat.
func (h *handler) chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, domain.ValidationError("invalid request body", err))
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		h.writeError(w, r, domain.ValidationError("prompt is required", nil))
		return
	}
	if req.Session == "" {
		req.Session = uuid.NewString()
	}

	ctx := r.Context()
	var past []domain.Turn
	if h.deps.History != nil {
		var err error
		if past, err = h.deps.History.Load(ctx, req.Session); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	res, err := h.deps.Chatter.Chat(ctx, req.Prompt, past)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if h.deps.History != nil {
		reply := domain.Turn{Role: domain.RoleModel, Parts: []domain.Part{domain.TextPart(res.Text)}}
		if err := h.deps.History.Append(ctx, req.Session, domain.UserTurn(domain.TextPart(req.Prompt)), reply); err != nil {
			h.logger.WithContext(ctx).Warn().Err(err).Str("session", req.Session).Msg("Failed to save chat history")
		}
	}

	h.writeJSON(w, http.StatusOK, ChatResponseDTO{Session: req.Session, Text: res.Text})
}

// clearChat handles DELETE /v1/chat/{session}.
func (h *handler) clearChat(w http.ResponseWriter, r *http.Request) {
	if h.deps.History == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := h.deps.History.Clear(r.Context(), chi.URLParam(r, "session")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// insight handles POST /v1/insight.
func (h *handler) insight(w http.ResponseWriter, r *http.Request) {
	doc, err := h.readDocument(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	style := insight.StyleSchematic
	if v := r.FormValue("style"); v != "" {
		if style, err = insight.ParseStyle(v); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	logger := h.logger.WithContext(r.Context())
	image, err := h.deps.Insight.GenerateInsight(r.Context(), doc, style, func(step string, percent int) {
		logger.Debug().Int("percent", percent).Msg(step)
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, InsightResponseDTO{
		Style:       string(style),
		ImageBase64: image,
		MIMEType:    imageMIME(image),
	})
}

// readDocument parses the multipart form and returns the validated PDF in
// the "file" field.
func (h *handler) readDocument(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, domain.ValidationError("document exceeds the upload limit", err)
		}
		return nil, domain.ValidationError("expected a multipart form", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, domain.InputUnavailableError("no file uploaded", err)
	}
	defer file.Close()

	data, err := document.ReadAll(file, h.cfg.MaxUploadBytes)
	if err != nil {
		return nil, err
	}
	src := &document.BytesSource{Filename: header.Filename, Data: data}
	return src.Load(r.Context())
}

// imageMIME sniffs the type of a base64 image.
func imageMIME(b64 string) string {
	head := b64
	if len(head) > 64 {
		head = head[:64]
	}
	raw, err := base64.StdEncoding.DecodeString(head)
	if err != nil || len(raw) == 0 {
		return "image/png"
	}
	if mime := http.DetectContentType(raw); strings.HasPrefix(mime, "image/") {
		return mime
	}
	return "image/png"
}
