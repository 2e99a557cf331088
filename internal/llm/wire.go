package llm

import (
	"github.com/replynow20/gemini-zotero/internal/domain"
)

// Request/response envelopes of the generateContent and files endpoints.

type wireBlob struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type wireFileData struct {
	MimeType string `json:"mimeType"`
	FileURI  string `json:"fileUri"`
}

type wirePart struct {
	Text       string        `json:"text,omitempty"`
	InlineData *wireBlob     `json:"inlineData,omitempty"`
	FileData   *wireFileData `json:"fileData,omitempty"`
}

type wireContent struct {
	Role  string     `json:"role,omitempty"`
	Parts []wirePart `json:"parts"`
}

type generationConfig struct {
	Temperature        *float64            `json:"temperature,omitempty"`
	TopP               *float64            `json:"topP,omitempty"`
	TopK               *int                `json:"topK,omitempty"`
	MaxOutputTokens    *int                `json:"maxOutputTokens,omitempty"`
	ResponseMimeType   string              `json:"responseMimeType,omitempty"`
	ResponseSchema     domain.Schema       `json:"responseSchema,omitempty"`
	ResponseModalities []string            `json:"responseModalities,omitempty"`
	ImageConfig        *domain.ImageConfig `json:"imageConfig,omitempty"`
}

type generateRequest struct {
	Contents         []wireContent    `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content wireContent `json:"content"`
	} `json:"candidates"`
}

type errorEnvelope struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

type wireFile struct {
	Name     string `json:"name"`
	URI      string `json:"uri"`
	MimeType string `json:"mimeType"`
	State    string `json:"state"`
}

type uploadStartRequest struct {
	File struct {
		DisplayName string `json:"display_name"`
	} `json:"file"`
}

type uploadResponse struct {
	File wireFile `json:"file"`
}

func samplingConfig(p domain.GenerationParameters) generationConfig {
	temperature, topP := p.Temperature, p.TopP
	topK, maxTokens := p.TopK, p.MaxOutputTokens
	return generationConfig{
		Temperature:     &temperature,
		TopP:            &topP,
		TopK:            &topK,
		MaxOutputTokens: &maxTokens,
	}
}

func toWireContents(turns []domain.Turn) []wireContent {
	contents := make([]wireContent, 0, len(turns))
	for _, t := range turns {
		c := wireContent{Role: string(t.Role), Parts: make([]wirePart, 0, len(t.Parts))}
		for _, p := range t.Parts {
			switch p.Kind {
			case domain.PartInlineBinary:
				c.Parts = append(c.Parts, wirePart{InlineData: &wireBlob{MimeType: p.MIMEType, Data: p.Data}})
			case domain.PartFileRef:
				c.Parts = append(c.Parts, wirePart{FileData: &wireFileData{MimeType: p.MIMEType, FileURI: p.FileURI}})
			default:
				c.Parts = append(c.Parts, wirePart{Text: p.Text})
			}
		}
		contents = append(contents, c)
	}
	return contents
}

// candidateParts converts the parts of the first candidate into domain parts.
func (r *generateResponse) candidateParts() []domain.Part {
	if len(r.Candidates) == 0 {
		return nil
	}
	wire := r.Candidates[0].Content.Parts
	parts := make([]domain.Part, 0, len(wire))
	for _, p := range wire {
		switch {
		case p.InlineData != nil:
			parts = append(parts, domain.Part{Kind: domain.PartInlineBinary, MIMEType: p.InlineData.MimeType, Data: p.InlineData.Data})
		case p.FileData != nil:
			parts = append(parts, domain.FileRefPart(p.FileData.MimeType, p.FileData.FileURI))
		default:
			parts = append(parts, domain.TextPart(p.Text))
		}
	}
	return parts
}
