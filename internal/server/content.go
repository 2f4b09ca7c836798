package server

// ContentKind tags a ContentItem.
type ContentKind string

const (
	ContentText  ContentKind = "text"
	ContentImage ContentKind = "image"
)

// MIMETypePNG is the MIME type of rendered screenshots.
const MIMETypePNG = "image/png"

// ContentItem is one part of a tool response: text, or an image with its
// MIME type. Image data is raw; it is base64-encoded on the wire.
type ContentItem struct {
	Kind     ContentKind `json:"type"`
	Text     string      `json:"text,omitempty"`
	Data     []byte      `json:"data,omitempty"`
	MIMEType string      `json:"mimeType,omitempty"`
}

// TextContent returns a text item.
func TextContent(text string) ContentItem {
	return ContentItem{Kind: ContentText, Text: text}
}

// ImageContent returns an image item.
func ImageContent(data []byte, mimeType string) ContentItem {
	return ContentItem{Kind: ContentImage, Data: data, MIMEType: mimeType}
}

// Len is the payload size in bytes.
func (c ContentItem) Len() int {
	if c.Kind == ContentImage {
		return len(c.Data)
	}
	return len(c.Text)
}

// ToolResponse is the successful outcome of a tool call.
type ToolResponse struct {
	Content []ContentItem `json:"content"`
}
